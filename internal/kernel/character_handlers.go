package kernel

import (
	"context"

	"github.com/arvenwood/loomfall/internal/apperr"
	"github.com/arvenwood/loomfall/internal/character"
	"github.com/arvenwood/loomfall/internal/storage"
)

// CharacterCreateInput is the request record for character.create.
type CharacterCreateInput struct {
	ID                string                      `json:"id,omitempty" jsonschema:"optional stable id"`
	Name              string                      `json:"name"`
	Stats             character.Stats             `json:"stats"`
	Level             int                         `json:"level"`
	HP                int                         `json:"hp,omitempty"`
	MaxHP             int                         `json:"maxHp"`
	AC                int                         `json:"ac"`
	Proficiencies     []string                    `json:"proficiencies,omitempty"`
	SaveProficiencies []string                    `json:"saveProficiencies,omitempty"`
	SpellSlots        map[int]character.SpellSlot `json:"spellSlots,omitempty"`
	Resistances       []string                    `json:"resistances,omitempty"`
	Vulnerabilities   []string                    `json:"vulnerabilities,omitempty"`
	Immunities        []string                    `json:"immunities,omitempty"`
}

// CharacterCreate persists a new character sheet.
func (k *Kernel) CharacterCreate(ctx context.Context, input CharacterCreateInput) (character.Character, error) {
	result, err := k.record(ctx, "character.create", input, func() (any, error) {
		return k.characterCreate(ctx, input)
	})
	if err != nil {
		return character.Character{}, err
	}
	return result.(character.Character), nil
}

func (k *Kernel) characterCreate(ctx context.Context, input CharacterCreateInput) (character.Character, error) {
	record := character.Character{
		ID:                input.ID,
		Name:              input.Name,
		Stats:             input.Stats,
		Level:             input.Level,
		HP:                input.HP,
		MaxHP:             input.MaxHP,
		AC:                input.AC,
		Proficiencies:     input.Proficiencies,
		SaveProficiencies: input.SaveProficiencies,
		SpellSlots:        input.SpellSlots,
		Resistances:       input.Resistances,
		Vulnerabilities:   input.Vulnerabilities,
		Immunities:        input.Immunities,
	}
	if record.ID == "" {
		record.ID = k.NextID()
	}
	if record.HP == 0 {
		record.HP = record.MaxHP
	}
	now := k.Clock.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	if _, err := k.Store.GetCharacter(ctx, record.ID); err == nil {
		return character.Character{}, apperr.New(apperr.CodeConflict, "character %q already exists", record.ID)
	} else if err != storage.ErrNotFound {
		return character.Character{}, apperr.Wrap(apperr.CodePersistence, err, "check character %q", record.ID)
	}
	if err := k.Store.PutCharacter(ctx, record); err != nil {
		return character.Character{}, err
	}
	return record, nil
}

// CharacterGetInput is the request record for character.get.
type CharacterGetInput struct {
	CharacterID string `json:"characterId"`
}

// CharacterGet loads a character sheet.
func (k *Kernel) CharacterGet(ctx context.Context, input CharacterGetInput) (character.Character, error) {
	result, err := k.record(ctx, "character.get", input, func() (any, error) {
		record, err := k.Store.GetCharacter(ctx, input.CharacterID)
		if err == storage.ErrNotFound {
			return nil, apperr.New(apperr.CodeNotFound, "character %q does not exist", input.CharacterID)
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.CodePersistence, err, "load character %q", input.CharacterID)
		}
		return record, nil
	})
	if err != nil {
		return character.Character{}, err
	}
	return result.(character.Character), nil
}
