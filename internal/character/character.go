// Package character defines the persistent character sheet records.
//
// Characters outlive encounters; combat copies a character into an
// in-encounter participant at startEncounter and synchronises hp back on
// endEncounter.
package character

import (
	"strings"
	"time"

	"github.com/arvenwood/loomfall/internal/apperr"
)

// Stats holds the six ability scores.
type Stats struct {
	Str int `json:"str"`
	Dex int `json:"dex"`
	Con int `json:"con"`
	Int int `json:"int"`
	Wis int `json:"wis"`
	Cha int `json:"cha"`
}

// Modifier returns the ability modifier for a score.
func Modifier(score int) int {
	if score >= 10 {
		return (score - 10) / 2
	}
	return -((11 - score) / 2)
}

// SpellSlot tracks one spell level's slots.
type SpellSlot struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

// Character is the persistent sheet for a player character or NPC.
type Character struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Stats             Stats             `json:"stats"`
	Level             int               `json:"level"`
	HP                int               `json:"hp"`
	MaxHP             int               `json:"maxHp"`
	AC                int               `json:"ac"`
	Proficiencies     []string          `json:"proficiencies,omitempty"`
	SaveProficiencies []string          `json:"saveProficiencies,omitempty"`
	SpellSlots        map[int]SpellSlot `json:"spellSlots,omitempty"`
	Resistances       []string          `json:"resistances,omitempty"`
	Vulnerabilities   []string          `json:"vulnerabilities,omitempty"`
	Immunities        []string          `json:"immunities,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// Validate reports whether the character record is well formed.
func (c Character) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return apperr.New(apperr.CodeValidation, "character id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return apperr.New(apperr.CodeValidation, "character name is required")
	}
	if c.Level < 0 {
		return apperr.New(apperr.CodeValidation, "character level must not be negative")
	}
	if c.MaxHP < 1 {
		return apperr.New(apperr.CodeValidation, "character max hp must be at least 1")
	}
	if c.HP < 0 || c.HP > c.MaxHP {
		return apperr.New(apperr.CodeValidation, "character hp %d outside [0,%d]", c.HP, c.MaxHP)
	}
	for level, slot := range c.SpellSlots {
		if level < 1 || level > 9 {
			return apperr.New(apperr.CodeValidation, "spell slot level %d outside [1,9]", level)
		}
		if slot.Current < 0 || slot.Current > slot.Max {
			return apperr.New(apperr.CodeValidation, "spell slot level %d current %d outside [0,%d]", level, slot.Current, slot.Max)
		}
	}
	return nil
}

// SaveModifier returns the saving-throw modifier for the named ability,
// including proficiency when the character is proficient in that save.
func (c Character) SaveModifier(ability string) int {
	mod := c.abilityModifier(ability)
	for _, prof := range c.SaveProficiencies {
		if strings.EqualFold(prof, ability) {
			return mod + proficiencyBonus(c.Level)
		}
	}
	return mod
}

func (c Character) abilityModifier(ability string) int {
	switch strings.ToLower(ability) {
	case "str":
		return Modifier(c.Stats.Str)
	case "dex":
		return Modifier(c.Stats.Dex)
	case "con":
		return Modifier(c.Stats.Con)
	case "int":
		return Modifier(c.Stats.Int)
	case "wis":
		return Modifier(c.Stats.Wis)
	case "cha":
		return Modifier(c.Stats.Cha)
	default:
		return 0
	}
}

func proficiencyBonus(level int) int {
	if level < 1 {
		return 2
	}
	return 2 + (level-1)/4
}
