package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/arvenwood/loomfall/internal/character"
	"github.com/arvenwood/loomfall/internal/storage"
)

// PutCharacter upserts one character sheet.
func (s *Store) PutCharacter(ctx context.Context, record character.Character) error {
	if err := record.Validate(); err != nil {
		return err
	}

	statsJSON, err := json.Marshal(record.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	proficiencies, err := json.Marshal(orEmpty(record.Proficiencies))
	if err != nil {
		return fmt.Errorf("encode proficiencies: %w", err)
	}
	saveProficiencies, err := json.Marshal(orEmpty(record.SaveProficiencies))
	if err != nil {
		return fmt.Errorf("encode save proficiencies: %w", err)
	}
	spellSlots, err := json.Marshal(record.SpellSlots)
	if err != nil {
		return fmt.Errorf("encode spell slots: %w", err)
	}
	resistances, err := json.Marshal(orEmpty(record.Resistances))
	if err != nil {
		return fmt.Errorf("encode resistances: %w", err)
	}
	vulnerabilities, err := json.Marshal(orEmpty(record.Vulnerabilities))
	if err != nil {
		return fmt.Errorf("encode vulnerabilities: %w", err)
	}
	immunities, err := json.Marshal(orEmpty(record.Immunities))
	if err != nil {
		return fmt.Errorf("encode immunities: %w", err)
	}

	_, err = s.db().ExecContext(ctx, `
INSERT INTO characters (
    id, name, level, hp, max_hp, ac, stats_json, proficiencies_json,
    save_proficiencies_json, spell_slots_json, resistances_json,
    vulnerabilities_json, immunities_json, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    level = excluded.level,
    hp = excluded.hp,
    max_hp = excluded.max_hp,
    ac = excluded.ac,
    stats_json = excluded.stats_json,
    proficiencies_json = excluded.proficiencies_json,
    save_proficiencies_json = excluded.save_proficiencies_json,
    spell_slots_json = excluded.spell_slots_json,
    resistances_json = excluded.resistances_json,
    vulnerabilities_json = excluded.vulnerabilities_json,
    immunities_json = excluded.immunities_json,
    updated_at = excluded.updated_at`,
		record.ID, record.Name, record.Level, record.HP, record.MaxHP, record.AC,
		string(statsJSON), string(proficiencies), string(saveProficiencies),
		string(spellSlots), string(resistances), string(vulnerabilities),
		string(immunities), toMillis(record.CreatedAt), toMillis(record.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put character: %w", err)
	}
	return nil
}

// GetCharacter loads one character sheet, validating the decoded record.
func (s *Store) GetCharacter(ctx context.Context, characterID string) (character.Character, error) {
	row := s.db().QueryRowContext(ctx, `
SELECT id, name, level, hp, max_hp, ac, stats_json, proficiencies_json,
       save_proficiencies_json, spell_slots_json, resistances_json,
       vulnerabilities_json, immunities_json, created_at, updated_at
FROM characters WHERE id = ?`, characterID)

	var record character.Character
	var statsJSON, proficiencies, saveProficiencies, spellSlots string
	var resistances, vulnerabilities, immunities string
	var createdAt, updatedAt int64

	err := row.Scan(&record.ID, &record.Name, &record.Level, &record.HP,
		&record.MaxHP, &record.AC, &statsJSON, &proficiencies,
		&saveProficiencies, &spellSlots, &resistances, &vulnerabilities,
		&immunities, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return character.Character{}, storage.ErrNotFound
	}
	if err != nil {
		return character.Character{}, fmt.Errorf("get character: %w", err)
	}

	for _, decode := range []struct {
		raw    string
		target any
		field  string
	}{
		{statsJSON, &record.Stats, "stats"},
		{proficiencies, &record.Proficiencies, "proficiencies"},
		{saveProficiencies, &record.SaveProficiencies, "save proficiencies"},
		{spellSlots, &record.SpellSlots, "spell slots"},
		{resistances, &record.Resistances, "resistances"},
		{vulnerabilities, &record.Vulnerabilities, "vulnerabilities"},
		{immunities, &record.Immunities, "immunities"},
	} {
		if err := json.Unmarshal([]byte(decode.raw), decode.target); err != nil {
			return character.Character{}, fmt.Errorf("decode %s: %w", decode.field, err)
		}
	}

	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	if err := record.Validate(); err != nil {
		return character.Character{}, err
	}
	return record, nil
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
