package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/arvenwood/loomfall/internal/storage"
)

// PutEncounter upserts one encounter snapshot.
func (s *Store) PutEncounter(ctx context.Context, record storage.EncounterRecord) error {
	if record.ID == "" {
		return fmt.Errorf("encounter id is required")
	}
	if len(record.TurnOrder) == 0 {
		return fmt.Errorf("encounter turn order is required")
	}
	if record.CurrentTurnIndex < 0 || record.CurrentTurnIndex >= len(record.TurnOrder) {
		return fmt.Errorf("encounter turn index %d outside turn order", record.CurrentTurnIndex)
	}

	turnOrderJSON, err := json.Marshal(record.TurnOrder)
	if err != nil {
		return fmt.Errorf("encode turn order: %w", err)
	}
	participants := record.ParticipantsJSON
	if len(participants) == 0 {
		participants = []byte("[]")
	}
	if !json.Valid(participants) {
		return fmt.Errorf("participants payload is not valid JSON")
	}

	_, err = s.db().ExecContext(ctx, `
INSERT INTO encounters (
    id, world_id, session_id, status, round, current_turn_index,
    turn_order_json, participants_json, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    status = excluded.status,
    round = excluded.round,
    current_turn_index = excluded.current_turn_index,
    turn_order_json = excluded.turn_order_json,
    participants_json = excluded.participants_json,
    updated_at = excluded.updated_at`,
		record.ID, record.WorldID, record.SessionID, record.Status,
		record.Round, record.CurrentTurnIndex, string(turnOrderJSON),
		string(participants), record.CreatedAtMillis, record.UpdatedAtMillis)
	if err != nil {
		return fmt.Errorf("put encounter: %w", err)
	}
	return nil
}

// GetEncounter loads one encounter snapshot.
func (s *Store) GetEncounter(ctx context.Context, encounterID string) (storage.EncounterRecord, error) {
	row := s.db().QueryRowContext(ctx, `
SELECT id, world_id, session_id, status, round, current_turn_index,
       turn_order_json, participants_json, created_at, updated_at
FROM encounters WHERE id = ?`, encounterID)

	var record storage.EncounterRecord
	var turnOrderJSON, participantsJSON string
	err := row.Scan(&record.ID, &record.WorldID, &record.SessionID,
		&record.Status, &record.Round, &record.CurrentTurnIndex,
		&turnOrderJSON, &participantsJSON, &record.CreatedAtMillis,
		&record.UpdatedAtMillis)
	if err == sql.ErrNoRows {
		return storage.EncounterRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.EncounterRecord{}, fmt.Errorf("get encounter: %w", err)
	}
	if err := json.Unmarshal([]byte(turnOrderJSON), &record.TurnOrder); err != nil {
		return storage.EncounterRecord{}, fmt.Errorf("decode turn order: %w", err)
	}
	record.ParticipantsJSON = []byte(participantsJSON)
	return record, nil
}
