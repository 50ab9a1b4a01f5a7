package sqlite

import (
	"context"
	"fmt"

	"github.com/arvenwood/loomfall/internal/storage"
)

// AppendAuditEntry appends one invocation record and returns its sequence.
func (s *Store) AppendAuditEntry(ctx context.Context, entry storage.AuditEntry) (uint64, error) {
	if entry.Action == "" {
		return 0, fmt.Errorf("audit action is required")
	}
	arguments := entry.ArgumentsJSON
	if len(arguments) == 0 {
		arguments = []byte("{}")
	}

	result, err := s.db().ExecContext(ctx, `
INSERT INTO audit_logs (
    id, action, arguments_json, result_json, error_code, error_message,
    duration_ms, timestamp, request_id, session_id, seed
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Action, string(arguments), nullable(entry.ResultJSON),
		entry.ErrorCode, entry.ErrorMessage, entry.DurationMillis,
		entry.TimestampMillis, entry.RequestID, entry.SessionID, entry.Seed)
	if err != nil {
		return 0, fmt.Errorf("append audit entry: %w", err)
	}
	seq, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("audit entry seq: %w", err)
	}
	return uint64(seq), nil
}

// ListAuditEntries pages the log in append order.
func (s *Store) ListAuditEntries(ctx context.Context, afterSeq uint64, limit int) ([]storage.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db().QueryContext(ctx, `
SELECT seq, id, action, arguments_json, COALESCE(result_json, ''), error_code,
       error_message, duration_ms, timestamp, request_id, session_id, seed
FROM audit_logs WHERE seq > ? ORDER BY seq LIMIT ?`, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []storage.AuditEntry
	for rows.Next() {
		var entry storage.AuditEntry
		var arguments, result string
		if err := rows.Scan(&entry.Seq, &entry.ID, &entry.Action, &arguments,
			&result, &entry.ErrorCode, &entry.ErrorMessage,
			&entry.DurationMillis, &entry.TimestampMillis, &entry.RequestID,
			&entry.SessionID, &entry.Seed); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.ArgumentsJSON = []byte(arguments)
		if result != "" {
			entry.ResultJSON = []byte(result)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// AppendEvent appends one published event.
func (s *Store) AppendEvent(ctx context.Context, record storage.EventRecord) (uint64, error) {
	if record.Topic == "" {
		return 0, fmt.Errorf("event topic is required")
	}
	payload := record.PayloadJSON
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	result, err := s.db().ExecContext(ctx, `
INSERT INTO event_logs (topic, payload_json, timestamp) VALUES (?, ?, ?)`,
		record.Topic, string(payload), record.TimestampMillis)
	if err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}
	seq, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("event seq: %w", err)
	}
	return uint64(seq), nil
}

// ListEvents pages the event log in append order.
func (s *Store) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]storage.EventRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db().QueryContext(ctx, `
SELECT seq, topic, payload_json, timestamp
FROM event_logs WHERE seq > ? ORDER BY seq LIMIT ?`, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var records []storage.EventRecord
	for rows.Next() {
		var record storage.EventRecord
		var payload string
		if err := rows.Scan(&record.Seq, &record.Topic, &payload, &record.TimestampMillis); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		record.PayloadJSON = []byte(payload)
		records = append(records, record)
	}
	return records, rows.Err()
}

func nullable(value []byte) any {
	if len(value) == 0 {
		return nil
	}
	return string(value)
}
