// Package storage declares the typed repository interfaces the kernel
// persists through. Implementations validate worlds, tiles, regions,
// structures and characters at both the write and read boundary; river
// segments, roads and annotations are stored without validation, and
// encounter snapshots get only structural checks on write.
package storage

import (
	"context"
	"errors"

	"github.com/arvenwood/loomfall/internal/character"
	"github.com/arvenwood/loomfall/internal/world"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// WorldStore persists world records and their owned tiles, regions, rivers,
// structures, roads and annotations.
type WorldStore interface {
	PutWorld(ctx context.Context, record world.World) error
	GetWorld(ctx context.Context, worldID string) (world.World, error)

	PutTiles(ctx context.Context, worldID string, tiles []world.Tile) error
	GetTiles(ctx context.Context, worldID string) ([]world.Tile, error)

	PutRegions(ctx context.Context, worldID string, regions []world.Region) error
	GetRegions(ctx context.Context, worldID string) ([]world.Region, error)

	PutRiverSegments(ctx context.Context, worldID string, segments []world.RiverSegment) error
	GetRiverSegments(ctx context.Context, worldID string) ([]world.RiverSegment, error)

	PutStructures(ctx context.Context, worldID string, structures []world.Structure) error
	GetStructures(ctx context.Context, worldID string) ([]world.Structure, error)

	PutRoads(ctx context.Context, worldID string, roads []world.Road) error
	GetRoads(ctx context.Context, worldID string) ([]world.Road, error)

	PutAnnotations(ctx context.Context, worldID string, annotations []world.Annotation) error
	GetAnnotations(ctx context.Context, worldID string) ([]world.Annotation, error)
}

// CharacterStore persists character sheets.
type CharacterStore interface {
	PutCharacter(ctx context.Context, record character.Character) error
	GetCharacter(ctx context.Context, characterID string) (character.Character, error)
}

// EncounterRecord is the persisted snapshot of a completed or paused
// encounter.
type EncounterRecord struct {
	ID               string          `json:"id"`
	WorldID          string          `json:"worldId,omitempty"`
	SessionID        string          `json:"sessionId"`
	Status           string          `json:"status"`
	Round            int             `json:"round"`
	CurrentTurnIndex int             `json:"currentTurnIndex"`
	TurnOrder        []string        `json:"turnOrder"`
	ParticipantsJSON []byte          `json:"-"`
	CreatedAtMillis  int64           `json:"-"`
	UpdatedAtMillis  int64           `json:"-"`
}

// EncounterStore persists encounter snapshots.
type EncounterStore interface {
	PutEncounter(ctx context.Context, record EncounterRecord) error
	GetEncounter(ctx context.Context, encounterID string) (EncounterRecord, error)
}

// AuditEntry is one recorded tool invocation.
type AuditEntry struct {
	ID              string `json:"id"`
	Seq             uint64 `json:"seq"`
	Action          string `json:"action"`
	ArgumentsJSON   []byte `json:"arguments"`
	ResultJSON      []byte `json:"result,omitempty"`
	ErrorCode       string `json:"errorCode,omitempty"`
	ErrorMessage    string `json:"error,omitempty"`
	DurationMillis  int64  `json:"durationMs"`
	TimestampMillis int64  `json:"timestamp"`
	RequestID       string `json:"requestId,omitempty"`
	SessionID       string `json:"sessionId,omitempty"`
	Seed            string `json:"seed,omitempty"`
}

// AuditStore appends and reads the invocation log. Seq is assigned by the
// store on append, starting at 1.
type AuditStore interface {
	AppendAuditEntry(ctx context.Context, entry AuditEntry) (uint64, error)
	ListAuditEntries(ctx context.Context, afterSeq uint64, limit int) ([]AuditEntry, error)
}

// EventRecord is one published bus event, persisted for inspection.
type EventRecord struct {
	Seq             uint64 `json:"seq"`
	Topic           string `json:"topic"`
	PayloadJSON     []byte `json:"payload"`
	TimestampMillis int64  `json:"timestamp"`
}

// EventLogStore appends and reads published events.
type EventLogStore interface {
	AppendEvent(ctx context.Context, record EventRecord) (uint64, error)
	ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]EventRecord, error)
}

// Store bundles every repository the kernel needs.
//
// WithTx runs fn against a store view bound to a single write transaction:
// every repository call inside fn shares it, and an error from fn rolls the
// whole transaction back. Handlers wrap their full commit step in one WithTx
// call so a partial failure never leaves durable state behind.
type Store interface {
	WorldStore
	CharacterStore
	EncounterStore
	AuditStore
	EventLogStore
	WithTx(ctx context.Context, fn func(Store) error) error
	Close() error
}
