// Package sqlite provides the SQLite-backed store implementing every
// repository interface.
//
// Composite fields (spell slots, participants, road paths) persist as JSON
// columns. Spell slots are validated with their character on both write and
// read; the participants column (conditions and aura effects included) is
// only checked to be well-formed JSON on write and is not validated on read;
// road paths are not validated. Foreign keys are enforced; the database runs
// in WAL mode.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/arvenwood/loomfall/internal/platform/storage/sqlitemigrate"
	"github.com/arvenwood/loomfall/internal/storage"
	"github.com/arvenwood/loomfall/internal/storage/sqlite/migrations"
)

// Store persists kernel state in SQLite.
//
// A zero tx means calls run directly against the database; WithTx clones the
// store with tx bound so every repository call inside the closure shares one
// transaction.
type Store struct {
	sqlDB *sql.DB
	tx    *sql.Tx
}

// dbtx is the query surface shared by *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// db returns the handle queries run against: the bound transaction when one
// is active, the database otherwise.
func (s *Store) db() dbtx {
	if s.tx != nil {
		return s.tx
	}
	return s.sqlDB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store and applies embedded migrations. The path
// ":memory:" selects an in-memory database, used by tests.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path)
	}
	dsn += "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// The kernel serializes access per session; a single connection keeps
	// the in-memory database coherent as well.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle. Close is nil-safe so callers can defer it
// in all startup paths.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// WithTx runs fn against a store clone bound to one transaction. Nested
// calls reuse the enclosing transaction; only the outermost commits.
func (s *Store) WithTx(ctx context.Context, fn func(storage.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	cloned := *s
	cloned.tx = tx
	if err := fn(&cloned); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// withTx runs fn inside the bound transaction, or a fresh one when the store
// is not transaction-bound, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx dbtx) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
