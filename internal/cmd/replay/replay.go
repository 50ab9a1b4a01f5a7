// Package replay re-executes a recorded audit log against a fresh kernel.
package replay

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/arvenwood/loomfall/internal/audit"
	"github.com/arvenwood/loomfall/internal/kernel"
	"github.com/arvenwood/loomfall/internal/platform/config"
	"github.com/arvenwood/loomfall/internal/simclock"
	"github.com/arvenwood/loomfall/internal/storage"
	"github.com/arvenwood/loomfall/internal/storage/sqlite"
)

// Config holds replay command configuration.
type Config struct {
	SourcePath string `env:"RPG_DATA_DIR" envDefault:"./rpg.db"`
	TargetPath string `env:"LOOMFALL_REPLAY_TARGET" envDefault:":memory:"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.SourcePath, "source", cfg.SourcePath, "store holding the audit log")
	fs.StringVar(&cfg.TargetPath, "target", cfg.TargetPath, "store to rebuild into")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run replays the source store's audit log into a fresh kernel over the
// target store and reports the outcome.
//
// The recorded session id and seed come from the first audit entry; a log
// replayed with the same seed reproduces every roll, id and timestamp.
func Run(ctx context.Context, cfg Config) error {
	source, err := sqlite.Open(cfg.SourcePath)
	if err != nil {
		return fmt.Errorf("open source store: %w", err)
	}
	defer source.Close()

	first, err := source.ListAuditEntries(ctx, 0, 1)
	if err != nil {
		return fmt.Errorf("read audit log: %w", err)
	}
	if len(first) == 0 {
		return fmt.Errorf("audit log is empty")
	}
	sessionID, seed := first[0].SessionID, first[0].Seed
	if seed == "" {
		return fmt.Errorf("audit log records no seed; cannot replay deterministically")
	}

	target, err := sqlite.Open(cfg.TargetPath)
	if err != nil {
		return fmt.Errorf("open target store: %w", err)
	}
	defer target.Close()

	k := kernel.New(sessionID, seed, target, simclock.New())
	summary, err := audit.Replay(ctx, readOnlyAudit{source}, k.Handlers())
	if err != nil {
		return err
	}
	log.Printf("replayed %d, skipped %d, failed %d", summary.Replayed, summary.Skipped, summary.Failed)
	return nil
}

// readOnlyAudit narrows the source store so replay can only read the log.
type readOnlyAudit struct {
	store storage.AuditStore
}

func (r readOnlyAudit) AppendAuditEntry(ctx context.Context, entry storage.AuditEntry) (uint64, error) {
	return 0, fmt.Errorf("replay source is read-only")
}

func (r readOnlyAudit) ListAuditEntries(ctx context.Context, afterSeq uint64, limit int) ([]storage.AuditEntry, error) {
	return r.store.ListAuditEntries(ctx, afterSeq, limit)
}
