// Package mcp parses MCP command flags and wires the session kernel.
package mcp

import (
	"context"
	"flag"
	"log"
	"time"

	mcpapp "github.com/arvenwood/loomfall/internal/app/mcp"
	"github.com/arvenwood/loomfall/internal/id"
	"github.com/arvenwood/loomfall/internal/kernel"
	"github.com/arvenwood/loomfall/internal/platform/config"
	"github.com/arvenwood/loomfall/internal/platform/otel"
	"github.com/arvenwood/loomfall/internal/simclock"
	"github.com/arvenwood/loomfall/internal/storage/sqlite"
)

// Config holds MCP command configuration.
type Config struct {
	DataDir   string `env:"RPG_DATA_DIR"            envDefault:"./rpg.db"`
	Seed      string `env:"LOOMFALL_SESSION_SEED"   envDefault:""`
	SessionID string `env:"LOOMFALL_SESSION_ID"     envDefault:""`
	Transport string `env:"LOOMFALL_MCP_TRANSPORT"  envDefault:"stdio"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.DataDir, "data", cfg.DataDir, "store path (:memory: for in-memory)")
	fs.StringVar(&cfg.Seed, "seed", cfg.Seed, "session seed (random when empty)")
	fs.StringVar(&cfg.SessionID, "session", cfg.SessionID, "session id (random when empty)")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "transport type: stdio")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP protocol adapter around a fresh session kernel.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "mcp")
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	seed := cfg.Seed
	if seed == "" {
		if seed, err = id.New(); err != nil {
			return err
		}
	}
	sessionID := cfg.SessionID
	if sessionID == "" {
		if sessionID, err = id.New(); err != nil {
			return err
		}
	}

	store, err := sqlite.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	k := kernel.New(sessionID, seed, store, simclock.New())
	log.Printf("session %s serving on %s (store %s)", sessionID, cfg.Transport, cfg.DataDir)
	return mcpapp.Run(ctx, k)
}
