package mcp

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Transport != "stdio" {
		t.Fatalf("expected default transport stdio, got %q", cfg.Transport)
	}
}

func TestParseConfigFlagOverrides(t *testing.T) {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-data", ":memory:", "-seed", "fixed", "-session", "s1"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DataDir != ":memory:" || cfg.Seed != "fixed" || cfg.SessionID != "s1" {
		t.Fatalf("flag overrides not applied: %+v", cfg)
	}
}

func TestParseConfigEnv(t *testing.T) {
	t.Setenv("RPG_DATA_DIR", "/tmp/worlds.db")
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DataDir != "/tmp/worlds.db" {
		t.Fatalf("expected env data dir, got %q", cfg.DataDir)
	}
}
