package testsupport

import (
	"path/filepath"
	"testing"

	"triage/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults to serial, non-strict execution so tests stay deterministic.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.BaseDir = filepath.Join(base, "storage")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.LedgerDir = filepath.Join(base, "ledger")
	cfg.Engine.Parallel = false

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure test directories: %v", err)
	}
	return &cfg
}

// WithParallel enables pooled dispatch on the test config.
func WithParallel() ConfigOption {
	return func(c *config.Config) {
		c.Engine.Parallel = true
	}
}

// WithStrict enables strict run mode on the test config.
func WithStrict() ConfigOption {
	return func(c *config.Config) {
		c.Engine.Strict = true
	}
}

// WithMaxAttempts overrides the per-element attempt budget.
func WithMaxAttempts(n int) ConfigOption {
	return func(c *config.Config) {
		c.Engine.MaxAttempts = n
	}
}
