package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"triage/internal/config"
)

func TestLoadDefaultsExpandPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("TRIAGE_BASE_DIR", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantBase := filepath.Join(tempHome, ".local", "share", "triage", "storage")
	if cfg.Paths.BaseDir != wantBase {
		t.Fatalf("unexpected base dir: got %q want %q", cfg.Paths.BaseDir, wantBase)
	}
	if cfg.Engine.MaxAttempts != 5 {
		t.Fatalf("unexpected max attempts: %d", cfg.Engine.MaxAttempts)
	}
	if !cfg.Engine.Parallel {
		t.Fatal("expected parallel dispatch by default")
	}
	if cfg.Engine.Strict {
		t.Fatal("expected strict mode off by default")
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.BaseDir, cfg.Paths.LogDir, cfg.Paths.LedgerDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be a directory", dir)
		}
	}
}

func TestLoadCustomFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "triage.toml")
	body := `
[paths]
base_dir = "` + filepath.Join(tempDir, "store") + `"

[engine]
workers = 3
max_attempts = 2
parallel = false
strict = true

[logging]
level = "debug"
format = "json"
`
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TRIAGE_BASE_DIR", "")

	cfg, _, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Engine.Workers != 3 || cfg.Engine.MaxAttempts != 2 {
		t.Fatalf("unexpected engine config: %+v", cfg.Engine)
	}
	if cfg.Engine.Parallel || !cfg.Engine.Strict {
		t.Fatalf("unexpected engine modes: %+v", cfg.Engine)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestEnvOverridesBaseDir(t *testing.T) {
	override := filepath.Join(t.TempDir(), "elsewhere")
	t.Setenv("TRIAGE_BASE_DIR", override)

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.BaseDir != override {
		t.Fatalf("expected env override, got %q", cfg.Paths.BaseDir)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{name: "empty base dir", mutate: func(c *config.Config) { c.Paths.BaseDir = "" }},
		{name: "negative workers", mutate: func(c *config.Config) { c.Engine.Workers = -1 }},
		{name: "zero attempts", mutate: func(c *config.Config) { c.Engine.MaxAttempts = 0 }},
		{name: "bad format", mutate: func(c *config.Config) { c.Logging.Format = "xml" }},
		{name: "bad level", mutate: func(c *config.Config) { c.Logging.Level = "loud" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestWriteSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	t.Setenv("TRIAGE_BASE_DIR", "")
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("sample config should load: exists=%v err=%v", exists, err)
	}
}
