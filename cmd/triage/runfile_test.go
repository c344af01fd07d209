package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"triage/internal/faults"
)

func writeRunFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write run file: %v", err)
	}
	return path
}

func TestLoadRunFileFullPipeline(t *testing.T) {
	path := writeRunFile(t, `
select:
  name: local
  module: localdir
  config:
    source_dir: /media/evidence
analyse:
  - name: copy
    module: passthrough
`)

	rf, err := loadRunFile(path)
	if err != nil {
		t.Fatalf("loadRunFile: %v", err)
	}
	if rf.Select == nil || rf.Select.Name != "local" || rf.Select.moduleName() != "localdir" {
		t.Fatalf("unexpected select stage %+v", rf.Select)
	}
	if len(rf.Analyse) != 1 || rf.Analyse[0].moduleName() != "passthrough" {
		t.Fatalf("unexpected analyse stages %+v", rf.Analyse)
	}
	if got := rf.Select.stageConfig().StringOption("source_dir"); got != "/media/evidence" {
		t.Fatalf("unexpected source_dir %q", got)
	}
}

func TestLoadRunFileModuleDefaultsToName(t *testing.T) {
	path := writeRunFile(t, `
analyse:
  - name: passthrough
    elements_in: [local]
`)

	rf, err := loadRunFile(path)
	if err != nil {
		t.Fatalf("loadRunFile: %v", err)
	}
	if rf.Analyse[0].moduleName() != "passthrough" {
		t.Fatalf("module should default to name, got %q", rf.Analyse[0].moduleName())
	}
	cfg := rf.Analyse[0].stageConfig()
	if len(cfg.ElementsIn) != 1 || cfg.ElementsIn[0] != "local" {
		t.Fatalf("unexpected elements_in %+v", cfg.ElementsIn)
	}
}

func TestLoadRunFileRejectsEmptyAndNameless(t *testing.T) {
	cases := map[string]string{
		"no stages":       `{}`,
		"nameless select": "select:\n  module: localdir\n",
		"nameless analyse": `
analyse:
  - module: passthrough
    elements_in: [local]
`,
		"analyse without inputs or select": `
analyse:
  - name: passthrough
`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeRunFile(t, content)
			if _, err := loadRunFile(path); !errors.Is(err, faults.ErrConfig) {
				t.Fatalf("expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestLoadRunFileMissingFile(t *testing.T) {
	if _, err := loadRunFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
