package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTestConfig lays out an isolated config with all directories under the
// test's temp dir and returns the config file path.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	content := fmt.Sprintf(`[paths]
base_dir = %q
log_dir = %q
ledger_dir = %q

[engine]
workers = 2
max_attempts = 5
parallel = false
strict = false

[logging]
level = "error"
format = "console"
`,
		filepath.Join(root, "storage"),
		filepath.Join(root, "logs"),
		filepath.Join(root, "ledger"),
	)
	path := filepath.Join(root, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunExecutesFullPipeline(t *testing.T) {
	cfgPath := writeTestConfig(t)

	source := t.TempDir()
	for _, name := range []string{"clip.mp4", "frame.jpg"} {
		if err := os.WriteFile(filepath.Join(source, name), []byte("payload-"+name), 0o644); err != nil {
			t.Fatalf("write media file: %v", err)
		}
	}

	runFile := writeRunFile(t, fmt.Sprintf(`
select:
  name: local
  module: localdir
  config:
    source_dir: %q
analyse:
  - name: copy
    module: passthrough
`, source))

	out, err := execute(t, "--config", cfgPath, "run", runFile)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	if !strings.Contains(out, "local -> local: 2 succeeded") {
		t.Fatalf("expected select summary in output:\n%s", out)
	}
	if !strings.Contains(out, "copy -> local/copy: 2 succeeded") {
		t.Fatalf("expected analyse summary in output:\n%s", out)
	}

	showOut, err := execute(t, "--config", cfgPath, "show", "local/copy", "--json")
	if err != nil {
		t.Fatalf("show: %v\n%s", err, showOut)
	}
	var view showView
	if err := json.Unmarshal([]byte(showOut), &view); err != nil {
		t.Fatalf("parse show output: %v\n%s", err, showOut)
	}
	if len(view.Elements) != 2 {
		t.Fatalf("expected 2 analysed elements, got %+v", view.Elements)
	}
	if view.Meta == nil || view.Meta.Stage.Module != "analyser" {
		t.Fatalf("expected analyser completion metadata, got %+v", view.Meta)
	}

	runsOut, err := execute(t, "--config", cfgPath, "runs", "--json")
	if err != nil {
		t.Fatalf("runs: %v\n%s", err, runsOut)
	}
	var runs []runView
	if err := json.Unmarshal([]byte(runsOut), &runs); err != nil {
		t.Fatalf("parse runs output: %v\n%s", err, runsOut)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 recorded runs, got %d", len(runs))
	}
	for _, run := range runs {
		if run.Errored {
			t.Fatalf("no run should be errored: %+v", run)
		}
	}
}

func TestRunChainsAnalyserInputsFromPreviousStage(t *testing.T) {
	cfgPath := writeTestConfig(t)

	source := t.TempDir()
	if err := os.WriteFile(filepath.Join(source, "clip.mp4"), []byte("payload"), 0o644); err != nil {
		t.Fatalf("write media file: %v", err)
	}

	runFile := writeRunFile(t, fmt.Sprintf(`
select:
  name: local
  module: localdir
  config:
    source_dir: %q
analyse:
  - name: first
    module: passthrough
  - name: second
    module: passthrough
`, source))

	out, err := execute(t, "--config", cfgPath, "run", runFile)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	// Derived elements stay under their originating selector, so the second
	// analyser reads local/first and writes local/second.
	if !strings.Contains(out, "second -> local/second: 1 succeeded") {
		t.Fatalf("expected chained destination in output:\n%s", out)
	}
}

func TestRunUnknownModuleFails(t *testing.T) {
	cfgPath := writeTestConfig(t)
	runFile := writeRunFile(t, `
analyse:
  - name: mystery
    elements_in: [local]
`)

	out, err := execute(t, "--config", cfgPath, "run", runFile)
	if err == nil {
		t.Fatalf("expected failure for unknown module:\n%s", out)
	}
	if !strings.Contains(err.Error(), "unknown analyser") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := execute(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v\n%s", err, out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}

	// Second init without --overwrite must refuse.
	if _, err := execute(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}

	showOut, err := execute(t, "--config", writeTestConfig(t), "config", "show")
	if err != nil {
		t.Fatalf("config show: %v\n%s", err, showOut)
	}
	if !strings.Contains(showOut, "[paths]") || !strings.Contains(showOut, "max_attempts") {
		t.Fatalf("expected rendered TOML config:\n%s", showOut)
	}
}

func TestShowRejectsInvalidQuery(t *testing.T) {
	cfgPath := writeTestConfig(t)

	if _, err := execute(t, "--config", cfgPath, "show", "a//b"); err == nil {
		t.Fatal("expected invalid query to be rejected")
	}
}
