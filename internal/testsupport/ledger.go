package testsupport

import (
	"path/filepath"
	"testing"

	"triage/internal/ledger"
)

// NewLedger opens a run ledger in a temporary directory and closes it when the
// test finishes.
func NewLedger(t *testing.T) *ledger.Store {
	t.Helper()
	store, err := ledger.OpenPath(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close ledger: %v", err)
		}
	})
	return store
}
