package runlock_test

import (
	"errors"
	"path/filepath"
	"testing"

	"triage/internal/runlock"
)

func TestAcquireAndRelease(t *testing.T) {
	base := t.TempDir()

	lock, err := runlock.New(base)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := lock.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	// Reacquirable after release.
	if err := lock.Acquire(); err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("release again: %v", err)
	}
}

func TestSecondHolderIsRejected(t *testing.T) {
	base := t.TempDir()

	first, err := runlock.New(base)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := first.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer func() { _ = first.Release() }()

	second, err := runlock.New(base)
	if err != nil {
		t.Fatalf("New second: %v", err)
	}
	if err := second.Acquire(); !errors.Is(err, runlock.ErrHeld) {
		t.Fatalf("expected ErrHeld, got %v", err)
	}
}

func TestNewCreatesBaseDirectory(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "storage")

	lock, err := runlock.New(base)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := lock.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer func() { _ = lock.Release() }()

	if got, want := lock.Path(), filepath.Join(base, ".triage.lock"); got != want {
		t.Fatalf("lock path %q, want %q", got, want)
	}
}

func TestReleaseWithoutAcquire(t *testing.T) {
	lock, err := runlock.New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release without acquire: %v", err)
	}
}
