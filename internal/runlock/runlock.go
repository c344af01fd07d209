// Package runlock serializes pipeline runs against a storage base directory.
// Two concurrent runs writing the same base directory would interleave their
// element trees, so the CLI takes a file lock before executing any stage.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrHeld reports that another process holds the run lock.
var ErrHeld = errors.New("another pipeline run is already using this storage directory")

// Lock guards one storage base directory.
type Lock struct {
	path string
	lock *flock.Flock
}

// New prepares a lock for the given base directory. The lock file lives next
// to the element tree so every process addressing the same storage sees it.
func New(baseDir string) (*Lock, error) {
	if baseDir == "" {
		return nil, errors.New("runlock: empty base directory")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}
	path := filepath.Join(baseDir, ".triage.lock")
	return &Lock{path: path, lock: flock.New(path)}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Acquire takes the lock without blocking. It returns ErrHeld when another
// run owns the directory.
func (l *Lock) Acquire() error {
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return ErrHeld
	}
	return nil
}

// Release drops the lock. Safe to call when the lock was never acquired.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
