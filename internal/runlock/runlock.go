// Package runlock enforces the at-most-one-concurrent-run invariant with an
// advisory file lock keyed on the repository root. Two pipeline runs racing
// on the same repository would otherwise fight over the single draft release
// and the default branch tip.
package runlock

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is the lock file created inside the repository root.
const LockFileName = ".releasekit.lock"

// ErrLocked is returned when another run already holds the repository lock.
var ErrLocked = errors.New("another release run holds the repository lock")

// Lock is a held advisory lock on one repository.
type Lock struct {
	fl *flock.Flock
}

// Acquire takes the advisory lock for the repository rooted at repoRoot.
// It does not block: if the lock is already held, ErrLocked is returned so
// the second run fails fast before touching any remote state.
func Acquire(repoRoot string) (*Lock, error) {
	fl := flock.New(filepath.Join(repoRoot, LockFileName))

	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire repository lock: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}
	return &Lock{fl: fl}, nil
}

// Release drops the lock. The lock file itself is left behind; only the
// advisory lock is released.
func (l *Lock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("failed to release repository lock: %w", err)
	}
	return nil
}
