// ABOUTME: Cross-process lock on a document cache directory
// ABOUTME: Serializes builders of the same document using gofrs/flock
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// LockFileName is the lock file created inside each cache directory
const LockFileName = ".lock"

const lockRetryDelay = 50 * time.Millisecond

// FileLock provides cross-process file locking
type FileLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewFileLock creates a new file lock for the given directory
func NewFileLock(dir string) *FileLock {
	lockPath := filepath.Join(dir, LockFileName)
	return &FileLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// Lock acquires an exclusive lock, polling until ctx is done
func (l *FileLock) Lock(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("failed to acquire lock on %s", l.path)
	}

	l.locked = true
	return nil
}

// Unlock releases the file lock. Safe to call when not locked.
func (l *FileLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Path returns the path to the lock file
func (l *FileLock) Path() string {
	return l.path
}
