package ffbin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// StaleLockThreshold is the maximum age of a download lock before
	// it's considered abandoned by a dead process.
	StaleLockThreshold = 10 * time.Minute
)

// ErrLockHeld reports that another process is currently fetching the
// same platform key.
var ErrLockHeld = errors.New("download lock held: another fetch may be in progress")

// downloadLock is a best-effort cross-process guard against redundant
// downloads of the same platform key. It is purely an optimization: the
// atomic rename in Store.Materialize is what keeps the cache consistent,
// so a fetch that proceeds without the lock is still safe, merely
// wasteful.
type downloadLock struct {
	path string
	file *os.File
}

// acquireDownloadLock attempts to create the lock file for a key under
// dir using O_CREATE|O_EXCL. A lock older than StaleLockThreshold is
// reaped and taken over.
func acquireDownloadLock(dir, key string) (*downloadLock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lockPath := filepath.Join(dir, "."+key+".lock")

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		if os.IsExist(err) {
			// Lock exists - check if it's stale
			if isStale, _ := isLockStale(lockPath); isStale {
				os.Remove(lockPath)
				file, err = os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
				if err != nil {
					return nil, ErrLockHeld
				}
			} else {
				return nil, ErrLockHeld
			}
		} else {
			return nil, fmt.Errorf("create lock file: %w", err)
		}
	}

	// Write lock metadata (PID and timestamp)
	lockData := fmt.Sprintf("pid=%d\ntimestamp=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if _, err := file.WriteString(lockData); err != nil {
		file.Close()
		os.Remove(lockPath)
		return nil, fmt.Errorf("write lock data: %w", err)
	}

	return &downloadLock{path: lockPath, file: file}, nil
}

// release releases the lock.
func (l *downloadLock) release() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	if l.path != "" {
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove lock file: %w", err)
		}
	}

	return nil
}

// waitForLockRelease polls until the lock file disappears or the wait
// budget runs out. Returns true if the lock was released.
func waitForLockRelease(dir, key string, budget time.Duration) bool {
	lockPath := filepath.Join(dir, "."+key+".lock")
	deadline := time.Now().Add(budget)

	for time.Now().Before(deadline) {
		if _, err := os.Stat(lockPath); os.IsNotExist(err) {
			return true
		}
		time.Sleep(200 * time.Millisecond)
	}
	return false
}

// isLockStale checks if a lock file is older than the stale lock threshold.
func isLockStale(lockPath string) (bool, error) {
	info, err := os.Stat(lockPath)
	if err != nil {
		return false, err
	}

	age := time.Since(info.ModTime())
	return age > StaleLockThreshold, nil
}
