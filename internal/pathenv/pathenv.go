// Package pathenv manages the process PATH so that the cached FFmpeg
// executables become resolvable by name.
//
// Add is idempotent: the cache directory is never inserted twice.
// Remove restores the exact PATH value seen before the addition.
package pathenv

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/ZebulonRouseFrantzich/ffstatic/internal/ffbin"
	"github.com/ZebulonRouseFrantzich/ffstatic/internal/platform"
)

var (
	mu sync.Mutex
	// previousPath holds the PATH value from before the last effective
	// AddToPath, for exact restoration.
	previousPath string
	addedDir     string

	// resolve is the path resolution hook, replaced in tests.
	resolve = ffbin.GetFFmpeg
)

// AddToPath prepends the cache directory holding the resolved ffmpeg and
// ffprobe executables to the process PATH, downloading them first if
// needed. The call is idempotent: a directory already on PATH is not
// inserted again.
//
// In weak mode the call is a no-op when an ffmpeg executable is already
// resolvable on the existing PATH.
func AddToPath(ctx context.Context, weak bool) error {
	mu.Lock()
	defer mu.Unlock()

	if weak {
		if _, err := exec.LookPath("ffmpeg"); err == nil {
			return nil
		}
	}

	paths, err := resolve(ctx)
	if err != nil {
		return fmt.Errorf("resolve ffmpeg: %w", err)
	}

	binDir := filepath.Dir(paths.FFmpeg)
	current := os.Getenv("PATH")
	if containsDir(current, binDir) {
		return nil
	}

	if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+current); err != nil {
		return fmt.Errorf("set PATH: %w", err)
	}

	previousPath = current
	addedDir = binDir
	return nil
}

// RemoveFromPath undoes a previous AddToPath, restoring the exact PATH
// value seen before the addition. When nothing was added in this
// process it strips any occurrence of the current platform's cache
// directory instead, and is a no-op if none is present.
func RemoveFromPath() error {
	mu.Lock()
	defer mu.Unlock()

	if addedDir != "" {
		if err := os.Setenv("PATH", previousPath); err != nil {
			return fmt.Errorf("restore PATH: %w", err)
		}
		previousPath = ""
		addedDir = ""
		return nil
	}

	binDir, err := cacheBinDir()
	if err != nil {
		return err
	}

	current := os.Getenv("PATH")
	stripped := stripDir(current, binDir)
	if stripped == current {
		return nil
	}

	if err := os.Setenv("PATH", stripped); err != nil {
		return fmt.Errorf("restore PATH: %w", err)
	}
	return nil
}

// cacheBinDir computes the cache entry directory for the current
// platform. Pure path construction, no network or cache population.
func cacheBinDir() (string, error) {
	key, err := platform.KeyFor(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return "", err
	}

	root, err := ffbin.DefaultCacheRoot()
	if err != nil {
		return "", err
	}

	dir, err := filepath.Abs(ffbin.NewStore(root).EntryPath(key))
	if err != nil {
		return "", fmt.Errorf("resolve cache dir: %w", err)
	}
	return dir, nil
}

// containsDir reports whether dir is one of the PATH list entries.
func containsDir(pathList, dir string) bool {
	for _, entry := range filepath.SplitList(pathList) {
		if entry == dir {
			return true
		}
	}
	return false
}

// stripDir removes every occurrence of dir from the PATH list.
func stripDir(pathList, dir string) string {
	entries := filepath.SplitList(pathList)
	kept := entries[:0]
	for _, entry := range entries {
		if entry != dir {
			kept = append(kept, entry)
		}
	}
	return strings.Join(kept, string(os.PathListSeparator))
}
