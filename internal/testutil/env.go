// Package testutil provides utilities for testing ffstatic in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestEnv points the cache root at a per-test temp directory so
// tests never touch the user's real cache or require network access to
// clean up after themselves.
//
// Cleanup is handled by t.TempDir and t.Setenv, so callers don't need
// to undo anything.
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	cacheDir := filepath.Join(tmpDir, "cache")

	t.Setenv("FFSTATIC_CACHE_DIR", cacheDir)

	if err := os.MkdirAll(cacheDir, 0o750); err != nil {
		t.Fatalf("failed to create test cache directory %s: %v", cacheDir, err)
	}

	return cacheDir
}
