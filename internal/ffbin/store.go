package ffbin

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"

	"github.com/ZebulonRouseFrantzich/ffstatic/internal/platform"
)

// CacheDirEnv overrides the cache root location when set.
const CacheDirEnv = "FFSTATIC_CACHE_DIR"

// stampName is the provenance stamp file written into each cache entry.
const stampName = "source.json"

// DefaultCacheRoot returns the cache root directory: the CacheDirEnv
// override when set, otherwise a "ffstatic" directory under the user
// cache directory.
func DefaultCacheRoot() (string, error) {
	if dir := os.Getenv(CacheDirEnv); dir != "" {
		return dir, nil
	}

	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve user cache dir: %w", err)
	}
	return filepath.Join(base, "ffstatic"), nil
}

// Store manages the on-disk cache of extracted FFmpeg executables, one
// directory per platform key under a configurable root. An entry is
// either fully valid or treated as absent; Materialize stages files in a
// private directory and publishes them with a single rename so a crash
// or a racing writer can never expose a partial entry.
type Store struct {
	root string
}

// NewStore creates a store rooted at the given directory. The root is
// created lazily on first materialize.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the cache root directory.
func (s *Store) Root() string {
	return s.root
}

// EntryPath returns the cache directory for a platform key.
// Deterministic path construction only, no I/O.
func (s *Store) EntryPath(key platform.Key) string {
	return filepath.Join(s.root, key.String())
}

// BinaryPath returns the path a logical binary has inside the cache
// entry for a key. Path construction only; the file may not exist yet.
func (s *Store) BinaryPath(key platform.Key, logical string) string {
	return filepath.Join(s.EntryPath(key), executableName(key, logical))
}

// IsValid reports whether the cache entry for a key holds both
// executables ready to run. Empty directories, partial extractions, and
// stray files where the entry directory belongs all count as invalid.
func (s *Store) IsValid(key platform.Key) bool {
	entry, err := os.Stat(s.EntryPath(key))
	if err != nil || !entry.IsDir() {
		return false
	}

	for _, logical := range []string{BinFFmpeg, BinFFprobe} {
		if !executableReady(s.BinaryPath(key, logical), key.OS == platform.OSWindows) {
			return false
		}
	}
	return true
}

// executableReady checks that path is a non-empty regular file that the
// platform will execute: on Windows the .exe name is enough, elsewhere
// the executable bit must be set.
func executableReady(path string, windows bool) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
		return false
	}
	if windows {
		return filepath.Ext(path) == ".exe"
	}
	return info.Mode().Perm()&0111 != 0
}

// Materialize atomically publishes freshly extracted executables as the
// cache entry for a key. files maps logical binary names to the staged
// source paths. The files are copied into a temporary directory under
// the cache root, marked executable, and renamed into place in a single
// filesystem operation; when writers race, the last rename wins and
// every intermediate state is either a fully valid entry or none.
func (s *Store) Materialize(key platform.Key, files map[string]string) error {
	entryPath := s.EntryPath(key)

	if err := os.MkdirAll(s.root, 0755); err != nil {
		return &CacheError{Path: s.root, Err: err}
	}

	// Stage in a sibling of the final entry so the rename stays on one
	// filesystem.
	staging, err := os.MkdirTemp(s.root, "."+key.String()+"-")
	if err != nil {
		return &CacheError{Path: s.root, Err: err}
	}
	defer os.RemoveAll(staging)

	for logical, srcPath := range files {
		destPath := filepath.Join(staging, executableName(key, logical))
		if err := copyFile(srcPath, destPath); err != nil {
			return &CacheError{Path: destPath, Err: err}
		}
		if err := SetExecutable(destPath); err != nil {
			return &CacheError{Path: destPath, Err: err}
		}
	}

	if err := os.Rename(staging, entryPath); err != nil {
		// A previous entry, a corrupt leftover, or a racing writer
		// occupies the path. Last writer wins: replace it.
		if err := os.RemoveAll(entryPath); err != nil {
			return &CacheError{Path: entryPath, Err: err}
		}
		if err := os.Rename(staging, entryPath); err != nil {
			return &CacheError{Path: entryPath, Err: err}
		}
	}

	return nil
}

// Stamp records where a cache entry came from. Written after
// materialize for diagnostics; never consulted when validating entries.
type Stamp struct {
	Key       string    `json:"key"`
	URLs      []string  `json:"urls"`
	FetchedAt time.Time `json:"fetched_at"`
}

// WriteStamp atomically writes the provenance stamp into an existing
// cache entry.
func (s *Store) WriteStamp(key platform.Key, stamp Stamp) error {
	data, err := json.MarshalIndent(stamp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode stamp: %w", err)
	}

	path := filepath.Join(s.EntryPath(key), stampName)
	if err := renameio.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return &CacheError{Path: path, Err: err}
	}
	return nil
}

// ReadStamp reads the provenance stamp of a cache entry, if present.
func (s *Store) ReadStamp(key platform.Key) (*Stamp, error) {
	path := filepath.Join(s.EntryPath(key), stampName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var stamp Stamp
	if err := json.Unmarshal(data, &stamp); err != nil {
		return nil, fmt.Errorf("decode stamp %s: %w", path, err)
	}
	return &stamp, nil
}

// ClearKey deletes the cache entry for one platform key. Clearing an
// absent entry succeeds silently.
func (s *Store) ClearKey(key platform.Key) error {
	entryPath := s.EntryPath(key)
	if err := os.RemoveAll(entryPath); err != nil {
		return &CacheError{Path: entryPath, Err: err}
	}
	return nil
}

// ClearAll deletes the entire cache root. Clearing an absent or empty
// cache succeeds silently.
func (s *Store) ClearAll() error {
	if err := os.RemoveAll(s.root); err != nil {
		return &CacheError{Path: s.root, Err: err}
	}
	return nil
}

// copyFile copies src to dest, truncating any existing file.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return fmt.Errorf("create dest: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy contents: %w", err)
	}

	return out.Close()
}
