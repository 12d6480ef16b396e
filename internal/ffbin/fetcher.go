// Package ffbin resolves, downloads, and caches static FFmpeg and
// FFprobe builds for the running platform.
//
// The fast path is a pure filesystem check: once a platform's cache
// entry is valid, no network access happens. On a miss the fetcher
// downloads the platform's archives, extracts the executables, and
// publishes them into the cache with a single atomic rename, so
// concurrent fetchers and abrupt termination can never leave a
// partially populated entry behind.
package ffbin

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	xflog "github.com/ZebulonRouseFrantzich/ffstatic/internal/log"
	"github.com/ZebulonRouseFrantzich/ffstatic/internal/platform"
)

// DefaultLockWait bounds how long a fetch waits for another process
// holding the download lock before fetching redundantly.
const DefaultLockWait = 2 * time.Minute

// ResolvedPaths holds the absolute paths to the cached executables.
// Recomputed from the cache entry location on every resolution.
type ResolvedPaths struct {
	FFmpeg  string
	FFprobe string
}

// Config holds configuration for the fetcher.
type Config struct {
	// CacheRoot is the cache root directory (required).
	CacheRoot string
	// Detector overrides platform detection (defaults to the real one).
	Detector platform.Detector
	// Client overrides the HTTP client (used by tests).
	Client *http.Client
	// Lookup overrides the source catalog (used by tests).
	Lookup func(platform.Key) ([]SourceDescriptor, error)
	// LockWait bounds the wait on another process's download lock.
	LockWait time.Duration
}

// Fetcher orchestrates cache check, download, extraction, and
// materialization. Within one process at most one download per platform
// key is in flight at a time; concurrent callers share its result.
type Fetcher struct {
	store      *Store
	detector   platform.Detector
	downloader *Downloader
	extractor  *Extractor
	lookup     func(platform.Key) ([]SourceDescriptor, error)
	lockWait   time.Duration
	group      singleflight.Group
	logger     zerolog.Logger
}

// NewFetcher creates a fetcher.
func NewFetcher(config Config) (*Fetcher, error) {
	if config.CacheRoot == "" {
		return nil, fmt.Errorf("CacheRoot is required")
	}

	detector := config.Detector
	if detector == nil {
		detector = platform.NewDetector()
	}

	downloader := NewDownloader()
	if config.Client != nil {
		downloader = NewDownloaderWithClient(config.Client)
	}

	lookup := config.Lookup
	if lookup == nil {
		lookup = Lookup
	}

	lockWait := config.LockWait
	if lockWait == 0 {
		lockWait = DefaultLockWait
	}

	return &Fetcher{
		store:      NewStore(config.CacheRoot),
		detector:   detector,
		downloader: downloader,
		extractor:  NewExtractor(),
		lookup:     lookup,
		lockWait:   lockWait,
		logger:     xflog.WithComponent("fetcher"),
	}, nil
}

// Store exposes the underlying cache store.
func (f *Fetcher) Store() *Store {
	return f.store
}

// GetFFmpeg returns the absolute paths to the ffmpeg and ffprobe
// executables for the current platform, downloading and caching them
// first if needed.
func (f *Fetcher) GetFFmpeg(ctx context.Context) (ResolvedPaths, error) {
	info, err := f.detector.Detect(ctx)
	if err != nil {
		return ResolvedPaths{}, err
	}
	return f.GetFFmpegFor(ctx, info.Key)
}

// GetFFmpegFor resolves the executables for an explicit platform key.
func (f *Fetcher) GetFFmpegFor(ctx context.Context, key platform.Key) (ResolvedPaths, error) {
	if !platform.Supported(key) {
		return ResolvedPaths{}, &platform.UnsupportedError{OS: key.OS, Arch: key.Arch}
	}

	// Fast path: valid cache entry, no network access.
	if f.store.IsValid(key) {
		f.logger.Debug().Str("key", key.String()).Msg("cache hit")
		return f.resolvedPaths(key)
	}

	// Collapse concurrent misses for the same key onto one download.
	_, err, _ := f.group.Do(key.String(), func() (interface{}, error) {
		return nil, f.fetch(ctx, key)
	})
	if err != nil {
		return ResolvedPaths{}, err
	}

	return f.resolvedPaths(key)
}

// fetch populates the cache entry for a key. It re-checks validity
// first: a concurrent caller or another process may have finished while
// this one queued.
func (f *Fetcher) fetch(ctx context.Context, key platform.Key) error {
	if f.store.IsValid(key) {
		return nil
	}

	// Best effort cross-process dedup. If another process holds the
	// lock, wait for it and take its result; fall through to a
	// redundant isolated fetch if it does not finish in time.
	// Materialize's atomic rename keeps either outcome safe.
	lock, err := acquireDownloadLock(f.store.Root(), key.String())
	switch {
	case err == nil:
		defer func() {
			if err := lock.release(); err != nil {
				f.logger.Warn().Err(err).Msg("release download lock")
			}
		}()
	case err == ErrLockHeld:
		f.logger.Debug().Str("key", key.String()).Msg("waiting for concurrent fetch")
		if waitForLockRelease(f.store.Root(), key.String(), f.lockWait) && f.store.IsValid(key) {
			return nil
		}
	default:
		f.logger.Warn().Err(err).Msg("download lock unavailable, fetching anyway")
	}

	descriptors, err := f.lookup(key)
	if err != nil {
		return err
	}

	// Scratch space for archives and extractions, removed on every
	// exit path.
	tmpDir, err := os.MkdirTemp("", "ffstatic-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	staged := make(map[string]string)
	urls := make([]string, 0, len(descriptors))

	for i, desc := range descriptors {
		urls = append(urls, desc.URL)
		archivePath := filepath.Join(tmpDir, fmt.Sprintf("archive-%d-%s", i, filepath.Base(desc.URL)))

		f.logger.Info().Str("key", key.String()).Str("url", desc.URL).Msg("downloading archive")
		start := time.Now()
		if err := f.downloader.DownloadToFile(ctx, desc.URL, archivePath); err != nil {
			return err
		}
		f.logger.Info().Str("url", desc.URL).Dur("elapsed", time.Since(start)).Msg("download complete")

		extractDir := filepath.Join(tmpDir, fmt.Sprintf("extract-%d", i))
		found, err := f.extractor.ExtractExecutables(archivePath, desc.Format, extractDir, desc.Executables)
		if err != nil {
			return err
		}
		for logical, path := range found {
			staged[logical] = path
		}
	}

	for _, logical := range []string{BinFFmpeg, BinFFprobe} {
		if _, ok := staged[logical]; !ok {
			return fmt.Errorf("source catalog for %s yields no %s", key, logical)
		}
	}

	if err := f.store.Materialize(key, staged); err != nil {
		return err
	}

	// Advisory provenance only; the entry is already live.
	stamp := Stamp{Key: key.String(), URLs: urls, FetchedAt: time.Now().UTC()}
	if err := f.store.WriteStamp(key, stamp); err != nil {
		f.logger.Warn().Err(err).Msg("write provenance stamp")
	}

	f.logger.Info().Str("key", key.String()).Msg("cache entry materialized")
	return nil
}

// resolvedPaths builds absolute ResolvedPaths from the entry location.
func (f *Fetcher) resolvedPaths(key platform.Key) (ResolvedPaths, error) {
	ffmpegPath, err := filepath.Abs(f.store.BinaryPath(key, BinFFmpeg))
	if err != nil {
		return ResolvedPaths{}, fmt.Errorf("resolve ffmpeg path: %w", err)
	}
	ffprobePath, err := filepath.Abs(f.store.BinaryPath(key, BinFFprobe))
	if err != nil {
		return ResolvedPaths{}, fmt.Errorf("resolve ffprobe path: %w", err)
	}
	return ResolvedPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
}

// GetFFmpeg resolves the executables for the current platform using the
// default cache root. Convenience wrapper for callers that don't need a
// configured Fetcher.
func GetFFmpeg(ctx context.Context) (ResolvedPaths, error) {
	root, err := DefaultCacheRoot()
	if err != nil {
		return ResolvedPaths{}, err
	}

	fetcher, err := NewFetcher(Config{CacheRoot: root})
	if err != nil {
		return ResolvedPaths{}, err
	}
	return fetcher.GetFFmpeg(ctx)
}

// ClearCache removes the cache entry for one key, or the whole cache
// root when key is nil, using the default cache root. Idempotent.
func ClearCache(key *platform.Key) error {
	root, err := DefaultCacheRoot()
	if err != nil {
		return err
	}

	store := NewStore(root)
	if key != nil {
		return store.ClearKey(*key)
	}
	return store.ClearAll()
}
