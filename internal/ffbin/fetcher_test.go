package ffbin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ZebulonRouseFrantzich/ffstatic/internal/platform"
)

var macosARM64 = platform.Key{OS: platform.OSMacOS, Arch: platform.ArchARM64}

// stubDetector always reports a fixed platform key.
type stubDetector struct {
	key platform.Key
}

func (d *stubDetector) Detect(ctx context.Context) (*platform.Info, error) {
	return &platform.Info{Key: d.key}, nil
}

// archiveServer serves pre-built archive bodies by URL path and counts
// requests.
type archiveServer struct {
	*httptest.Server
	requests atomic.Int64
}

func newArchiveServer(t *testing.T, bodies map[string][]byte) *archiveServer {
	t.Helper()

	srv := &archiveServer{}
	srv.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srv.requests.Add(1)
		body, ok := bodies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if _, err := w.Write(body); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func readFileBytes(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}

// linuxTestFetcher builds a fetcher wired to a mock server that serves
// a synthetic linux static tarball.
func linuxTestFetcher(t *testing.T) (*Fetcher, *archiveServer) {
	t.Helper()

	tarball := readFileBytes(t, createTestTarXz(t, map[string]string{
		"ffmpeg-7.0.2-amd64-static/ffmpeg":  "fake ffmpeg binary",
		"ffmpeg-7.0.2-amd64-static/ffprobe": "fake ffprobe binary",
	}))
	server := newArchiveServer(t, map[string][]byte{
		"/ffmpeg-release-amd64-static.tar.xz": tarball,
	})

	lookup := func(key platform.Key) ([]SourceDescriptor, error) {
		if key != linuxAMD64 {
			return nil, &platform.UnsupportedError{OS: key.OS, Arch: key.Arch}
		}
		return []SourceDescriptor{{
			URL:    server.URL + "/ffmpeg-release-amd64-static.tar.xz",
			Format: FormatTarXz,
			Executables: map[string]string{
				BinFFmpeg:  "ffmpeg",
				BinFFprobe: "ffprobe",
			},
		}}, nil
	}

	fetcher, err := NewFetcher(Config{
		CacheRoot: t.TempDir(),
		Detector:  &stubDetector{key: linuxAMD64},
		Lookup:    lookup,
	})
	if err != nil {
		t.Fatalf("NewFetcher() error = %v", err)
	}
	return fetcher, server
}

func TestFetcherEndToEnd(t *testing.T) {
	fetcher, server := linuxTestFetcher(t)
	ctx := context.Background()

	paths, err := fetcher.GetFFmpeg(ctx)
	if err != nil {
		t.Fatalf("GetFFmpeg() error = %v", err)
	}

	if !strings.HasSuffix(paths.FFmpeg, filepath.Join("linux-x86_64", "ffmpeg")) {
		t.Errorf("FFmpeg path = %q, want .../linux-x86_64/ffmpeg", paths.FFmpeg)
	}
	if !strings.HasSuffix(paths.FFprobe, filepath.Join("linux-x86_64", "ffprobe")) {
		t.Errorf("FFprobe path = %q, want .../linux-x86_64/ffprobe", paths.FFprobe)
	}
	if !filepath.IsAbs(paths.FFmpeg) || !filepath.IsAbs(paths.FFprobe) {
		t.Error("resolved paths must be absolute")
	}

	for _, path := range []string{paths.FFmpeg, paths.FFprobe} {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat %s: %v", path, err)
		}
		if runtime.GOOS != "windows" && info.Mode().Perm()&0111 == 0 {
			t.Errorf("%s is not executable", path)
		}
	}

	if !fetcher.Store().IsValid(linuxAMD64) {
		t.Error("cache entry should be valid after a successful fetch")
	}

	stamp, err := fetcher.Store().ReadStamp(linuxAMD64)
	if err != nil {
		t.Fatalf("ReadStamp() error = %v", err)
	}
	if len(stamp.URLs) != 1 || !strings.Contains(stamp.URLs[0], "amd64-static.tar.xz") {
		t.Errorf("stamp URLs = %v", stamp.URLs)
	}

	if got := server.requests.Load(); got != 1 {
		t.Errorf("server saw %d requests, want 1", got)
	}
}

func TestFetcherSecondCallHitsCache(t *testing.T) {
	fetcher, server := linuxTestFetcher(t)
	ctx := context.Background()

	first, err := fetcher.GetFFmpeg(ctx)
	if err != nil {
		t.Fatalf("first GetFFmpeg() error = %v", err)
	}
	countAfterFirst := server.requests.Load()

	second, err := fetcher.GetFFmpeg(ctx)
	if err != nil {
		t.Fatalf("second GetFFmpeg() error = %v", err)
	}

	if first != second {
		t.Errorf("paths changed between calls: %v vs %v", first, second)
	}
	// Cache hit path performs zero network calls
	if got := server.requests.Load(); got != countAfterFirst {
		t.Errorf("second call made %d extra requests, want 0", got-countAfterFirst)
	}
}

func TestFetcherDownloadFailureLeavesCacheInvalid(t *testing.T) {
	server := newArchiveServer(t, nil) // every path 404s

	fetcher, err := NewFetcher(Config{
		CacheRoot: t.TempDir(),
		Detector:  &stubDetector{key: linuxAMD64},
		Lookup: func(key platform.Key) ([]SourceDescriptor, error) {
			return []SourceDescriptor{{
				URL:         server.URL + "/gone.tar.xz",
				Format:      FormatTarXz,
				Executables: map[string]string{BinFFmpeg: "ffmpeg", BinFFprobe: "ffprobe"},
			}}, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = fetcher.GetFFmpeg(context.Background())

	var dlErr *DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("expected DownloadError, got %T: %v", err, err)
	}
	if !strings.HasSuffix(dlErr.URL, "/gone.tar.xz") {
		t.Errorf("DownloadError.URL = %q", dlErr.URL)
	}
	if fetcher.Store().IsValid(linuxAMD64) {
		t.Error("failed download must not populate the cache")
	}
}

func TestFetcherClearForcesRedownload(t *testing.T) {
	fetcher, server := linuxTestFetcher(t)
	ctx := context.Background()

	if _, err := fetcher.GetFFmpeg(ctx); err != nil {
		t.Fatalf("GetFFmpeg() error = %v", err)
	}

	if err := fetcher.Store().ClearAll(); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}

	if _, err := fetcher.GetFFmpeg(ctx); err != nil {
		t.Fatalf("GetFFmpeg() after clear error = %v", err)
	}

	if got := server.requests.Load(); got != 2 {
		t.Errorf("server saw %d requests, want 2 (one per fetch)", got)
	}
}

func TestFetcherArchiveLayoutChange(t *testing.T) {
	// Upstream dropped ffprobe from the tarball
	tarball := readFileBytes(t, createTestTarXz(t, map[string]string{
		"ffmpeg-8.0-amd64-static/ffmpeg": "fake ffmpeg binary",
	}))
	server := newArchiveServer(t, map[string][]byte{"/release.tar.xz": tarball})

	fetcher, err := NewFetcher(Config{
		CacheRoot: t.TempDir(),
		Detector:  &stubDetector{key: linuxAMD64},
		Lookup: func(key platform.Key) ([]SourceDescriptor, error) {
			return []SourceDescriptor{{
				URL:         server.URL + "/release.tar.xz",
				Format:      FormatTarXz,
				Executables: map[string]string{BinFFmpeg: "ffmpeg", BinFFprobe: "ffprobe"},
			}}, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = fetcher.GetFFmpeg(context.Background())

	var layoutErr *ArchiveLayoutError
	if !errors.As(err, &layoutErr) {
		t.Fatalf("expected ArchiveLayoutError, got %T: %v", err, err)
	}
	if fetcher.Store().IsValid(linuxAMD64) {
		t.Error("layout failure must not populate the cache")
	}
}

func TestFetcherUnsupportedKey(t *testing.T) {
	fetcher, _ := linuxTestFetcher(t)

	_, err := fetcher.GetFFmpegFor(context.Background(), platform.Key{OS: platform.OSWindows, Arch: platform.ArchARM64})

	var unsupported *platform.UnsupportedError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedError, got %T: %v", err, err)
	}
}

func TestFetcherTwoArchivePlatform(t *testing.T) {
	// macOS publishes ffmpeg and ffprobe as independent zips
	ffmpegZip := readFileBytes(t, createTestZip(t, map[string]string{"ffmpeg": "mac ffmpeg"}))
	ffprobeZip := readFileBytes(t, createTestZip(t, map[string]string{"ffprobe": "mac ffprobe"}))
	server := newArchiveServer(t, map[string][]byte{
		"/ffmpeg.zip":  ffmpegZip,
		"/ffprobe.zip": ffprobeZip,
	})

	fetcher, err := NewFetcher(Config{
		CacheRoot: t.TempDir(),
		Detector:  &stubDetector{key: macosARM64},
		Lookup: func(key platform.Key) ([]SourceDescriptor, error) {
			return []SourceDescriptor{
				{URL: server.URL + "/ffmpeg.zip", Format: FormatZip, Executables: map[string]string{BinFFmpeg: "ffmpeg"}},
				{URL: server.URL + "/ffprobe.zip", Format: FormatZip, Executables: map[string]string{BinFFprobe: "ffprobe"}},
			}, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	paths, err := fetcher.GetFFmpeg(context.Background())
	if err != nil {
		t.Fatalf("GetFFmpeg() error = %v", err)
	}

	if !strings.HasSuffix(paths.FFmpeg, filepath.Join("macos-arm64", "ffmpeg")) {
		t.Errorf("FFmpeg path = %q", paths.FFmpeg)
	}
	if got := server.requests.Load(); got != 2 {
		t.Errorf("server saw %d requests, want 2 (one per archive)", got)
	}
	if !fetcher.Store().IsValid(macosARM64) {
		t.Error("cache entry should be valid")
	}
}

func TestFetcherConcurrentCallsShareOneDownload(t *testing.T) {
	fetcher, server := linuxTestFetcher(t)
	ctx := context.Background()

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fetcher.GetFFmpeg(ctx)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("caller %d: %v", i, err)
		}
	}
	if got := server.requests.Load(); got != 1 {
		t.Errorf("server saw %d requests, want 1 shared download", got)
	}
}
