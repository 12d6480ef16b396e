package ffbin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 5 * time.Minute
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "ffstatic/1.0"
)

// Downloader streams archives from their source URLs to local files.
// Failed or interrupted downloads never leave a file at the destination
// path. Downloads are not retried; the caller may simply invoke the
// fetch again.
type Downloader struct {
	client    *http.Client
	userAgent string
}

// NewDownloader creates a new downloader with a sane request timeout.
func NewDownloader() *Downloader {
	return &Downloader{
		client: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Allow up to 10 redirects
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent: DefaultUserAgent,
	}
}

// NewDownloaderWithClient creates a downloader backed by a caller-supplied
// HTTP client. Used by tests to count requests and simulate failures.
func NewDownloaderWithClient(client *http.Client) *Downloader {
	return &Downloader{client: client, userAgent: DefaultUserAgent}
}

// DownloadToFile downloads a URL to a specific file path. The body is
// streamed to a temporary sibling file and renamed into place once
// complete, so destPath never holds a partial download. Any failure is
// reported as a DownloadError carrying the URL.
func (d *Downloader) DownloadToFile(ctx context.Context, url, destPath string) error {
	if err := d.downloadOnce(ctx, url, destPath); err != nil {
		return &DownloadError{URL: url, Err: err}
	}
	return nil
}

func (d *Downloader) downloadOnce(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	destDir := filepath.Dir(destPath)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	tmpPath := destPath + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	// Track whether we need to clean up the temp file
	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath) // Clean up on error
		}
	}()

	// Stream the body; archives run into the tens of megabytes
	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return fmt.Errorf("copy response body: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	return nil
}
