package ffbin

import "fmt"

// DownloadError indicates that fetching an archive from its source URL
// failed. It carries the URL and the underlying transport or HTTP cause.
// Downloads are never retried automatically; calling again is always safe
// because the cache is re-checked first.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// ArchiveLayoutError indicates that a downloaded archive does not contain
// an expected executable. This usually means the upstream build layout
// changed and the source catalog needs updating.
type ArchiveLayoutError struct {
	Archive string
	Missing []string
}

func (e *ArchiveLayoutError) Error() string {
	return fmt.Sprintf("archive %s is missing expected executables %v", e.Archive, e.Missing)
}

// CacheError indicates a filesystem failure while materializing or
// clearing a cache entry. It carries the offending path.
type CacheError struct {
	Path string
	Err  error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s: %v", e.Path, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}
