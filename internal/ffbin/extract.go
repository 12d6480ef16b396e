package ffbin

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"
)

// Extractor pulls named executables out of downloaded archives.
//
// Upstream builds nest the binaries under versioned directories
// (e.g. "ffmpeg-7.1-essentials_build/bin/ffmpeg.exe" or
// "ffmpeg-7.0.2-amd64-static/ffmpeg"), so entries are matched by base
// name anywhere in the archive tree rather than by full path.
type Extractor struct{}

// NewExtractor creates a new extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractExecutables extracts the executables named by the descriptor
// from archivePath into destDir, one file per logical name. It returns a
// map of logical name to extracted file path. If any expected executable
// is absent the archive layout has changed upstream and the call fails
// with ArchiveLayoutError.
func (e *Extractor) ExtractExecutables(archivePath string, format ArchiveFormat, destDir string, executables map[string]string) (map[string]string, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("create dest dir: %w", err)
	}

	// Invert: archive entry base name -> logical name
	wanted := make(map[string]string, len(executables))
	for logical, entryName := range executables {
		wanted[entryName] = logical
	}

	var found map[string]string
	var err error

	switch format {
	case FormatZip:
		found, err = e.extractFromZip(archivePath, destDir, wanted)
	case FormatTarXz:
		found, err = e.extractFromTarXz(archivePath, destDir, wanted)
	default:
		return nil, fmt.Errorf("unknown archive format: %s", format)
	}
	if err != nil {
		return nil, err
	}

	var missing []string
	for logical := range executables {
		if _, ok := found[logical]; !ok {
			missing = append(missing, logical)
		}
	}
	if len(missing) > 0 {
		return nil, &ArchiveLayoutError{Archive: filepath.Base(archivePath), Missing: missing}
	}

	return found, nil
}

// extractFromZip scans a zip archive for the wanted entries.
func (e *Extractor) extractFromZip(archivePath, destDir string, wanted map[string]string) (map[string]string, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open zip archive: %w", err)
	}
	defer reader.Close()

	found := make(map[string]string)

	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}

		logical, ok := wanted[filepath.Base(file.Name)]
		if !ok {
			continue
		}
		if _, dup := found[logical]; dup {
			continue // first match wins
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open zip entry %s: %w", file.Name, err)
		}

		destPath := filepath.Join(destDir, filepath.Base(file.Name))
		if err := writeExtracted(destPath, rc); err != nil {
			rc.Close()
			return nil, fmt.Errorf("extract %s: %w", file.Name, err)
		}
		rc.Close()

		found[logical] = destPath
	}

	return found, nil
}

// extractFromTarXz scans an xz-compressed tar archive for the wanted
// entries in a single streaming pass.
func (e *Extractor) extractFromTarXz(archivePath, destDir string, wanted map[string]string) (map[string]string, error) {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	xzReader, err := xz.NewReader(archiveFile)
	if err != nil {
		return nil, fmt.Errorf("create xz reader: %w", err)
	}

	tarReader := tar.NewReader(xzReader)
	found := make(map[string]string)

	for len(found) < len(wanted) {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tar header: %w", err)
		}

		if header.Typeflag != tar.TypeReg {
			continue
		}

		logical, ok := wanted[filepath.Base(header.Name)]
		if !ok {
			continue
		}
		if _, dup := found[logical]; dup {
			continue
		}

		destPath := filepath.Join(destDir, filepath.Base(header.Name))
		if err := writeExtracted(destPath, tarReader); err != nil {
			return nil, fmt.Errorf("extract %s: %w", header.Name, err)
		}

		found[logical] = destPath
	}

	return found, nil
}

// writeExtracted writes one extracted executable with executable
// permissions.
func writeExtracted(destPath string, r io.Reader) error {
	outFile, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(outFile, r); err != nil {
		outFile.Close()
		return fmt.Errorf("write file: %w", err)
	}

	return outFile.Close()
}

// SetExecutable sets executable permissions on a file.
func SetExecutable(path string) error {
	if err := os.Chmod(path, 0755); err != nil {
		return fmt.Errorf("set executable: %w", err)
	}
	return nil
}
