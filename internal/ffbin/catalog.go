package ffbin

import (
	"github.com/ZebulonRouseFrantzich/ffstatic/internal/platform"
)

// Logical binary names used as cache entry file names (plus ".exe" on
// Windows) and as keys in SourceDescriptor.Executables.
const (
	BinFFmpeg  = "ffmpeg"
	BinFFprobe = "ffprobe"
)

// ArchiveFormat identifies how a downloaded archive is unpacked.
type ArchiveFormat string

const (
	// FormatZip is a zip archive (Windows and macOS builds)
	FormatZip ArchiveFormat = "zip"
	// FormatTarXz is an xz-compressed tar archive (Linux builds)
	FormatTarXz ArchiveFormat = "tar.xz"
)

// SourceDescriptor describes one downloadable archive: where to fetch it,
// how to unpack it, and which executables to pull out of the extracted
// tree. Executables maps the logical binary name to the file name of the
// archive entry; upstream builds nest them under versioned directories,
// so entries are located by base name rather than full path.
// Descriptors are defined at build time and never mutated.
type SourceDescriptor struct {
	URL         string
	Format      ArchiveFormat
	Executables map[string]string
}

// sources is the single source of truth mapping each supported platform
// key to its download descriptors. Windows and Linux ship both
// executables in one archive; macOS publishes ffmpeg and ffprobe as
// separate zips.
var sources = map[platform.Key][]SourceDescriptor{
	{OS: platform.OSWindows, Arch: platform.ArchX8664}: {
		{
			URL:    "https://www.gyan.dev/ffmpeg/builds/ffmpeg-release-essentials.zip",
			Format: FormatZip,
			Executables: map[string]string{
				BinFFmpeg:  "ffmpeg.exe",
				BinFFprobe: "ffprobe.exe",
			},
		},
	},
	{OS: platform.OSMacOS, Arch: platform.ArchX8664}: {
		{
			URL:         "https://www.osxexperts.net/ffmpeg71intel.zip",
			Format:      FormatZip,
			Executables: map[string]string{BinFFmpeg: "ffmpeg"},
		},
		{
			URL:         "https://www.osxexperts.net/ffprobe71intel.zip",
			Format:      FormatZip,
			Executables: map[string]string{BinFFprobe: "ffprobe"},
		},
	},
	{OS: platform.OSMacOS, Arch: platform.ArchARM64}: {
		{
			URL:         "https://www.osxexperts.net/ffmpeg711arm.zip",
			Format:      FormatZip,
			Executables: map[string]string{BinFFmpeg: "ffmpeg"},
		},
		{
			URL:         "https://www.osxexperts.net/ffprobe711arm.zip",
			Format:      FormatZip,
			Executables: map[string]string{BinFFprobe: "ffprobe"},
		},
	},
	{OS: platform.OSLinux, Arch: platform.ArchX8664}: {
		{
			URL:    "https://johnvansickle.com/ffmpeg/releases/ffmpeg-release-amd64-static.tar.xz",
			Format: FormatTarXz,
			Executables: map[string]string{
				BinFFmpeg:  "ffmpeg",
				BinFFprobe: "ffprobe",
			},
		},
	},
	{OS: platform.OSLinux, Arch: platform.ArchARM64}: {
		{
			URL:    "https://johnvansickle.com/ffmpeg/releases/ffmpeg-release-arm64-static.tar.xz",
			Format: FormatTarXz,
			Executables: map[string]string{
				BinFFmpeg:  "ffmpeg",
				BinFFprobe: "ffprobe",
			},
		},
	},
}

// Lookup returns the download descriptors for a platform key.
// It fails with platform.UnsupportedError for any key outside the five
// supported combinations. Pure table lookup, no I/O.
func Lookup(key platform.Key) ([]SourceDescriptor, error) {
	descriptors, ok := sources[key]
	if !ok {
		return nil, &platform.UnsupportedError{OS: key.OS, Arch: key.Arch}
	}
	return descriptors, nil
}

// executableName returns the on-disk cache file name for a logical binary
// on the given platform.
func executableName(key platform.Key, logical string) string {
	if key.OS == platform.OSWindows {
		return logical + ".exe"
	}
	return logical
}
