// Package platform provides detection of the host operating system and
// architecture and maps it to the canonical platform keys used for
// selecting and caching FFmpeg builds.
//
// It detects OS and architecture from the Go runtime, normalizes vendor
// aliases (x86_64/amd64, aarch64/arm64, darwin/macos), and on Linux adds
// distribution details via gopsutil with graceful fallback when detection
// fails.
package platform

import "context"

// Canonical operating system names.
const (
	OSWindows = "windows"
	OSMacOS   = "macos"
	OSLinux   = "linux"
)

// Canonical architecture names.
const (
	ArchX8664 = "x86_64"
	ArchARM64 = "arm64"
)

// Linux distribution family constants.
// These represent canonical family names for grouping related distributions.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyGentoo  = "gentoo"  // Gentoo
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Key identifies one supported (OS, architecture) combination.
// Its string form names the per-platform cache bucket, e.g. "linux-x86_64".
type Key struct {
	OS   string // "windows", "macos", "linux"
	Arch string // "x86_64", "arm64"
}

// String returns the canonical "<os>-<arch>" form of the key.
func (k Key) String() string {
	return k.OS + "-" + k.Arch
}

// Keys enumerates every supported platform key.
// Windows on arm64 is deliberately absent: no usable static build exists.
var Keys = []Key{
	{OSWindows, ArchX8664},
	{OSMacOS, ArchX8664},
	{OSMacOS, ArchARM64},
	{OSLinux, ArchX8664},
	{OSLinux, ArchARM64},
}

// Supported reports whether the key is one of the supported combinations.
func Supported(k Key) bool {
	for _, known := range Keys {
		if k == known {
			return true
		}
	}
	return false
}

// UnsupportedError indicates that the detected or requested OS/architecture
// combination has no static FFmpeg build available.
type UnsupportedError struct {
	OS   string
	Arch string
}

func (e *UnsupportedError) Error() string {
	switch {
	case e.OS != "" && e.Arch != "":
		return "unsupported platform: " + e.OS + "/" + e.Arch
	case e.OS != "":
		return "unsupported operating system: " + e.OS
	default:
		return "unsupported architecture: " + e.Arch
	}
}

// Info contains platform detection information.
type Info struct {
	Key      Key    // canonical platform key
	OSRaw    string // original OS name (e.g. "darwin")
	ArchRaw  string // original GOARCH (e.g. "amd64", "aarch64")
	Platform string // distro ID (Linux only, e.g. "ubuntu", "arch")
	Family   string // canonical family (e.g. "debian", "rhel", "arch")
	Version  string // distro version (Linux only, e.g. "22.04")
}

// Distro contains Linux distribution information.
// This is nil on non-Linux platforms.
type Distro struct {
	ID      string // distro ID (e.g. "ubuntu")
	Family  string // canonical family (e.g. "debian")
	Version string // version (e.g. "22.04")
}

// GetDistro returns distro information if this is a Linux platform.
// Returns nil for non-Linux platforms or if distro detection failed.
func (i *Info) GetDistro() *Distro {
	if i.Key.OS != OSLinux || i.Platform == "" {
		return nil
	}
	return &Distro{
		ID:      i.Platform,
		Family:  i.Family,
		Version: i.Version,
	}
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.Key.OS == OSLinux
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.Key.OS == OSMacOS
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.Key.OS == OSWindows
}

// IsAppleSilicon returns true if running on Apple Silicon (macOS + arm64).
func (i *Info) IsAppleSilicon() bool {
	return i.Key.OS == OSMacOS && i.Key.Arch == ArchARM64
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
