package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using actual platform detection.
type RealDetector struct{}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{}
}

// KeyFor maps an OS name and machine architecture string to a canonical
// platform key. Both inputs are matched case-insensitively against the
// known aliases. It fails with UnsupportedError for any name outside the
// supported set, including the windows/arm64 combination for which no
// static build exists.
func KeyFor(osName, archName string) (Key, error) {
	osCanon, err := normalizeOS(osName)
	if err != nil {
		return Key{}, err
	}

	archCanon, err := normalizeArch(archName)
	if err != nil {
		return Key{}, err
	}

	key := Key{OS: osCanon, Arch: archCanon}
	if !Supported(key) {
		return Key{}, &UnsupportedError{OS: osCanon, Arch: archCanon}
	}

	return key, nil
}

// Detect performs platform detection and returns platform information.
// It uses runtime.GOOS and runtime.GOARCH for OS and architecture,
// and gopsutil for Linux distribution details.
//
// On Linux, if gopsutil fails to detect the distribution, it sets
// distro fields to empty strings and continues (graceful fallback).
// This allows basic OS/arch detection to work even when distro
// detection fails.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	key, err := KeyFor(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return nil, fmt.Errorf("platform detection failed: %w", err)
	}

	info := &Info{
		Key:     key,
		OSRaw:   runtime.GOOS,
		ArchRaw: runtime.GOARCH,
	}

	// Detect Linux distribution details using gopsutil (Linux only)
	if key.OS == OSLinux {
		platform, family, version, err := host.PlatformInformationWithContext(ctx)
		if err != nil {
			// Check if context was cancelled - this is a hard failure
			if ctx.Err() != nil {
				return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
			}
			// Graceful fallback for detection failures only. The static
			// builds run on any distribution, so distro details are
			// diagnostic data rather than a requirement.
			return info, nil
		}

		platform = normalizePlatform(platform)
		version = normalizePlatform(version)

		// Only set fields if we got valid data
		if platform != "" {
			info.Platform = platform
			info.Family = mapFamily(family)
			info.Version = version
		}
	}

	return info, nil
}
