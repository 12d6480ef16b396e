package platform

import "strings"

// familyMap maps distribution names to their canonical family names.
// This is used to normalize variations of family strings from gopsutil.
var familyMap = map[string]string{
	"debian":   FamilyDebian,
	"ubuntu":   FamilyDebian, // gopsutil might return ubuntu as family
	"rhel":     FamilyRHEL,
	"centos":   FamilyRHEL,
	"rocky":    FamilyRHEL,
	"fedora":   FamilyFedora,
	"suse":     FamilySUSE,
	"opensuse": FamilySUSE,
	"arch":     FamilyArch,
	"manjaro":  FamilyArch,
	"alpine":   FamilyAlpine,
	"gentoo":   FamilyGentoo,
}

// normalizeOS converts an OS name as reported by the runtime or a uname
// string to the canonical name. Matching is case-insensitive.
func normalizeOS(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "windows":
		return OSWindows, nil
	case "darwin", "macos", "osx":
		return OSMacOS, nil
	case "linux":
		return OSLinux, nil
	default:
		return "", &UnsupportedError{OS: strings.ToLower(strings.TrimSpace(name))}
	}
}

// normalizeArch converts GOARCH or uname machine strings to the canonical
// architecture name. Matching is case-insensitive.
func normalizeArch(arch string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(arch)) {
	case "amd64", "x86_64":
		return ArchX8664, nil
	case "arm64", "aarch64":
		return ArchARM64, nil
	default:
		return "", &UnsupportedError{Arch: strings.ToLower(strings.TrimSpace(arch))}
	}
}

// normalizePlatform converts platform IDs to lowercase for consistency.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

// mapFamily maps distribution family strings to canonical family names.
// Uses a package-level lookup table for explicit mapping.
func mapFamily(family string) string {
	normalized := strings.ToLower(strings.TrimSpace(family))
	if canonical, ok := familyMap[normalized]; ok {
		return canonical
	}

	// Return "unknown" for unrecognized families
	return FamilyUnknown
}
