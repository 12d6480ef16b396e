package platform

import (
	"errors"
	"testing"
)

func TestNormalizeOS(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"windows", "windows", "windows", false},
		{"Windows mixed case", "Windows", "windows", false},
		{"WINDOWS all caps", "WINDOWS", "windows", false},
		{"darwin", "darwin", "macos", false},
		{"Darwin mixed case", "Darwin", "macos", false},
		{"macos alias", "macos", "macos", false},
		{"osx alias", "osx", "macos", false},
		{"linux", "linux", "linux", false},
		{"LINUX all caps", "LINUX", "linux", false},
		{"with spaces", "  linux  ", "linux", false},
		{"freebsd unsupported", "freebsd", "", true},
		{"plan9 unsupported", "plan9", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeOS(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("normalizeOS() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("normalizeOS() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeOSErrorNamesOffendingValue(t *testing.T) {
	_, err := normalizeOS("FreeBSD")

	var unsupported *UnsupportedError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedError, got %T", err)
	}
	if unsupported.OS != "freebsd" {
		t.Errorf("OS = %q, want %q", unsupported.OS, "freebsd")
	}
}

func TestNormalizeArch(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"amd64", "amd64", "x86_64", false},
		{"x86_64", "x86_64", "x86_64", false},
		{"X86_64 caps", "X86_64", "x86_64", false},
		{"AMD64 caps", "AMD64", "x86_64", false},
		{"arm64", "arm64", "arm64", false},
		{"aarch64", "aarch64", "arm64", false},
		{"AARCH64 caps", "AARCH64", "arm64", false},
		{"i386 unsupported", "i386", "", true},
		{"arm unsupported", "arm", "", true},
		{"sparc unsupported", "sparc", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeArch(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("normalizeArch() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("normalizeArch() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMapFamily(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"debian", "debian", "debian"},
		{"ubuntu maps to debian", "ubuntu", "debian"},
		{"centos maps to rhel", "centos", "rhel"},
		{"rocky maps to rhel", "rocky", "rhel"},
		{"opensuse maps to suse", "opensuse", "suse"},
		{"manjaro maps to arch", "manjaro", "arch"},
		{"alpine", "alpine", "alpine"},
		{"Debian uppercase", "Debian", "debian"},
		{"with spaces", "  debian  ", "debian"},
		{"unrecognized", "slackware", "unknown"},
		{"empty", "", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapFamily(tt.input)
			if got != tt.want {
				t.Errorf("mapFamily() = %v, want %v", got, tt.want)
			}
		})
	}
}
