//go:build !ios && !android && (amd64 || arm64)

package platform

import (
	"path/filepath"
	"runtime"
	"testing"
)

func TestIs64Bit(t *testing.T) {
	if !Is64Bit {
		t.Error("Platform should be 64-bit")
	}
}

func TestLibraryExtension(t *testing.T) {
	switch runtime.GOOS {
	case "darwin":
		if LibraryExtension != ".dylib" {
			t.Errorf("expected .dylib, got %s", LibraryExtension)
		}
	case "windows":
		if LibraryExtension != ".dll" {
			t.Errorf("expected .dll, got %s", LibraryExtension)
		}
	default:
		if LibraryExtension != ".so" {
			t.Errorf("expected .so, got %s", LibraryExtension)
		}
	}
}

func TestFormatLibraryName(t *testing.T) {
	tests := []struct {
		name    string
		version int
		goos    string
		want    string
	}{
		{"avutil", 58, "linux", "libavutil.so.58"},
		{"avutil", 0, "linux", "libavutil.so"},
		{"avutil", 58, "darwin", "libavutil.58.dylib"},
		{"avutil", 0, "darwin", "libavutil.dylib"},
		{"avutil", 58, "windows", "avutil-58.dll"},
		{"avutil", 0, "windows", "avutil.dll"},
	}

	for _, tt := range tests {
		t.Run(tt.name+"_"+tt.goos, func(t *testing.T) {
			if runtime.GOOS != tt.goos {
				t.Skipf("test only applies to %s", tt.goos)
			}
			got := FormatLibraryName(tt.name, tt.version)
			if got != tt.want {
				t.Errorf("FormatLibraryName(%q, %d) = %q, want %q", tt.name, tt.version, got, tt.want)
			}
		})
	}
}

func TestSplitEnvPath(t *testing.T) {
	sep := string(filepath.ListSeparator)
	t.Setenv("FFNATIVE_TEST_PATH", "/a"+sep+sep+"/b")

	got := SplitEnvPath("FFNATIVE_TEST_PATH")
	if len(got) != 2 || got[0] != "/a" || got[1] != "/b" {
		t.Errorf("SplitEnvPath = %q, want [/a /b]", got)
	}

	t.Setenv("FFNATIVE_TEST_PATH", "")
	if got := SplitEnvPath("FFNATIVE_TEST_PATH"); got != nil {
		t.Errorf("SplitEnvPath of empty variable = %q, want nil", got)
	}
}

func TestLibraryPathEnv(t *testing.T) {
	if LibraryPathEnv() == "" {
		t.Error("LibraryPathEnv should never be empty")
	}
}
