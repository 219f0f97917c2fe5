//go:build !ios && !android && (amd64 || arm64)

// Package platform describes the shared-library conventions of the
// operating system ffnative runs on.
package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"unsafe"
)

// Is64Bit indicates whether the platform is 64-bit.
// Cells are one machine word; purego only runs on 64-bit targets.
const Is64Bit = unsafe.Sizeof(uintptr(0)) == 8

// LibraryExtension is the file extension for shared libraries on this platform.
var LibraryExtension string

// LibraryPrefix is the prefix for shared library names on this platform.
var LibraryPrefix string

func init() {
	switch runtime.GOOS {
	case "darwin":
		LibraryExtension = ".dylib"
		LibraryPrefix = "lib"
	case "windows":
		LibraryExtension = ".dll"
		LibraryPrefix = ""
	default: // linux, freebsd, etc.
		LibraryExtension = ".so"
		LibraryPrefix = "lib"
	}
}

// FormatLibraryName returns the platform-specific library filename.
// If version is 0, returns the unversioned library name.
//
// Examples:
//   - Linux:   FormatLibraryName("avutil", 58) -> "libavutil.so.58"
//   - macOS:   FormatLibraryName("avutil", 58) -> "libavutil.58.dylib"
//   - Windows: FormatLibraryName("avutil", 58) -> "avutil-58.dll"
func FormatLibraryName(name string, version int) string {
	switch runtime.GOOS {
	case "darwin":
		if version > 0 {
			return fmt.Sprintf("%s%s.%d%s", LibraryPrefix, name, version, LibraryExtension)
		}
		return fmt.Sprintf("%s%s%s", LibraryPrefix, name, LibraryExtension)
	case "windows":
		if version > 0 {
			return fmt.Sprintf("%s%s-%d%s", LibraryPrefix, name, version, LibraryExtension)
		}
		return fmt.Sprintf("%s%s%s", LibraryPrefix, name, LibraryExtension)
	default: // linux, freebsd
		if version > 0 {
			return fmt.Sprintf("%s%s%s.%d", LibraryPrefix, name, LibraryExtension, version)
		}
		return fmt.Sprintf("%s%s%s", LibraryPrefix, name, LibraryExtension)
	}
}

// LibraryPathEnv is the loader's own search-path variable for this
// platform: LD_LIBRARY_PATH, DYLD_LIBRARY_PATH or PATH.
func LibraryPathEnv() string {
	switch runtime.GOOS {
	case "darwin":
		return "DYLD_LIBRARY_PATH"
	case "windows":
		return "PATH"
	default:
		return "LD_LIBRARY_PATH"
	}
}

// SplitEnvPath returns the non-empty entries of the path list in the
// named environment variable.
func SplitEnvPath(name string) []string {
	value := os.Getenv(name)
	if value == "" {
		return nil
	}
	var out []string
	for _, p := range filepath.SplitList(value) {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
