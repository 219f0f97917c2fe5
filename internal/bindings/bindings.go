//go:build !ios && !android && (amd64 || arm64)

// Package bindings loads the FFmpeg shared libraries that the forwarding
// layers bind against with purego.
package bindings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"
	"github.com/obinnaokechukwu/ffnative/internal/platform"
)

// SearchPathEnv lists extra directories searched before the platform
// defaults.
const SearchPathEnv = "FFNATIVE_LIBRARY_PATH"

// ErrNotLoaded is returned when FFmpeg functions are called before Load().
var ErrNotLoaded = errors.New("ffnative: FFmpeg libraries not loaded; call Load() first")

// ErrLibraryNotFound is returned when a required FFmpeg library cannot be found.
var ErrLibraryNotFound = errors.New("ffnative: FFmpeg library not found")

// AVUtilVersions are the libavutil major versions tried, newest first.
var AVUtilVersions = []int{59, 58, 57, 56}

var (
	libAVUtil  uintptr
	avutilPath string

	loaded   bool
	loadOnce sync.Once
	loadErr  error

	avutilVersion func() uint32
)

// IsLoaded returns true if libavutil has been successfully loaded.
func IsLoaded() bool {
	return loaded
}

// Load loads libavutil. It is safe to call multiple times; subsequent
// calls return the first result.
func Load() error {
	loadOnce.Do(func() {
		loadErr = doLoad()
		if loadErr == nil {
			loaded = true
		}
	})
	return loadErr
}

func doLoad() error {
	var err error
	libAVUtil, avutilPath, err = loadLibrary("avutil", AVUtilVersions)
	if err != nil {
		return fmt.Errorf("loading libavutil: %w", err)
	}
	purego.RegisterLibFunc(&avutilVersion, libAVUtil, "avutil_version")
	return nil
}

// loadLibrary attempts to load a library by trying versioned names.
func loadLibrary(name string, versions []int) (uintptr, string, error) {
	for _, candidate := range candidates(name, versions) {
		if lib, err := tryOpen(candidate); err == nil {
			return lib, candidate, nil
		}
	}
	return 0, "", fmt.Errorf("%w: %s", ErrLibraryNotFound, name)
}

// candidates lists the paths tried for a library: every search directory
// with versioned then unversioned names, then the bare names so the
// system loader can resolve them.
func candidates(name string, versions []int) []string {
	var names []string
	for _, ver := range versions {
		names = append(names, platform.FormatLibraryName(name, ver))
	}
	names = append(names, platform.FormatLibraryName(name, 0))

	var out []string
	for _, dir := range LibrarySearchPaths() {
		for _, n := range names {
			out = append(out, filepath.Join(dir, n))
		}
	}
	return append(out, names...)
}

// tryOpen attempts to open a library with RTLD_NOW | RTLD_GLOBAL.
func tryOpen(path string) (uintptr, error) {
	lib, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return 0, err
	}
	return lib, nil
}

// FindLibrary searches for a library and returns its full path.
// This is useful for diagnostics.
func FindLibrary(name string, versions []int) (string, error) {
	for _, candidate := range candidates(name, versions) {
		if !filepath.IsAbs(candidate) {
			continue
		}
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrLibraryNotFound, name)
}

// LibrarySearchPaths returns the directories searched for FFmpeg:
// FFNATIVE_LIBRARY_PATH, then the loader's own path variable, then
// platform defaults.
func LibrarySearchPaths() []string {
	paths := platform.SplitEnvPath(SearchPathEnv)
	paths = append(paths, platform.SplitEnvPath(platform.LibraryPathEnv())...)

	switch runtime.GOOS {
	case "linux":
		paths = append(paths,
			"/usr/lib/x86_64-linux-gnu",
			"/usr/lib/aarch64-linux-gnu",
			"/usr/local/lib",
			"/usr/lib",
			"/lib/x86_64-linux-gnu",
			"/lib",
		)
	case "darwin":
		paths = append(paths,
			"/opt/homebrew/lib",            // Apple Silicon
			"/usr/local/lib",               // Intel
			"/opt/homebrew/opt/ffmpeg/lib", // Homebrew FFmpeg
			"/usr/local/opt/ffmpeg/lib",    // Homebrew FFmpeg (Intel)
		)
	case "windows":
		if exe, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Dir(exe))
		}
		paths = append(paths,
			"C:\\ffmpeg\\bin",
			"C:\\Program Files\\ffmpeg\\bin",
		)
	case "freebsd":
		paths = append(paths,
			"/usr/local/lib",
			"/usr/lib",
		)
	}

	return paths
}

// AVUtilVersion returns the avutil library version.
// Returns 0 if libraries are not loaded.
func AVUtilVersion() uint32 {
	if !loaded || avutilVersion == nil {
		return 0
	}
	return avutilVersion()
}

// LibAVUtil returns the avutil library handle, or 0 if not loaded.
func LibAVUtil() uintptr {
	return libAVUtil
}

// AVUtilPath returns the path libavutil was loaded from.
func AVUtilPath() string {
	return avutilPath
}
