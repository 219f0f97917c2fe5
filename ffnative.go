//go:build !ios && !android && (amd64 || arm64)

// Package ffnative provides safe, identity-stable handles to FFmpeg heap
// structures without CGO, using purego.
//
// The ownership primitives live in package native; the FFmpeg forwarding
// layer built on them lives in package avutil. This package re-exports the
// entry points most callers need.
package ffnative

import (
	"github.com/obinnaokechukwu/ffnative/avutil"
	"github.com/obinnaokechukwu/ffnative/internal/bindings"
	"github.com/obinnaokechukwu/ffnative/native"
)

// Init loads libavutil. It is safe to call multiple times.
func Init() error {
	return bindings.Load()
}

// IsLoaded returns true if libavutil has been successfully loaded.
func IsLoaded() bool {
	return bindings.IsLoaded()
}

// Version returns the libavutil version, or 0 if not loaded.
func Version() uint32 {
	return bindings.AVUtilVersion()
}

// Re-export common types for convenience
type (
	// Dictionary is an FFmpeg AVDictionary.
	Dictionary = avutil.Dictionary

	// Frame is an FFmpeg AVFrame.
	Frame = avutil.Frame

	// FFmpegError is an error from FFmpeg operations.
	FFmpegError = avutil.Error

	// Error is an error from the ownership layer.
	Error = native.Error
)

// Re-exported error kinds.
var (
	ErrNotLoaded         = bindings.ErrNotLoaded
	ErrAllocationFailure = native.ErrAllocationFailure
	ErrUseAfterRelease   = native.ErrUseAfterRelease
	ErrInvalidArgument   = native.ErrInvalidArgument
	ErrInvalidSlot       = native.ErrInvalidSlot
)

// NewDictionary returns an empty owning dictionary.
func NewDictionary() (*Dictionary, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	return avutil.NewDictionary()
}

// NewFrame allocates a frame.
func NewFrame() (*Frame, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	return avutil.NewFrame()
}
