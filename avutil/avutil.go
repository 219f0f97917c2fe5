//go:build !ios && !android && (amd64 || arm64)

// Package avutil binds the parts of FFmpeg's libavutil that ffnative
// wraps: the allocator, dictionaries, frames, format names and the log
// level.
//
// Every call is a thin forwarding wrapper. Lifetimes are governed by the
// native package: each Dictionary and Frame is a native.Holder over a
// native.Ownership, so closing the owner invalidates every view first.
package avutil

import (
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/obinnaokechukwu/ffnative/internal/bindings"
	"github.com/obinnaokechukwu/ffnative/native"
)

// Function bindings - registered when init() is called
var (
	avFrameAlloc        func() unsafe.Pointer
	avFrameFree         func(frame *unsafe.Pointer)
	avFrameRef          func(dst, src unsafe.Pointer) int32
	avFrameUnref        func(frame unsafe.Pointer)
	avFrameClone        func(src unsafe.Pointer) unsafe.Pointer
	avFrameGetBuffer    func(frame unsafe.Pointer, align int32) int32
	avFrameMakeWritable func(frame unsafe.Pointer) int32

	avMallocz func(size uintptr) unsafe.Pointer
	avFree    func(ptr unsafe.Pointer)

	avDictSet   func(pm *unsafe.Pointer, key string, value *byte, flags int32) int32
	avDictGet   func(m unsafe.Pointer, key string, prev unsafe.Pointer, flags int32) unsafe.Pointer
	avDictCount func(m unsafe.Pointer) int32
	avDictCopy  func(dst *unsafe.Pointer, src unsafe.Pointer, flags int32) int32
	avDictFree  func(pm *unsafe.Pointer)

	avStrerror func(errnum int32, errbuf unsafe.Pointer, errbufSize uintptr) int32

	avLogSetLevel func(level int32)
	avLogGetLevel func() int32

	avGetPixFmtName     func(pixFmt int32) *byte
	avGetSampleFmtName  func(sampleFmt int32) *byte
	avSampleFmtIsPlanar func(sampleFmt int32) int32

	bindingsRegistered bool
)

func init() {
	registerBindings()
}

func registerBindings() {
	if bindingsRegistered {
		return
	}

	if err := bindings.Load(); err != nil {
		return // Will fail later when functions are called
	}

	lib := bindings.LibAVUtil()
	if lib == 0 {
		return
	}

	purego.RegisterLibFunc(&avFrameAlloc, lib, "av_frame_alloc")
	purego.RegisterLibFunc(&avFrameFree, lib, "av_frame_free")
	purego.RegisterLibFunc(&avFrameRef, lib, "av_frame_ref")
	purego.RegisterLibFunc(&avFrameUnref, lib, "av_frame_unref")
	purego.RegisterLibFunc(&avFrameClone, lib, "av_frame_clone")
	purego.RegisterLibFunc(&avFrameGetBuffer, lib, "av_frame_get_buffer")
	purego.RegisterLibFunc(&avFrameMakeWritable, lib, "av_frame_make_writable")

	purego.RegisterLibFunc(&avMallocz, lib, "av_mallocz")
	purego.RegisterLibFunc(&avFree, lib, "av_free")

	purego.RegisterLibFunc(&avDictSet, lib, "av_dict_set")
	purego.RegisterLibFunc(&avDictGet, lib, "av_dict_get")
	purego.RegisterLibFunc(&avDictCount, lib, "av_dict_count")
	purego.RegisterLibFunc(&avDictCopy, lib, "av_dict_copy")
	purego.RegisterLibFunc(&avDictFree, lib, "av_dict_free")

	purego.RegisterLibFunc(&avStrerror, lib, "av_strerror")

	purego.RegisterLibFunc(&avLogSetLevel, lib, "av_log_set_level")
	purego.RegisterLibFunc(&avLogGetLevel, lib, "av_log_get_level")

	purego.RegisterLibFunc(&avGetPixFmtName, lib, "av_get_pix_fmt_name")
	purego.RegisterLibFunc(&avGetSampleFmtName, lib, "av_get_sample_fmt_name")
	purego.RegisterLibFunc(&avSampleFmtIsPlanar, lib, "av_sample_fmt_is_planar")

	bindingsRegistered = true
}

// Available reports whether libavutil was found and bound.
func Available() bool {
	return bindingsRegistered
}

// ffmpegAllocator forwards to av_mallocz/av_free.
type ffmpegAllocator struct{}

// Allocator returns a native.Allocator backed by FFmpeg's allocator, so
// cells can be handed to FFmpeg functions that free with av_free.
func Allocator() native.Allocator {
	return ffmpegAllocator{}
}

func (ffmpegAllocator) Alloc(size uintptr) (unsafe.Pointer, error) {
	if avMallocz == nil {
		return nil, bindings.ErrNotLoaded
	}
	p := avMallocz(size)
	if p == nil {
		return nil, NewError(AVERROR_ENOMEM, "av_mallocz")
	}
	return p, nil
}

func (ffmpegAllocator) Free(p unsafe.Pointer) {
	if p == nil || avFree == nil {
		return
	}
	avFree(p)
}

// UseFFmpegAllocator makes FFmpeg's allocator the native default.
func UseFFmpegAllocator() error {
	if !bindingsRegistered {
		return bindings.ErrNotLoaded
	}
	native.SetDefaultAllocator(Allocator())
	return nil
}

// ErrorString returns a human-readable error message for an FFmpeg error code.
func ErrorString(errnum int32) string {
	if avStrerror == nil {
		return "unknown error (FFmpeg not loaded)"
	}

	buf := make([]byte, 256)
	avStrerror(errnum, unsafe.Pointer(&buf[0]), 256)

	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}

// cString returns a NUL-terminated copy of s. Keep the returned pointer
// alive across the native call.
func cString(s string) *byte {
	b := append([]byte(s), 0)
	return &b[0]
}

// goString copies a NUL-terminated C string.
func goString(p *byte) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}
