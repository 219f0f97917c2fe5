//go:build !ios && !android && (amd64 || arm64)

package avutil

import "strconv"

// PixelFormat is an AVPixelFormat, the Format of a video frame.
type PixelFormat int32

// Pixel formats whose values are stable across FFmpeg releases.
const (
	PixelFormatNone    PixelFormat = -1
	PixelFormatYUV420P PixelFormat = 0
	PixelFormatYUYV422 PixelFormat = 1
	PixelFormatRGB24   PixelFormat = 2
	PixelFormatBGR24   PixelFormat = 3
	PixelFormatYUV422P PixelFormat = 4
	PixelFormatYUV444P PixelFormat = 5
	PixelFormatGray8   PixelFormat = 8
	PixelFormatNV12    PixelFormat = 23
	PixelFormatRGBA    PixelFormat = 26
	PixelFormatBGRA    PixelFormat = 28
)

// String returns FFmpeg's name for the format, e.g. "yuv420p".
func (f PixelFormat) String() string {
	if avGetPixFmtName != nil {
		if name := goString(avGetPixFmtName(int32(f))); name != "" {
			return name
		}
	}
	if f == PixelFormatNone {
		return "none"
	}
	return "PixelFormat(" + strconv.Itoa(int(f)) + ")"
}

// SampleFormat is an AVSampleFormat, the Format of an audio frame.
type SampleFormat int32

const (
	SampleFormatNone SampleFormat = -1
	SampleFormatU8   SampleFormat = 0
	SampleFormatS16  SampleFormat = 1
	SampleFormatS32  SampleFormat = 2
	SampleFormatFlt  SampleFormat = 3
	SampleFormatDbl  SampleFormat = 4
	SampleFormatU8P  SampleFormat = 5
	SampleFormatS16P SampleFormat = 6
	SampleFormatS32P SampleFormat = 7
	SampleFormatFltP SampleFormat = 8
	SampleFormatDblP SampleFormat = 9
)

// String returns FFmpeg's name for the format, e.g. "fltp".
func (f SampleFormat) String() string {
	if avGetSampleFmtName != nil {
		if name := goString(avGetSampleFmtName(int32(f))); name != "" {
			return name
		}
	}
	if f == SampleFormatNone {
		return "none"
	}
	return "SampleFormat(" + strconv.Itoa(int(f)) + ")"
}

// IsPlanar reports whether each channel is stored in its own plane.
func (f SampleFormat) IsPlanar() bool {
	if avSampleFmtIsPlanar != nil {
		return avSampleFmtIsPlanar(int32(f)) != 0
	}
	return f >= SampleFormatU8P && f <= SampleFormatDblP
}
