//go:build !ios && !android && (amd64 || arm64)

package avutil

import (
	"errors"
	"unsafe"

	"github.com/obinnaokechukwu/ffnative/internal/bindings"
	"github.com/obinnaokechukwu/ffnative/native"
)

// AVFrame is FFmpeg's frame struct. Its fields are read by offset.
type AVFrame struct{ _ [0]byte }

// NoPTSValue is the value used to indicate no PTS.
const NoPTSValue int64 = -9223372036854775808 // 0x8000000000000000

// AVFrame struct field offsets (for FFmpeg 6.x / avutil 58.x)
// Verified with offsetof() on FFmpeg 58.29.100
const (
	offsetData      = 0   // uint8_t *data[8]
	offsetLinesize  = 64  // int linesize[8]
	offsetWidth     = 104 // int width
	offsetHeight    = 108 // int height
	offsetNbSamples = 112 // int nb_samples
	offsetFormat    = 116 // int format
	offsetKeyFrame  = 120 // int key_frame
	offsetPts       = 136 // int64 pts
)

// Frames are interned by frame address. An AVFrame never moves while it
// is alive; av_frame_free nulls the cell that held it.
var frames = native.NewIdentityCache[AVFrame, Frame]()

// ErrFrameEmpty is returned by operations on a frame whose cell was
// nulled by FFmpeg.
var ErrFrameEmpty = errors.New("ffnative: frame cell is empty")

// Frame owns one AVFrame. The AVFrame pointer lives in an owning cell that
// av_frame_free nulls on close.
type Frame struct {
	native.Holder[AVFrame]
	owner *native.Ownership[AVFrame]
}

// NewFrame allocates an AVFrame with av_frame_alloc.
func NewFrame() (*Frame, error) {
	if avFrameAlloc == nil {
		return nil, bindings.ErrNotLoaded
	}
	o, err := native.NewOwning(nil, func(s native.Slot[AVFrame]) {
		avFrameFree(s.Cell())
	})
	if err != nil {
		return nil, err
	}

	p := avFrameAlloc()
	if p == nil {
		o.Release()
		return nil, NewError(AVERROR_ENOMEM, "av_frame_alloc")
	}
	s, _ := o.Slot()
	s.Write(native.HandleFromPointer[AVFrame](p))

	f := &Frame{owner: o}
	if err := f.Bind(o, f); err != nil {
		o.Release()
		return nil, err
	}
	key := native.HandleFromPointer[AVFrame](p)
	create := func(native.Handle[AVFrame]) *Frame { return f }
	if got := frames.GetOrCreate(key, create); got != f {
		// A freshly allocated AVFrame cannot belong to a live Frame; the
		// entry is left over from one whose frame was freed elsewhere.
		frames.Forget(key)
		frames.GetOrCreate(key, create)
	}
	return f, nil
}

// LookupFrame returns the live Frame that owns the AVFrame at h, or nil.
func LookupFrame(h native.Handle[AVFrame]) *Frame {
	return frames.Lookup(h)
}

func (f *Frame) ptr() unsafe.Pointer {
	h, err := f.Address()
	if err != nil {
		return nil
	}
	return h.Pointer()
}

func (f *Frame) live() (unsafe.Pointer, error) {
	h, err := f.Address()
	if err != nil {
		return nil, err
	}
	if h.IsEmpty() {
		return nil, ErrFrameEmpty
	}
	return h.Pointer(), nil
}

func field[T any](p unsafe.Pointer, offset uintptr) *T {
	return (*T)(unsafe.Add(p, offset))
}

// Width returns the frame width, or 0 once closed.
func (f *Frame) Width() int {
	if p := f.ptr(); p != nil {
		return int(*field[int32](p, offsetWidth))
	}
	return 0
}

// SetWidth sets the frame width.
func (f *Frame) SetWidth(width int) {
	if p := f.ptr(); p != nil {
		*field[int32](p, offsetWidth) = int32(width)
	}
}

// Height returns the frame height, or 0 once closed.
func (f *Frame) Height() int {
	if p := f.ptr(); p != nil {
		return int(*field[int32](p, offsetHeight))
	}
	return 0
}

// SetHeight sets the frame height.
func (f *Frame) SetHeight(height int) {
	if p := f.ptr(); p != nil {
		*field[int32](p, offsetHeight) = int32(height)
	}
}

// Format returns the pixel format (video) or sample format (audio), or -1.
func (f *Frame) Format() int32 {
	if p := f.ptr(); p != nil {
		return *field[int32](p, offsetFormat)
	}
	return -1
}

// SetFormat sets the pixel or sample format.
func (f *Frame) SetFormat(format int32) {
	if p := f.ptr(); p != nil {
		*field[int32](p, offsetFormat) = format
	}
}

// PixelFormat returns Format as a PixelFormat.
func (f *Frame) PixelFormat() PixelFormat {
	return PixelFormat(f.Format())
}

// SampleFormat returns Format as a SampleFormat.
func (f *Frame) SampleFormat() SampleFormat {
	return SampleFormat(f.Format())
}

// PTS returns the presentation timestamp, or NoPTSValue.
func (f *Frame) PTS() int64 {
	if p := f.ptr(); p != nil {
		return *field[int64](p, offsetPts)
	}
	return NoPTSValue
}

// SetPTS sets the presentation timestamp.
func (f *Frame) SetPTS(pts int64) {
	if p := f.ptr(); p != nil {
		*field[int64](p, offsetPts) = pts
	}
}

// NumSamples returns the number of audio samples.
func (f *Frame) NumSamples() int {
	if p := f.ptr(); p != nil {
		return int(*field[int32](p, offsetNbSamples))
	}
	return 0
}

// SetNumSamples sets the number of audio samples.
func (f *Frame) SetNumSamples(n int) {
	if p := f.ptr(); p != nil {
		*field[int32](p, offsetNbSamples) = int32(n)
	}
}

// IsKeyFrame reports the key_frame flag.
func (f *Frame) IsKeyFrame() bool {
	if p := f.ptr(); p != nil {
		return *field[int32](p, offsetKeyFrame) != 0
	}
	return false
}

// Linesize returns the stride of a plane.
func (f *Frame) Linesize(plane int) int {
	p := f.ptr()
	if p == nil || plane < 0 || plane >= 8 {
		return 0
	}
	return int((*[8]int32)(unsafe.Add(p, offsetLinesize))[plane])
}

// Data returns the data pointer of a plane. Do not keep it past Unref or
// Close.
func (f *Frame) Data(plane int) unsafe.Pointer {
	p := f.ptr()
	if p == nil || plane < 0 || plane >= 8 {
		return nil
	}
	return (*[8]unsafe.Pointer)(unsafe.Add(p, offsetData))[plane]
}

// GetBuffer allocates data buffers for the frame's format and size.
func (f *Frame) GetBuffer(align int) error {
	p, err := f.live()
	if err != nil {
		return err
	}
	return NewError(avFrameGetBuffer(p, int32(align)), "av_frame_get_buffer")
}

// MakeWritable ensures the frame data is writable, copying if needed.
func (f *Frame) MakeWritable() error {
	p, err := f.live()
	if err != nil {
		return err
	}
	return NewError(avFrameMakeWritable(p), "av_frame_make_writable")
}

// Ref makes f reference the same buffers as src. f must be unreferenced.
func (f *Frame) Ref(src *Frame) error {
	dst, err := f.live()
	if err != nil {
		return err
	}
	sp, err := src.live()
	if err != nil {
		return err
	}
	return NewError(avFrameRef(dst, sp), "av_frame_ref")
}

// Unref drops the frame's buffer references.
func (f *Frame) Unref() {
	if p := f.ptr(); p != nil {
		avFrameUnref(p)
	}
}

// Clone returns a new Frame referencing the same buffers.
func (f *Frame) Clone() (*Frame, error) {
	clone, err := NewFrame()
	if err != nil {
		return nil, err
	}
	if err := clone.Ref(f); err != nil {
		clone.Close()
		return nil, err
	}
	return clone, nil
}

// View returns a read-only view that is released when f is closed.
func (f *Frame) View() (*FrameView, error) {
	v := &FrameView{}
	if err := v.Bind(f.owner, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Release implements native.Dependent. The buffers are unreferenced
// through the still-valid cell before the frame itself is freed.
func (f *Frame) Release() {
	if f.Released() {
		return
	}
	if h, err := f.Address(); err == nil && !h.IsEmpty() {
		avFrameUnref(h.Pointer())
		frames.Forget(h)
	}
	f.Holder.Release()
	f.owner.Release()
}

// Close frees the frame. Views and other holders are released first.
func (f *Frame) Close() error {
	f.Release()
	return nil
}

// FrameView is a non-owning view onto a Frame.
type FrameView struct {
	native.Holder[AVFrame]
}

// Width returns the frame width, or 0 once the frame is closed.
func (v *FrameView) Width() int {
	h, err := v.Address()
	if err != nil || h.IsEmpty() {
		return 0
	}
	return int(*field[int32](h.Pointer(), offsetWidth))
}

// Height returns the frame height, or 0 once the frame is closed.
func (v *FrameView) Height() int {
	h, err := v.Address()
	if err != nil || h.IsEmpty() {
		return 0
	}
	return int(*field[int32](h.Pointer(), offsetHeight))
}

// PTS returns the presentation timestamp, or NoPTSValue.
func (v *FrameView) PTS() int64 {
	h, err := v.Address()
	if err != nil || h.IsEmpty() {
		return NoPTSValue
	}
	return *field[int64](h.Pointer(), offsetPts)
}
