//go:build !ios && !android && (amd64 || arm64)

package avutil

import (
	"testing"

	"github.com/obinnaokechukwu/ffnative/native"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVideoFrame(t *testing.T, w, h int) *Frame {
	t.Helper()
	f, err := NewFrame()
	require.NoError(t, err)
	f.SetWidth(w)
	f.SetHeight(h)
	f.SetFormat(int32(PixelFormatYUV420P))
	return f
}

func TestFrameFields(t *testing.T) {
	skipIfNoFFmpeg(t)
	f := newVideoFrame(t, 1920, 1080)
	defer f.Close()

	f.SetPTS(42)
	assert.Equal(t, 1920, f.Width())
	assert.Equal(t, 1080, f.Height())
	assert.Equal(t, PixelFormatYUV420P, f.PixelFormat())
	assert.Equal(t, int64(42), f.PTS())
}

func TestFrameGetBuffer(t *testing.T) {
	skipIfNoFFmpeg(t)
	f := newVideoFrame(t, 320, 240)
	defer f.Close()

	require.NoError(t, f.GetBuffer(0))
	assert.NotNil(t, f.Data(0))
	assert.GreaterOrEqual(t, f.Linesize(0), 320)
	require.NoError(t, f.MakeWritable())

	clone, err := f.Clone()
	require.NoError(t, err)
	defer clone.Close()
	assert.Equal(t, f.Data(0), clone.Data(0), "clone shares buffers")
	assert.Equal(t, 320, clone.Width())
}

func TestFrameCloseNullsCellAndReleasesViews(t *testing.T) {
	skipIfNoFFmpeg(t)
	f := newVideoFrame(t, 64, 48)

	v, err := f.View()
	require.NoError(t, err)
	assert.Equal(t, 64, v.Width())

	h, err := f.Address()
	require.NoError(t, err)
	assert.Same(t, f, LookupFrame(h))

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	assert.True(t, v.Released())
	assert.Equal(t, 0, v.Width())
	assert.Equal(t, NoPTSValue, v.PTS())
	assert.Equal(t, 0, f.Width())
	assert.Nil(t, LookupFrame(h))
	assert.ErrorIs(t, f.GetBuffer(0), native.ErrUseAfterRelease)

	_, err = f.View()
	assert.ErrorIs(t, err, native.ErrUseAfterRelease)
}

func TestFrameViewReleaseKeepsFrame(t *testing.T) {
	skipIfNoFFmpeg(t)
	f := newVideoFrame(t, 16, 16)
	defer f.Close()

	v, err := f.View()
	require.NoError(t, err)
	v.Release()

	assert.False(t, f.Released())
	assert.Equal(t, 16, f.Width())
}

func TestFrameRefFromClosed(t *testing.T) {
	skipIfNoFFmpeg(t)
	src := newVideoFrame(t, 16, 16)
	require.NoError(t, src.Close())

	dst, err := NewFrame()
	require.NoError(t, err)
	defer dst.Close()
	assert.ErrorIs(t, dst.Ref(src), native.ErrUseAfterRelease)
}
