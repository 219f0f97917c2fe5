//go:build !ios && !android && (amd64 || arm64)

package avutil

import (
	"runtime"
	"testing"
	"unsafe"

	"github.com/obinnaokechukwu/ffnative/native"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDictionarySetGet(t *testing.T) {
	skipIfNoFFmpeg(t)
	d, err := NewDictionary()
	require.NoError(t, err)
	defer d.Close()

	assert.True(t, d.Owned())
	assert.Equal(t, 0, d.Count())

	require.NoError(t, d.Set("title", "Big Buck Bunny", 0))
	require.NoError(t, d.Set("artist", "Blender", 0))
	assert.Equal(t, 2, d.Count())

	v, ok := d.Get("title")
	assert.True(t, ok)
	assert.Equal(t, "Big Buck Bunny", v)

	_, ok = d.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, map[string]string{"title": "Big Buck Bunny", "artist": "Blender"}, d.Entries())
}

func TestDictionaryDeleteLastNullsCell(t *testing.T) {
	skipIfNoFFmpeg(t)
	d, err := NewDictionary()
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Set("k", "v", 0))
	s, err := d.Slot()
	require.NoError(t, err)
	assert.True(t, s.IsContentPresent())

	require.NoError(t, d.Delete("k"))
	assert.False(t, s.IsContentPresent(), "av_dict_set frees an emptied dictionary")
	assert.Equal(t, 0, d.Count())

	require.NoError(t, d.Set("k", "again", 0))
	v, _ := d.Get("k")
	assert.Equal(t, "again", v)
}

func TestDictionaryCopy(t *testing.T) {
	skipIfNoFFmpeg(t)
	d, err := NewDictionary()
	require.NoError(t, err)
	defer d.Close()
	require.NoError(t, d.Set("a", "1", 0))

	c, err := d.Copy()
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Set("b", "2", 0))

	assert.Equal(t, 1, d.Count())
	assert.Equal(t, 2, c.Count())
}

func TestDictionaryClosedAccess(t *testing.T) {
	skipIfNoFFmpeg(t)
	d, err := NewDictionary()
	require.NoError(t, err)
	require.NoError(t, d.Set("a", "1", 0))
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	assert.True(t, native.IsUseAfterRelease(d.Set("b", "2", 0)))
	assert.Equal(t, 0, d.Count())
	_, err = d.Copy()
	assert.ErrorIs(t, err, native.ErrUseAfterRelease)
}

func TestWrapDictionaryShared(t *testing.T) {
	skipIfNoFFmpeg(t)
	owner, err := NewDictionary()
	require.NoError(t, err)
	defer owner.Close()
	require.NoError(t, owner.Set("preset", "fast", 0))

	var cell unsafe.Pointer
	require.NoError(t, NewError(avDictCopy(&cell, mustAddress(t, owner), 0), "av_dict_copy"))
	defer avDictFree(&cell)

	s := native.SlotOf[AVDictionary](&cell)
	view, err := WrapDictionary(s)
	require.NoError(t, err)
	assert.False(t, view.Owned())

	again, err := WrapDictionary(s)
	require.NoError(t, err)
	assert.Same(t, view, again)
	assert.Same(t, view, LookupDictionary(s))

	require.NoError(t, view.Set("crf", "23", 0))
	before := cell
	require.NoError(t, view.Close())

	assert.Equal(t, before, cell, "closing a shared view must not touch the cell")
	assert.Nil(t, LookupDictionary(s))

	// The cell is still a valid dictionary owned by this test.
	other, err := WrapDictionary(s)
	require.NoError(t, err)
	assert.NotSame(t, view, other)
	v, ok := other.Get("crf")
	assert.True(t, ok)
	assert.Equal(t, "23", v)
	other.Close()
}

func TestWrapDictionaryRejectsOwnedCell(t *testing.T) {
	skipIfNoFFmpeg(t)
	owner, err := NewDictionary()
	require.NoError(t, err)
	defer owner.Close()
	require.NoError(t, owner.Set("a", "1", 0))

	s, err := owner.Slot()
	require.NoError(t, err)
	view, err := WrapDictionary(s)
	assert.ErrorIs(t, err, native.ErrInvalidArgument)
	assert.Nil(t, view)

	// The owner is untouched and still interned.
	assert.Same(t, owner, LookupDictionary(s))
	v, ok := owner.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestBindDictionaryKeepsExistingView(t *testing.T) {
	// The cell only has to look non-empty; nothing here calls FFmpeg.
	var marker byte
	cell := unsafe.Pointer(&marker)
	s := native.SlotOf[AVDictionary](&cell)

	view, err := WrapDictionary(s)
	require.NoError(t, err)
	defer view.Close()

	o, err := native.NewShared(s)
	require.NoError(t, err)
	got, err := bindDictionary(o)
	require.NoError(t, err)
	assert.Same(t, view, got)
	assert.True(t, o.Released(), "the redundant ownership must not leak")
	assert.False(t, view.Released())
	assert.Equal(t, unsafe.Pointer(&marker), cell)
}

func TestBindDictionaryReplacesStaleEntry(t *testing.T) {
	o, err := native.NewOwning[AVDictionary](&native.HeapAllocator{}, nil)
	require.NoError(t, err)
	s, err := o.Slot()
	require.NoError(t, err)

	stale := &Dictionary{}
	dictionaries.GetOrCreate(cellKey(s), func(native.Handle[unsafe.Pointer]) *Dictionary { return stale })

	d, err := bindDictionary(o)
	require.NoError(t, err)
	assert.NotSame(t, stale, d)
	assert.Same(t, d, LookupDictionary(s))
	assert.True(t, d.Owned())

	require.NoError(t, d.Close())
	assert.True(t, o.Released())
	assert.Nil(t, LookupDictionary(s))
	runtime.KeepAlive(stale)
}

func TestWrapDictionaryRejectsEmptyCell(t *testing.T) {
	var cell unsafe.Pointer
	_, err := WrapDictionary(native.SlotOf[AVDictionary](&cell))
	assert.ErrorIs(t, err, native.ErrInvalidArgument)
}

func mustAddress(t *testing.T, d *Dictionary) unsafe.Pointer {
	t.Helper()
	h, err := d.Address()
	require.NoError(t, err)
	return h.Pointer()
}
