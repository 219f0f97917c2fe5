//go:build linux || darwin || freebsd || netbsd || openbsd

package native

import (
	"bytes"
	"log/slog"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageAllocatorCells(t *testing.T) {
	a := NewPageAllocator()
	defer a.Close()

	p, err := a.Alloc(WordSize)
	require.NoError(t, err)
	q, err := a.Alloc(0)
	require.NoError(t, err)
	assert.NotEqual(t, p, q)
	assert.Zero(t, *(*uintptr)(p))
	assert.Equal(t, uintptr(p)+WordSize, uintptr(q), "cells come out in address order")

	st := a.Stats()
	assert.Equal(t, 1, st.Pages)
	assert.Equal(t, 2, st.LiveCells)

	*(*uintptr)(p) = 0xabc
	a.Free(p)
	r, err := a.Alloc(WordSize)
	require.NoError(t, err)
	assert.Equal(t, p, r, "freed cell is reused")
	assert.Zero(t, *(*uintptr)(r), "reused cell is zeroed")
}

func TestPageAllocatorBlocks(t *testing.T) {
	a := NewPageAllocator()
	defer a.Close()

	p, err := a.Alloc(3 * 4096)
	require.NoError(t, err)
	b := unsafe.Slice((*byte)(p), 3*4096)
	assert.Equal(t, 0, bytes.Count(b, []byte{1}))
	b[len(b)-1] = 1
	assert.Equal(t, 1, a.Stats().LiveBlocks)

	a.Free(p)
	assert.Equal(t, 0, a.Stats().LiveBlocks)
}

func TestPageAllocatorFreeUnknownPanics(t *testing.T) {
	a := NewPageAllocator()
	defer a.Close()
	x := new(uintptr)
	assert.Panics(t, func() { a.Free(unsafe.Pointer(x)) })
	assert.NotPanics(t, func() { a.Free(nil) })
}

func TestOwningOnPageAllocator(t *testing.T) {
	a := NewPageAllocator()
	defer a.Close()

	o, err := NewOwning[avThing](a, nil)
	require.NoError(t, err)
	h, err := NewHolder(o)
	require.NoError(t, err)
	assert.Equal(t, 1, a.Stats().LiveCells)

	o.Release()
	assert.True(t, h.Released())
	assert.Equal(t, 0, a.Stats().LiveCells)
}

func TestReleaseLogsCascade(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer SetLogger(nil)

	a := NewPageAllocator()
	defer a.Close()
	o, err := NewOwning[avThing](a, nil)
	require.NoError(t, err)
	_, err = NewHolder(o)
	require.NoError(t, err)
	o.Release()

	out := buf.String()
	assert.Contains(t, out, "releasing ownership")
	assert.Contains(t, out, "type=native.avThing")
	assert.Contains(t, out, "mode=owning")
	assert.Contains(t, out, "freed owning cell")
}

func TestDefaultAllocator(t *testing.T) {
	defer SetDefaultAllocator(nil)
	_, ok := DefaultAllocator().(*PageAllocator)
	assert.True(t, ok)

	heap := &HeapAllocator{}
	SetDefaultAllocator(heap)
	o, err := NewOwning[avThing](nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, heap.Live())
	o.Release()
	assert.Equal(t, 0, heap.Live())
}
