package native

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stream is a facade that privately owns a secondary resource and closes
// it through the slot before the base release.
type stream struct {
	Holder[avThing]
	closed    int
	sawSlot   bool
	onRelease func()
}

func newStream(t *testing.T, o *Ownership[avThing]) *stream {
	t.Helper()
	s := &stream{}
	require.NoError(t, s.Bind(o, s))
	return s
}

func (s *stream) Release() {
	if s.Released() {
		return
	}
	if _, err := s.Slot(); err == nil {
		s.sawSlot = true
	}
	s.closed++
	if s.onRelease != nil {
		s.onRelease()
	}
	s.Holder.Release()
}

func TestNewHolderRejectsNilOwnership(t *testing.T) {
	_, err := NewHolder[avThing](nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestHolderAccessors(t *testing.T) {
	alloc := &HeapAllocator{}
	o, err := NewOwning[avThing](alloc, nil)
	require.NoError(t, err)
	defer o.Release()

	h, err := NewHolder(o)
	require.NoError(t, err)
	assert.Same(t, o, h.Ownership())

	block, err := AllocBlock[avThing](alloc)
	require.NoError(t, err)
	defer FreeBlock(alloc, block)

	s, err := h.Slot()
	require.NoError(t, err)
	s.Write(block)

	addr, err := h.Address()
	require.NoError(t, err)
	assert.Equal(t, block, addr)

	h.Release()
	h.Release()
	_, err = h.Slot()
	assert.ErrorIs(t, err, ErrUseAfterRelease)
	_, err = h.Address()
	assert.ErrorIs(t, err, ErrUseAfterRelease)
	assert.False(t, o.IsLinked(h))
}

func TestHolderBindOnce(t *testing.T) {
	o, err := NewOwning[avThing](&HeapAllocator{}, nil)
	require.NoError(t, err)
	defer o.Release()

	h, err := NewHolder(o)
	require.NoError(t, err)
	assert.ErrorIs(t, h.Bind(o, nil), ErrInvalidArgument)

	h.Release()
	assert.ErrorIs(t, h.Bind(o, nil), ErrInvalidArgument)
}

func TestCascadeDispatchesToFacade(t *testing.T) {
	calls := 0
	o, err := NewOwning(&HeapAllocator{}, func(Slot[avThing]) { calls++ })
	require.NoError(t, err)

	s := newStream(t, o)
	assert.True(t, o.IsLinked(s))

	o.Release()
	assert.Equal(t, 1, s.closed)
	assert.True(t, s.sawSlot, "facade must still reach the slot during cascade")
	assert.True(t, s.Released())
	assert.Equal(t, 1, calls)

	// Self-initiated release after cascade converges on the same state.
	s.Release()
	assert.Equal(t, 1, s.closed)
}

func TestSelfReleaseThenOwnershipRelease(t *testing.T) {
	o, err := NewOwning[avThing](&HeapAllocator{}, nil)
	require.NoError(t, err)

	s := newStream(t, o)
	s.Release()
	assert.Equal(t, 1, s.closed)
	assert.False(t, o.IsLinked(s))

	o.Release()
	assert.Equal(t, 1, s.closed)
}

func TestDependentReleasingDuringCascade(t *testing.T) {
	o, err := NewOwning[avThing](&HeapAllocator{}, nil)
	require.NoError(t, err)

	first := newStream(t, o)
	second := newStream(t, o)
	// A dependent releasing a sibling mid-cascade must not confuse the
	// ownership; the sibling is released exactly once.
	first.onRelease = second.Release

	o.Release()
	assert.Equal(t, 1, first.closed)
	assert.Equal(t, 1, second.closed)
	assert.True(t, first.Released())
	assert.True(t, second.Released())
}

func TestLinkDuringCascadeFails(t *testing.T) {
	o, err := NewOwning[avThing](&HeapAllocator{}, nil)
	require.NoError(t, err)

	var lateErr error
	s := newStream(t, o)
	s.onRelease = func() {
		_, lateErr = NewHolder(o)
	}

	o.Release()
	assert.ErrorIs(t, lateErr, ErrUseAfterRelease)
}
