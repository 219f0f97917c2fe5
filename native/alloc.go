package native

import (
	"sync"
	"unsafe"
)

// WordSize is the size of a cell.
const WordSize = unsafe.Sizeof(uintptr(0))

// Allocator hands out zeroed native memory.
//
// Alloc returns an error wrapping ErrAllocationFailure when no memory is
// available. Free must only be called with pointers returned by the same
// allocator; freeing nil is a no-op.
type Allocator interface {
	Alloc(size uintptr) (unsafe.Pointer, error)
	Free(p unsafe.Pointer)
}

var (
	defaultMu    sync.RWMutex
	defaultAlloc Allocator
)

// DefaultAllocator returns the allocator used when nil is passed to
// NewOwning or AllocBlock.
func DefaultAllocator() Allocator {
	defaultMu.RLock()
	a := defaultAlloc
	defaultMu.RUnlock()
	if a != nil {
		return a
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultAlloc == nil {
		defaultAlloc = newDefaultAllocator()
	}
	return defaultAlloc
}

// SetDefaultAllocator replaces the default allocator. Ownerships created
// earlier keep freeing through the allocator they were created with.
// Passing nil restores the platform default.
func SetDefaultAllocator(a Allocator) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultAlloc = a
}

// AllocBlock allocates a zeroed, T-sized native block.
func AllocBlock[T any](alloc Allocator) (Handle[T], error) {
	if alloc == nil {
		alloc = DefaultAllocator()
	}
	var zero T
	size := unsafe.Sizeof(zero)
	if size == 0 {
		size = 1
	}
	p, err := alloc.Alloc(size)
	if err != nil || p == nil {
		return Handle[T]{}, allocFailure[T]("AllocBlock", err)
	}
	return Handle[T]{p: p}, nil
}

// FreeBlock frees a block returned by AllocBlock. Freeing an empty handle
// is a no-op.
func FreeBlock[T any](alloc Allocator, h Handle[T]) {
	if h.IsEmpty() {
		return
	}
	if alloc == nil {
		alloc = DefaultAllocator()
	}
	alloc.Free(h.p)
}

// HeapAllocator allocates from the Go heap and keeps every live block
// reachable until it is freed. The garbage collector does not move heap
// objects, so the addresses stay valid. Blocks are not scanned by the
// collector, the same as native memory. It is the default on platforms
// without anonymous mmap and is convenient in tests.
type HeapAllocator struct {
	mu     sync.Mutex
	blocks map[unsafe.Pointer][]byte
}

// Alloc implements Allocator.
func (a *HeapAllocator) Alloc(size uintptr) (unsafe.Pointer, error) {
	words := (size + WordSize - 1) / WordSize
	if words == 0 {
		words = 1
	}
	block := make([]byte, words*WordSize)
	p := unsafe.Pointer(&block[0])

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.blocks == nil {
		a.blocks = make(map[unsafe.Pointer][]byte)
	}
	a.blocks[p] = block
	return p, nil
}

// Free implements Allocator.
func (a *HeapAllocator) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.blocks[p]; !ok {
		panic("ffnative: HeapAllocator.Free of unknown pointer")
	}
	delete(a.blocks, p)
}

// Live returns the number of blocks not yet freed.
func (a *HeapAllocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.blocks)
}
