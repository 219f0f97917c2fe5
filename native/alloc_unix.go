//go:build linux || darwin || freebsd || netbsd || openbsd

package native

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

func newDefaultAllocator() Allocator {
	return NewPageAllocator()
}

// PageAllocator allocates memory outside the Go heap with anonymous mmap.
//
// Requests of at most one word come from shared pages carved into cells;
// freed cells are zeroed and reused. Larger requests get a mapping of
// their own that is unmapped on Free.
type PageAllocator struct {
	mu       sync.Mutex
	pageSize int
	pages    [][]byte
	free     []unsafe.Pointer
	cells    map[unsafe.Pointer]struct{}
	blocks   map[unsafe.Pointer][]byte
}

// PageStats describes a PageAllocator's current footprint.
type PageStats struct {
	Pages      int // Mapped cell pages
	LiveCells  int
	FreeCells  int
	LiveBlocks int // Dedicated mappings for larger requests
}

// NewPageAllocator returns an allocator with no pages mapped yet.
func NewPageAllocator() *PageAllocator {
	return &PageAllocator{
		pageSize: unix.Getpagesize(),
		cells:    make(map[unsafe.Pointer]struct{}),
		blocks:   make(map[unsafe.Pointer][]byte),
	}
}

// Alloc implements Allocator.
func (a *PageAllocator) Alloc(size uintptr) (unsafe.Pointer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if size <= WordSize {
		return a.allocCell()
	}

	length := (int(size) + a.pageSize - 1) / a.pageSize * a.pageSize
	data, err := mapAnonymous(length)
	if err != nil {
		return nil, err
	}
	p := unsafe.Pointer(&data[0])
	a.blocks[p] = data
	return p, nil
}

func (a *PageAllocator) allocCell() (unsafe.Pointer, error) {
	if len(a.free) == 0 {
		page, err := mapAnonymous(a.pageSize)
		if err != nil {
			return nil, err
		}
		a.pages = append(a.pages, page)
		// Push in reverse so cells are handed out in address order.
		for off := len(page) - int(WordSize); off >= 0; off -= int(WordSize) {
			a.free = append(a.free, unsafe.Pointer(&page[off]))
		}
	}
	p := a.free[len(a.free)-1]
	a.free = a.free[:len(a.free)-1]
	a.cells[p] = struct{}{}
	return p, nil
}

// Free implements Allocator.
func (a *PageAllocator) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.cells[p]; ok {
		delete(a.cells, p)
		*(*uintptr)(p) = 0
		a.free = append(a.free, p)
		return
	}
	if data, ok := a.blocks[p]; ok {
		delete(a.blocks, p)
		if err := unix.Munmap(data); err != nil {
			logger().Error("munmap failed", "op", "PageAllocator.Free", "size", len(data), "error", err)
		}
		return
	}
	panic(fmt.Sprintf("ffnative: PageAllocator.Free of unknown pointer %p", p))
}

// Stats returns the allocator's current footprint.
func (a *PageAllocator) Stats() PageStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return PageStats{
		Pages:      len(a.pages),
		LiveCells:  len(a.cells),
		FreeCells:  len(a.free),
		LiveBlocks: len(a.blocks),
	}
}

// Close unmaps every page and block. Any pointer previously returned by
// the allocator becomes invalid.
func (a *PageAllocator) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var firstErr error
	for _, page := range a.pages {
		if err := unix.Munmap(page); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, data := range a.blocks {
		if err := unix.Munmap(data); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.pages = nil
	a.free = nil
	a.cells = make(map[unsafe.Pointer]struct{})
	a.blocks = make(map[unsafe.Pointer][]byte)
	if firstErr != nil {
		return fmt.Errorf("ffnative: munmap: %w", firstErr)
	}
	return nil
}

func mapAnonymous(length int) ([]byte, error) {
	data, err := unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %d bytes: %w", ErrAllocationFailure, length, err)
	}
	return data, nil
}
