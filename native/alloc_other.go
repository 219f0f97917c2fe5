//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package native

func newDefaultAllocator() Allocator {
	return &HeapAllocator{}
}
