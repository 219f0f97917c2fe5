package native

import (
	"fmt"
	"unsafe"
)

// Handle is the address of a native T. The zero Handle is empty.
//
// Handles compare equal when their addresses are equal; two handles to
// bit-identical structures at different addresses are distinct.
type Handle[T any] struct {
	p unsafe.Pointer
}

// HandleAt returns a handle for the given address. No validation is done.
//
// addr is taken to be native memory, or an arbitrary token that is never
// dereferenced. Handles to Go memory must come from HandleOf or
// HandleFromPointer so the collector keeps the referent alive.
func HandleAt[T any](addr uintptr) Handle[T] {
	return Handle[T]{p: pointerAt(addr)}
}

// pointerAt reinterprets the bits of addr as a pointer. It is not a
// uintptr-to-pointer conversion, so it is valid for any address,
// including ones below the first page that checkptr rejects.
func pointerAt(addr uintptr) unsafe.Pointer {
	return *(*unsafe.Pointer)(unsafe.Pointer(&addr))
}

// HandleFromPointer returns a handle for p.
func HandleFromPointer[T any](p unsafe.Pointer) Handle[T] {
	return Handle[T]{p: p}
}

// HandleOf returns a handle for p.
func HandleOf[T any](p *T) Handle[T] {
	return Handle[T]{p: unsafe.Pointer(p)}
}

// Cast reinterprets h as a handle to a U. The caller asserts that the
// memory at h is a U.
func Cast[U, T any](h Handle[T]) Handle[U] {
	return Handle[U]{p: h.p}
}

// IsEmpty reports whether h is the null address.
func (h Handle[T]) IsEmpty() bool {
	return h.p == nil
}

// Or returns h, or def if h is empty.
func (h Handle[T]) Or(def Handle[T]) Handle[T] {
	if h.p == nil {
		return def
	}
	return h
}

// Address returns the address as an integer.
func (h Handle[T]) Address() uintptr {
	return uintptr(h.p)
}

// Pointer returns the address for passing to native calls.
func (h Handle[T]) Pointer() unsafe.Pointer {
	return h.p
}

// Ptr returns the address as a *T. Dereferencing it is only valid while
// the native object is alive.
func (h Handle[T]) Ptr() *T {
	return (*T)(h.p)
}

func (h Handle[T]) String() string {
	return fmt.Sprintf("%s@%#x", typeName[T](), uintptr(h.p))
}
