package native

import (
	"fmt"
	"unsafe"
)

// Slot is the address of a cell holding a Handle[T]. This is the C
// "T **" that native APIs take when they may reallocate or null the
// object they were given.
//
// The zero Slot has no cell at all, which is different from a slot whose
// cell content is empty. Never keep a Handle read from a Slot across a
// call that could have rewritten the cell.
type Slot[T any] struct {
	cell unsafe.Pointer
}

// SlotAt returns a slot for the native cell at addr. Cells in Go memory
// must come from SlotOf or SlotFromPointer.
func SlotAt[T any](addr uintptr) Slot[T] {
	return Slot[T]{cell: pointerAt(addr)}
}

// SlotFromPointer returns a slot for the cell at p.
func SlotFromPointer[T any](p unsafe.Pointer) Slot[T] {
	return Slot[T]{cell: p}
}

// SlotOf returns a slot for a cell that lives in Go memory, such as a
// local variable passed to a native call by address.
func SlotOf[T any](cell *unsafe.Pointer) Slot[T] {
	return Slot[T]{cell: unsafe.Pointer(cell)}
}

// CastSlot reinterprets s as a slot holding a U.
func CastSlot[U, T any](s Slot[T]) Slot[U] {
	return Slot[U]{cell: s.cell}
}

// IsEmpty reports whether the slot has no cell.
func (s Slot[T]) IsEmpty() bool {
	return s.cell == nil
}

// Address returns the address of the cell.
func (s Slot[T]) Address() uintptr {
	return uintptr(s.cell)
}

// Pointer returns the cell address for passing to native calls that take
// a pointer-to-pointer.
func (s Slot[T]) Pointer() unsafe.Pointer {
	return s.cell
}

// Cell returns the cell as a *unsafe.Pointer, matching the signature
// purego bindings use for T** parameters.
func (s Slot[T]) Cell() *unsafe.Pointer {
	return (*unsafe.Pointer)(s.cell)
}

// Read returns the current content of the cell. It panics with an
// ErrInvalidSlot error if the slot has no cell.
func (s Slot[T]) Read() Handle[T] {
	if s.cell == nil {
		panic(newError[T](ErrInvalidSlot, "Slot.Read"))
	}
	return Handle[T]{p: *(*unsafe.Pointer)(s.cell)}
}

// Write overwrites the content of the cell. Every other holder of the same
// cell observes the new value. It panics with an ErrInvalidSlot error if
// the slot has no cell.
func (s Slot[T]) Write(h Handle[T]) {
	if s.cell == nil {
		panic(newError[T](ErrInvalidSlot, "Slot.Write"))
	}
	*(*unsafe.Pointer)(s.cell) = h.p
}

// TryRead is Read returning the ErrInvalidSlot condition as an error.
func (s Slot[T]) TryRead() (Handle[T], error) {
	if s.cell == nil {
		return Handle[T]{}, newError[T](ErrInvalidSlot, "Slot.Read")
	}
	return s.Read(), nil
}

// TryWrite is Write returning the ErrInvalidSlot condition as an error.
func (s Slot[T]) TryWrite(h Handle[T]) error {
	if s.cell == nil {
		return newError[T](ErrInvalidSlot, "Slot.Write")
	}
	s.Write(h)
	return nil
}

// ContentOr returns the cell content, or def if the slot has no cell or
// the content is empty.
func (s Slot[T]) ContentOr(def Handle[T]) Handle[T] {
	if s.cell == nil {
		return def
	}
	return s.Read().Or(def)
}

// IsContentPresent reports whether the slot has a cell and the cell holds
// a non-empty address.
func (s Slot[T]) IsContentPresent() bool {
	return s.cell != nil && *(*unsafe.Pointer)(s.cell) != nil
}

func (s Slot[T]) String() string {
	return fmt.Sprintf("*%s@%#x", typeName[T](), uintptr(s.cell))
}
