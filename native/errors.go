package native

import (
	"errors"
	"fmt"
	"reflect"
)

// Error kinds. Only ErrAllocationFailure is meant to be handled by callers;
// the others indicate a lifetime bug in the calling layer.
var (
	// ErrAllocationFailure indicates the native allocator returned no memory.
	ErrAllocationFailure = errors.New("ffnative: allocation failed")

	// ErrInvalidArgument indicates a shared ownership over an empty slot or
	// a holder over a nil ownership.
	ErrInvalidArgument = errors.New("ffnative: invalid argument")

	// ErrInvalidSlot indicates a read or write through a slot with no cell.
	ErrInvalidSlot = errors.New("ffnative: invalid slot")

	// ErrUseAfterRelease indicates an accessor was called on a released
	// ownership or holder.
	ErrUseAfterRelease = errors.New("ffnative: use after release")
)

// Error describes a failed core operation.
type Error struct {
	Op   string // Operation attempted, e.g. "Ownership.Slot"
	Type string // Native type involved
	Err  error  // One of the Err* kinds above, or an allocator's own error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Op)
	}
	return fmt.Sprintf("%v: %s[%s]", e.Err, e.Op, e.Type)
}

// Unwrap returns the error kind.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError[T any](kind error, op string) *Error {
	return &Error{Op: op, Type: typeName[T](), Err: kind}
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}

// IsAllocationFailure reports whether err is an out-of-memory condition.
func IsAllocationFailure(err error) bool {
	return errors.Is(err, ErrAllocationFailure)
}

// IsUseAfterRelease reports whether err was caused by touching a released
// ownership or holder.
func IsUseAfterRelease(err error) bool {
	return errors.Is(err, ErrUseAfterRelease)
}
