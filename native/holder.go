package native

// Holder gives a managed object a release-aware view onto an Ownership.
//
// Facades embed Holder and call Bind with themselves so that a cascading
// release dispatches to the facade's own Release. A facade that overrides
// Release must release its private resources first and then call
// Holder.Release exactly once:
//
//	func (d *Dictionary) Release() {
//		d.closeSecondary()
//		d.Holder.Release()
//	}
type Holder[T any] struct {
	owner    *Ownership[T]
	anchor   *Anchor
	released bool
}

// NewHolder returns a standalone Holder linked to o.
func NewHolder[T any](o *Ownership[T]) (*Holder[T], error) {
	h := &Holder[T]{}
	if err := h.Bind(o, h); err != nil {
		return nil, err
	}
	return h, nil
}

// Bind links h, seen from the outside as self, to o. self is what o
// releases on cascade; a nil self means h itself. A Holder can be bound
// only once.
func (h *Holder[T]) Bind(o *Ownership[T], self Dependent) error {
	if o == nil || h.owner != nil || h.released {
		return newError[T](ErrInvalidArgument, "Holder.Bind")
	}
	if self == nil {
		self = h
	}
	h.anchor = &Anchor{dep: self}
	if err := o.Link(self); err != nil {
		h.anchor = nil
		return err
	}
	h.owner = o
	return nil
}

// Anchor implements Dependent.
func (h *Holder[T]) Anchor() *Anchor {
	return h.anchor
}

// Released reports whether h has been released, by itself or by its
// Ownership.
func (h *Holder[T]) Released() bool {
	return h.released
}

// Ownership returns the Ownership h is linked to, or nil once released.
func (h *Holder[T]) Ownership() *Ownership[T] {
	return h.owner
}

// Slot returns the governed slot.
func (h *Holder[T]) Slot() (Slot[T], error) {
	if h.released || h.owner == nil {
		return Slot[T]{}, newError[T](ErrUseAfterRelease, "Holder.Slot")
	}
	return h.owner.Slot()
}

// Address returns the current content of the governed slot. Read it again
// after any native call that may have rewritten the cell.
func (h *Holder[T]) Address() (Handle[T], error) {
	if h.released || h.owner == nil {
		return Handle[T]{}, newError[T](ErrUseAfterRelease, "Holder.Address")
	}
	return h.owner.Content()
}

// Release detaches h from its Ownership. It is idempotent and safe to call
// while the Ownership is cascading.
func (h *Holder[T]) Release() {
	if h.released {
		return
	}
	h.released = true
	if h.owner != nil {
		h.owner.Unlink(h)
		h.owner = nil
	}
	if h.anchor != nil {
		h.anchor.dep = nil
	}
}
