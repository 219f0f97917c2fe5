package native

import (
	"fmt"
	"slices"
	"weak"
)

// Mode says whether an Ownership frees its cell on release.
type Mode int

const (
	// Owning ownerships allocated their cell and free it on release.
	Owning Mode = iota
	// Shared ownerships observe a cell owned elsewhere. Release only
	// detaches.
	Shared
)

func (m Mode) String() string {
	switch m {
	case Owning:
		return "owning"
	case Shared:
		return "shared"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

type lifeState uint8

const (
	stateLive lifeState = iota
	stateReleasing
	stateReleased
)

// Dependent is anything that must be released when the Ownership it is
// linked to is released.
//
// Anchor must return the same non-nil value for the dependent's whole
// life. The Ownership only holds the anchor weakly, so a linked dependent
// that becomes unreachable is collected normally and skipped on release.
type Dependent interface {
	Release()
	Anchor() *Anchor
}

// Anchor is a dependent's observation point. The ownership keeps weak
// pointers to anchors; each anchor points back at its dependent.
//
// An anchor is linked to at most one Ownership at a time. dep is nil once
// the dependent has been released.
type Anchor struct {
	dep   Dependent
	owner interface{ Released() bool }
}

// NewAnchor returns an anchor for d. Types that embed Holder get one from
// Bind and do not need this.
func NewAnchor(d Dependent) *Anchor {
	return &Anchor{dep: d}
}

// Ownership is the single lifetime authority for one Slot.
//
// At most one owning Ownership exists per cell; any number of shared ones
// may observe the same externally owned cell.
type Ownership[T any] struct {
	mode    Mode
	slot    Slot[T]
	alloc   Allocator
	cleanup func(Slot[T])
	links   []weak.Pointer[Anchor]
	state   lifeState
}

// NewOwning allocates a new cell with empty content. cleanup, if non-nil,
// runs exactly once on release with the slot still valid, after every
// dependent has been released and before the cell is freed. cleanup must
// not fail.
//
// A nil alloc selects DefaultAllocator.
func NewOwning[T any](alloc Allocator, cleanup func(Slot[T])) (*Ownership[T], error) {
	if alloc == nil {
		alloc = DefaultAllocator()
	}
	p, err := alloc.Alloc(WordSize)
	if err != nil || p == nil {
		return nil, allocFailure[T]("NewOwning", err)
	}
	s := Slot[T]{cell: p}
	s.Write(Handle[T]{})
	return &Ownership[T]{
		mode:    Owning,
		slot:    s,
		alloc:   alloc,
		cleanup: cleanup,
	}, nil
}

// NewShared returns an Ownership observing a cell owned elsewhere. The
// slot must have a cell and the cell must hold a non-empty address.
func NewShared[T any](s Slot[T]) (*Ownership[T], error) {
	if !s.IsContentPresent() {
		return nil, newError[T](ErrInvalidArgument, "NewShared")
	}
	return &Ownership[T]{mode: Shared, slot: s}, nil
}

func allocFailure[T any](op string, cause error) error {
	if cause == nil {
		cause = ErrAllocationFailure
	}
	logger().Warn("native allocation failed", "op", op, "type", typeName[T](), "error", cause)
	return &Error{Op: op, Type: typeName[T](), Err: cause}
}

// Mode returns whether o owns its cell.
func (o *Ownership[T]) Mode() Mode {
	return o.mode
}

// Released reports whether Release has completed.
func (o *Ownership[T]) Released() bool {
	return o.state == stateReleased
}

// Slot returns the governed slot. It is still available to dependents
// while Release is cascading.
func (o *Ownership[T]) Slot() (Slot[T], error) {
	if o.state == stateReleased {
		return Slot[T]{}, newError[T](ErrUseAfterRelease, "Ownership.Slot")
	}
	return o.slot, nil
}

// Content reads the current content of the governed slot.
func (o *Ownership[T]) Content() (Handle[T], error) {
	if o.state == stateReleased {
		return Handle[T]{}, newError[T](ErrUseAfterRelease, "Ownership.Content")
	}
	return o.slot.Read(), nil
}

// Link registers dep to be released when o is released. Linking the same
// dependent twice is a no-op. Links to collected dependents are dropped
// during the scan.
//
// A released dependent is rejected with ErrUseAfterRelease, and one
// still linked to another live Ownership with ErrInvalidArgument.
func (o *Ownership[T]) Link(dep Dependent) error {
	if o.state != stateLive {
		return newError[T](ErrUseAfterRelease, "Ownership.Link")
	}
	if dep == nil || dep.Anchor() == nil {
		return newError[T](ErrInvalidArgument, "Ownership.Link")
	}
	a := dep.Anchor()
	if a.dep == nil {
		return newError[T](ErrUseAfterRelease, "Ownership.Link")
	}
	if a.owner != nil && a.owner != o && !a.owner.Released() {
		return newError[T](ErrInvalidArgument, "Ownership.Link")
	}
	a.owner = o

	w := weak.Make(a)
	found := false
	kept := o.links[:0]
	for _, l := range o.links {
		if v := l.Value(); v == nil || v.dep == nil {
			continue
		}
		if l == w {
			found = true
		}
		kept = append(kept, l)
	}
	clear(o.links[len(kept):])
	o.links = kept
	if !found {
		o.links = append(o.links, w)
	}
	return nil
}

// Unlink removes dep if it is linked, after which dep may be linked
// elsewhere. It never releases o, and it is a no-op once o is releasing
// or released.
func (o *Ownership[T]) Unlink(dep Dependent) {
	if o.state != stateLive || dep == nil || dep.Anchor() == nil {
		return
	}
	a := dep.Anchor()
	w := weak.Make(a)
	if i := slices.Index(o.links, w); i >= 0 {
		o.links = slices.Delete(o.links, i, i+1)
		a.owner = nil
	}
}

// IsLinked reports whether dep is currently linked to o.
func (o *Ownership[T]) IsLinked(dep Dependent) bool {
	if o.state != stateLive || dep == nil || dep.Anchor() == nil || dep.Anchor().dep == nil {
		return false
	}
	return slices.Contains(o.links, weak.Make(dep.Anchor()))
}

// Dependents returns the number of linked dependents that are still alive.
func (o *Ownership[T]) Dependents() int {
	n := 0
	for _, l := range o.links {
		if a := l.Value(); a != nil && a.dep != nil {
			n++
		}
	}
	return n
}

// Release releases every live dependent, then, for an owning Ownership,
// runs the cleanup and frees the cell. A shared Ownership leaves the cell
// untouched. Calling Release again is a no-op.
//
// If cleanup panics, o is still marked released and its cell freed before
// the panic propagates.
func (o *Ownership[T]) Release() {
	if o.state != stateLive {
		return
	}
	o.state = stateReleasing

	deps := make([]Dependent, 0, len(o.links))
	for _, l := range o.links {
		if a := l.Value(); a != nil && a.dep != nil {
			deps = append(deps, a.dep)
		}
	}
	skipped := len(o.links) - len(deps)
	o.links = nil

	logger().Debug("releasing ownership",
		"type", typeName[T](),
		"mode", o.mode,
		"dependents", len(deps),
		"collected", skipped,
	)

	for _, d := range deps {
		d.Release()
	}

	defer o.finish()
	if o.mode == Owning && o.cleanup != nil {
		o.cleanup(o.slot)
	}
}

func (o *Ownership[T]) finish() {
	if o.mode == Owning {
		o.alloc.Free(o.slot.cell)
		logger().Debug("freed owning cell", "type", typeName[T](), "cell", fmt.Sprintf("%#x", o.slot.Address()))
	}
	o.slot = Slot[T]{}
	o.cleanup = nil
	o.alloc = nil
	o.state = stateReleased
}
