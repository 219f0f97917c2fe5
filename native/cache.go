package native

import (
	"runtime"
	"sync"
	"weak"
)

// IdentityCache interns one managed *M per native address of an N.
//
// Entries are held weakly. Once a managed value becomes unreachable its
// entry is logically absent; it is removed by Lookup, Sweep, or the
// cleanup registered when the value was created, whichever comes first.
//
// Keys are stored as integer addresses, so a handle to Go memory does not
// keep that memory reachable from the cache.
//
// The zero value is ready to use.
type IdentityCache[N, M any] struct {
	mu      sync.Mutex
	entries map[uintptr]weak.Pointer[M]
}

type cacheEntry[M any] struct {
	key uintptr
	ptr weak.Pointer[M]
}

// NewIdentityCache returns an empty cache.
func NewIdentityCache[N, M any]() *IdentityCache[N, M] {
	return &IdentityCache[N, M]{}
}

// Lookup returns the live managed value for h, or nil.
func (c *IdentityCache[N, M]) Lookup(h Handle[N]) *M {
	if h.IsEmpty() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookupLocked(h)
}

func (c *IdentityCache[N, M]) lookupLocked(h Handle[N]) *M {
	ptr, ok := c.entries[h.Address()]
	if !ok {
		return nil
	}
	if v := ptr.Value(); v != nil {
		return v
	}
	delete(c.entries, h.Address())
	return nil
}

// GetOrCreate returns the live managed value for h, calling factory to
// create and intern one if there is none. It returns nil for an empty h
// or if factory returns nil.
//
// factory runs with the cache locked and must not call back into c.
func (c *IdentityCache[N, M]) GetOrCreate(h Handle[N], factory func(Handle[N]) *M) *M {
	if h.IsEmpty() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if v := c.lookupLocked(h); v != nil {
		return v
	}

	v := factory(h)
	if v == nil {
		return nil
	}
	ptr := weak.Make(v)
	if c.entries == nil {
		c.entries = make(map[uintptr]weak.Pointer[M])
	}
	c.entries[h.Address()] = ptr
	runtime.AddCleanup(v, c.evict, cacheEntry[M]{key: h.Address(), ptr: ptr})
	return v
}

// evict deletes the entry only if it still refers to the collected value,
// so a newer value interned at the same address survives.
func (c *IdentityCache[N, M]) evict(e cacheEntry[M]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.entries[e.key]; ok && cur == e.ptr {
		delete(c.entries, e.key)
	}
}

// Forget removes the entry for h regardless of liveness. Facades call it
// when the native object at h is freed, since the address may be reused.
func (c *IdentityCache[N, M]) Forget(h Handle[N]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, h.Address())
}

// Sweep removes every entry whose value has been collected and returns
// how many were removed. It is never required for correctness.
func (c *IdentityCache[N, M]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for addr, ptr := range c.entries {
		if ptr.Value() == nil {
			delete(c.entries, addr)
			n++
		}
	}
	return n
}

// Len returns the number of physical entries, including dead ones not yet
// swept.
func (c *IdentityCache[N, M]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
