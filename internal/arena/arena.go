// Package arena provides slot storage with generation-checked handles.
//
// A slot index is recycled after Release, but its generation is bumped so a
// handle taken before the release no longer resolves. Generation 0 is never
// handed out, which makes the zero Handle permanently invalid.
package arena

import "fmt"

// Handle identifies one allocation in an Arena.
type Handle struct {
	Index uint32
	Gen   uint32
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool {
	return h.Gen == 0
}

// String returns "index.gen".
func (h Handle) String() string {
	return fmt.Sprintf("%d.%d", h.Index, h.Gen)
}

type entry[T any] struct {
	gen  uint32
	live bool
	item T
}

// Arena stores items of type T in reusable slots.
// It is not safe for concurrent use.
type Arena[T any] struct {
	entries []entry[T]
	free    []uint32
	live    int
}

// Alloc stores item in a free slot (or a new one) and returns its handle.
func (a *Arena[T]) Alloc(item T) Handle {
	a.live++

	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		e := &a.entries[idx]
		e.live = true
		e.item = item
		return Handle{Index: idx, Gen: e.gen}
	}

	idx := uint32(len(a.entries))
	a.entries = append(a.entries, entry[T]{gen: 1, live: true, item: item})
	return Handle{Index: idx, Gen: 1}
}

// Get returns a pointer to the item for h, or false if h is stale or unknown.
// The pointer is valid until the next Alloc.
func (a *Arena[T]) Get(h Handle) (*T, bool) {
	if int(h.Index) >= len(a.entries) {
		return nil, false
	}
	e := &a.entries[h.Index]
	if !e.live || e.gen != h.Gen {
		return nil, false
	}
	return &e.item, true
}

// Contains reports whether h resolves to a live item.
func (a *Arena[T]) Contains(h Handle) bool {
	_, ok := a.Get(h)
	return ok
}

// Release frees the slot for h and invalidates every copy of h.
// It returns the released item, or false if h was already stale.
func (a *Arena[T]) Release(h Handle) (T, bool) {
	var zero T
	if !a.Contains(h) {
		return zero, false
	}

	e := &a.entries[h.Index]
	item := e.item
	e.item = zero
	e.live = false
	e.gen++
	if e.gen == 0 {
		e.gen = 1
	}
	a.free = append(a.free, h.Index)
	a.live--
	return item, true
}

// Len returns the number of live items.
func (a *Arena[T]) Len() int {
	return a.live
}

// Cap returns the number of slots ever allocated, live or free.
func (a *Arena[T]) Cap() int {
	return len(a.entries)
}

// Each calls fn for every live item in slot order. fn must not Alloc or Release.
func (a *Arena[T]) Each(fn func(Handle, *T)) {
	for i := range a.entries {
		e := &a.entries[i]
		if e.live {
			fn(Handle{Index: uint32(i), Gen: e.gen}, &e.item)
		}
	}
}

// Reset releases every live item. Slots are kept and their generations
// bumped, so handles issued before Reset stay stale.
func (a *Arena[T]) Reset() {
	var zero T
	a.free = a.free[:0]
	for i := len(a.entries) - 1; i >= 0; i-- {
		e := &a.entries[i]
		if e.live {
			e.item = zero
			e.live = false
			e.gen++
			if e.gen == 0 {
				e.gen = 1
			}
		}
		a.free = append(a.free, uint32(i))
	}
	a.live = 0
}
