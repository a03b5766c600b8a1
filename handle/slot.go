// File: slot.go
// Role: generic, versioned slot table shared by every identity kind in the
// engine (nodes, edges, graph values, forwarding entries).
// Determinism:
//   - Live() returns handles ordered by Index ascending so downstream
//     consumers (traversal, diffing, tests) see a stable order.
//   - Allocation is LIFO over the free-list (most recently freed slot is
//     reused first) then append; for a fixed call sequence this is
//     reproducible.
// Concurrency:
//   - Table is unsynchronized by design: all structural mutation happens on
//     the NodeSet's owning thread, so adding locks here would
//     only hide misuse. Read-only packages that need concurrent reads
//     (graph values, scheduler) copy out of Table before fan-out.
package handle

// slot holds one occupant (or, when free, is linked into the free-list via
// nextFree) plus a version counter. version is odd while occupied is never
// required; it simply increments on every free so stale handles compare
// unequal.
type slot[T any] struct {
	value    T
	version  uint32
	occupied bool
	nextFree uint32 // valid only when !occupied; index of next free slot, or freeListEnd
}

const freeListEnd = ^uint32(0)

// Table is a generational slot table for payload type T, keyed by SetID so
// handles from a foreign set are rejected rather than misinterpreted.
type Table[T any] struct {
	set      SetID
	slots    []slot[T]
	freeHead uint32 // index of first free slot, or freeListEnd
	count    int    // number of occupied slots
}

// NewTable creates an empty slot table owned by set.
func NewTable[T any](set SetID) *Table[T] {
	return &Table[T]{set: set, freeHead: freeListEnd}
}

// Set returns the SetID this table was created for.
func (t *Table[T]) Set() SetID { return t.set }

// Len returns the number of currently occupied slots.
func (t *Table[T]) Len() int { return t.count }

// Alloc inserts value into a free slot (reusing a destroyed slot's index
// when one is available, else extending the table) and returns the
// resulting Handle. Complexity: O(1) amortized.
func (t *Table[T]) Alloc(value T) Handle {
	var idx uint32
	if t.freeHead != freeListEnd {
		idx = t.freeHead
		t.freeHead = t.slots[idx].nextFree
		s := &t.slots[idx]
		s.value = value
		s.occupied = true
		// version was already bumped on Free; a fresh slot starts at 1.
	} else {
		idx = uint32(len(t.slots))
		t.slots = append(t.slots, slot[T]{value: value, version: 1, occupied: true})
	}
	t.count++

	return Handle{Set: t.set, Index: idx, Version: t.slots[idx].version}
}

// Exists reports whether h currently denotes a live occupant of this
// table: same SetID, in-range index, occupied slot, matching version.
// Never panics on a malformed handle. Complexity: O(1).
func (t *Table[T]) Exists(h Handle) bool {
	if h.Set != t.set {
		return false
	}
	if int(h.Index) >= len(t.slots) {
		return false
	}
	s := &t.slots[h.Index]

	return s.occupied && s.version == h.Version
}

// Validate checks h exactly once and, if live, returns a Validated handle
// plus true: a Handle must always be re-checked, a Validated handle is
// checked once and safe to carry through a hot path without rechecking.
func (t *Table[T]) Validate(h Handle) (Validated, bool) {
	if !t.Exists(h) {
		return Validated{}, false
	}

	return Validated{h: h}, true
}

// Get returns a pointer to the live value for h, or nil and false if h is
// stale, out of range, or from a different set. The returned pointer is
// invalidated by any subsequent Free of the same slot.
func (t *Table[T]) Get(h Handle) (*T, bool) {
	if !t.Exists(h) {
		return nil, false
	}

	return &t.slots[h.Index].value, true
}

// MustGet dereferences v's slot without re-checking liveness; reserved
// for call sites that hold a Validated handle minted this tick and
// therefore know the slot is live. If the slot was freed since v was
// validated, MustGet returns whatever the slot now holds (the freed value
// or a later occupant) rather than failing.
func (t *Table[T]) MustGet(v Validated) *T {
	return &t.slots[v.h.Index].value
}

// Free destroys the occupant at h, bumping the slot's version so any copy
// of h (or a Validated derived from it) is detected as stale, and returns
// the slot to the free-list. Returns ErrInvalidHandle if h is not
// currently live. Complexity: O(1).
func (t *Table[T]) Free(h Handle) error {
	if !t.Exists(h) {
		return ErrInvalidHandle
	}
	s := &t.slots[h.Index]
	var zero T
	s.value = zero
	s.occupied = false
	s.version++ // next occupant of this slot gets a different version
	s.nextFree = t.freeHead
	t.freeHead = h.Index
	t.count--

	return nil
}

// Live returns the handles of every currently occupied slot, ordered by
// Index ascending. Complexity: O(capacity).
func (t *Table[T]) Live() []Handle {
	out := make([]Handle, 0, t.count)
	for i := range t.slots {
		if t.slots[i].occupied {
			out = append(out, Handle{Set: t.set, Index: uint32(i), Version: t.slots[i].version})
		}
	}

	return out
}

// Range calls fn for every live (Handle, *T) pair in Index order, stopping
// early if fn returns false.
func (t *Table[T]) Range(fn func(Handle, *T) bool) {
	for i := range t.slots {
		if !t.slots[i].occupied {
			continue
		}
		h := Handle{Set: t.set, Index: uint32(i), Version: t.slots[i].version}
		if !fn(h, &t.slots[i].value) {
			return
		}
	}
}
