// File: table.go
// Role: forwarding entries and the Resolve rewrite.
// Determinism:
//   - At most one Entry may exist for a given (owningNode, outerPort,
//     direction); registering a second is rejected rather than silently
//     shadowing the first.
// Concurrency:
//   - Table is unsynchronized; callers serialize through the owning
//     NodeSet, matching every other structural-mutation package.
package forward

import (
	"errors"

	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/port"
)

// ErrAlreadyForwarded is returned when registering a second Entry for the
// same (owningNode, outerPort, direction).
var ErrAlreadyForwarded = errors.New("forward: outer port already forwarded")

// Entry redirects an outer node's port onto an inner node's port.
type Entry struct {
	OwningNode handle.Handle
	OuterPort  port.Ref
	InnerNode  handle.Handle
	InnerPort  port.Ref
	Direction  port.Direction
}

type key struct {
	node      handle.Handle
	p         port.Ref
	direction port.Direction
}

// Table stores forwarding entries, keyed for O(1) Resolve.
type Table struct {
	entries *handle.Table[Entry]
	byKey   map[key]handle.Handle
	byOwner map[handle.Handle][]handle.Handle
}

// NewTable creates an empty forwarding table for set.
func NewTable(set handle.SetID) *Table {
	return &Table{
		entries: handle.NewTable[Entry](set),
		byKey:   make(map[key]handle.Handle),
		byOwner: make(map[handle.Handle][]handle.Handle),
	}
}

// Add registers a new forwarding entry. Returns ErrAlreadyForwarded if the
// (owningNode, outerPort, direction) triple is already forwarded.
func (t *Table) Add(e Entry) (handle.Handle, error) {
	k := key{node: e.OwningNode, p: e.OuterPort, direction: e.Direction}
	if _, exists := t.byKey[k]; exists {
		return handle.Handle{}, ErrAlreadyForwarded
	}
	h := t.entries.Alloc(e)
	t.byKey[k] = h
	t.byOwner[e.OwningNode] = append(t.byOwner[e.OwningNode], h)

	return h, nil
}

// Remove deletes a forwarding entry by handle.
func (t *Table) Remove(h handle.Handle) {
	e, ok := t.entries.Get(h)
	if !ok {
		return
	}
	entry := *e
	k := key{node: entry.OwningNode, p: entry.OuterPort, direction: entry.Direction}
	delete(t.byKey, k)
	list := t.byOwner[entry.OwningNode]
	for i, v := range list {
		if v == h {
			t.byOwner[entry.OwningNode] = append(list[:i], list[i+1:]...)
			break
		}
	}
	_ = t.entries.Free(h)
}

// RemoveOwner deletes every forwarding entry owned by node, called when
// node is destroyed.
func (t *Table) RemoveOwner(node handle.Handle) {
	for _, h := range append([]handle.Handle(nil), t.byOwner[node]...) {
		t.Remove(h)
	}
	delete(t.byOwner, node)
}

// Resolve rewrites (node, ref) to its forwarded (innerNode, innerRef) if a
// forwarding entry exists for that exact (node, ref, direction), else
// returns the input unchanged and false. Forwarding is not transitive:
// callers that need to resolve chained containers call Resolve again on
// the result.
func (t *Table) Resolve(node handle.Handle, ref port.Ref, direction port.Direction) (handle.Handle, port.Ref, bool) {
	h, ok := t.byKey[key{node: node, p: ref, direction: direction}]
	if !ok {
		return node, ref, false
	}
	e, ok := t.entries.Get(h)
	if !ok {
		return node, ref, false
	}

	return e.InnerNode, e.InnerPort, true
}

// ResolveDeep repeatedly applies Resolve until no further forwarding
// entry matches, guarding against a misconfigured cycle with a hop limit.
func (t *Table) ResolveDeep(node handle.Handle, ref port.Ref, direction port.Direction) (handle.Handle, port.Ref) {
	const maxHops = 64
	for i := 0; i < maxHops; i++ {
		n, r, rewritten := t.Resolve(node, ref, direction)
		if !rewritten {
			return node, ref
		}
		node, ref = n, r
	}

	return node, ref
}
