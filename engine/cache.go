// File: cache.go
// Role: the read-only query surface over the traversal cache: group
// lookup, counts, and cycle reporting, so a caller never needs to
// import the traversal package directly.
package engine

import (
	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/traversal"
)

// GroupCount returns the number of groups in the current traversal cache.
// The cache is empty until the first Update call builds it.
func (ns *NodeSet) GroupCount() int {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if ns.cache == nil {
		return 0
	}

	return len(ns.cache.Groups)
}

// Group returns the i'th traversal group (0-indexed, in rebuild order).
func (ns *NodeSet) Group(i int) (*traversal.Group, bool) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if ns.cache == nil || i < 0 || i >= len(ns.cache.Groups) {
		return nil, false
	}

	return ns.cache.Groups[i], true
}

// GroupOf returns the traversal group node currently belongs to.
func (ns *NodeSet) GroupOf(node handle.Handle) (*traversal.Group, bool) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if ns.cache == nil {
		return nil, false
	}

	return ns.cache.GroupOf(node)
}

// CacheReady reports whether every group in the current cache is Valid or
// CyclesDetected. A never-built
// cache (no Update call yet) is trivially ready.
func (ns *NodeSet) CacheReady() bool {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if ns.cache == nil {
		return true
	}

	return ns.cache.Ready()
}
