// File: sort.go
// Role: per-group linearization: GlobalBreadthFirst (Kahn's algorithm)
// and LocalDepthFirst (iterative DFS), both deterministic with
// Connect-arrival order as tiebreaker.
package traversal

import (
	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/topology"
)

// maskedOutNeighbors returns node's out-edges within mask, in
// Connect-arrival order, as (dstNode, edgeHandle) pairs.
func maskedOutNeighbors(db *topology.Database, node handle.Handle, mask topology.TraversalMask) []struct {
	Dst  handle.Handle
	Edge handle.Handle
} {
	var out []struct {
		Dst  handle.Handle
		Edge handle.Handle
	}
	for _, eh := range db.OutEdges(node) {
		e, ok := db.Edge(eh)
		if !ok || !mask.Contains(e.Category) {
			continue
		}
		out = append(out, struct {
			Dst  handle.Handle
			Edge handle.Handle
		}{Dst: e.Dst, Edge: eh})
	}

	return out
}

// indegrees computes, for each member, the count of its in-edges under
// mask whose source is also a member of this component.
func indegrees(db *topology.Database, members []handle.Handle, mask topology.TraversalMask) map[handle.Handle]int {
	set := make(map[handle.Handle]bool, len(members))
	for _, n := range members {
		set[n] = true
	}
	deg := make(map[handle.Handle]int, len(members))
	for _, n := range members {
		deg[n] = 0
	}
	for _, n := range members {
		for _, eh := range db.InEdges(n) {
			e, ok := db.Edge(eh)
			if !ok || !mask.Contains(e.Category) {
				continue
			}
			if set[e.Src] {
				deg[n]++
			}
		}
	}

	return deg
}

// sortResult is the linearization of one component: Ordered runs
// leaves-first (sources) to roots-last (sinks); Cyclic is true iff the
// algorithm could not emit every member.
type sortResult struct {
	Ordered []handle.Handle
	Cyclic  bool
}

// sortGlobalBreadthFirst implements Kahn's algorithm: a FIFO seeded by
// every member with zero masked in-degree, dequeuing in arrival order.
func sortGlobalBreadthFirst(db *topology.Database, members []handle.Handle, mask topology.TraversalMask) sortResult {
	deg := indegrees(db, members, mask)

	queue := make([]handle.Handle, 0, len(members))
	for _, n := range members { // members is already in deterministic order
		if deg[n] == 0 {
			queue = append(queue, n)
		}
	}

	ordered := make([]handle.Handle, 0, len(members))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		ordered = append(ordered, n)

		for _, nb := range maskedOutNeighbors(db, n, mask) {
			deg[nb.Dst]--
			if deg[nb.Dst] == 0 {
				queue = append(queue, nb.Dst)
			}
		}
	}

	return sortResult{Ordered: ordered, Cyclic: len(ordered) < len(members)}
}

// dfsColor marks each node's visitation state during LocalDepthFirst:
// unvisited, on the current DFS stack, or fully processed.
type dfsColor uint8

const (
	dfsWhite dfsColor = iota
	dfsGray
	dfsBlack
)

// dfsFrame is one level of an explicit-stack DFS, emulating recursion
// without growing the Go call stack for deep chains.
type dfsFrame struct {
	node     handle.Handle
	children []struct {
		Dst  handle.Handle
		Edge handle.Handle
	}
	next int
}

// sortLocalDepthFirst implements iterative DFS from each zero-in-degree
// member, in arrival order, recording post-order and reversing it into a
// leaves-first topological order. A back-edge (child already on the
// stack) marks the component cyclic but does not abort the traversal:
// every white node is still visited so the render graph's downstream
// bookkeeping for the group stays complete.
func sortLocalDepthFirst(db *topology.Database, members []handle.Handle, mask topology.TraversalMask) sortResult {
	color := make(map[handle.Handle]dfsColor, len(members))
	for _, n := range members {
		color[n] = dfsWhite
	}

	deg := indegrees(db, members, mask)
	starts := make([]handle.Handle, 0, len(members))
	for _, n := range members {
		if deg[n] == 0 {
			starts = append(starts, n)
		}
	}
	// Every node must eventually be visited even if none of the arrival
	// order's zero-indegree nodes can reach it (pure-cycle components
	// have no zero-indegree member at all).
	starts = append(starts, members...)

	var postorder []handle.Handle
	cyclic := false
	var stack []*dfsFrame

	for _, start := range starts {
		if color[start] != dfsWhite {
			continue
		}
		stack = append(stack, &dfsFrame{node: start, children: maskedOutNeighbors(db, start, mask)})
		color[start] = dfsGray

		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.next >= len(top.children) {
				color[top.node] = dfsBlack
				postorder = append(postorder, top.node)
				stack = stack[:len(stack)-1]
				continue
			}
			child := top.children[top.next]
			top.next++
			switch color[child.Dst] {
			case dfsWhite:
				color[child.Dst] = dfsGray
				stack = append(stack, &dfsFrame{node: child.Dst, children: maskedOutNeighbors(db, child.Dst, mask)})
			case dfsGray:
				cyclic = true // back-edge: child is an ancestor on the current path
			case dfsBlack:
				// cross/forward edge to an already-finished node: fine.
			}
		}
	}

	ordered := make([]handle.Handle, len(postorder))
	for i, n := range postorder {
		ordered[len(postorder)-1-i] = n
	}

	return sortResult{Ordered: ordered, Cyclic: cyclic || len(ordered) < len(members)}
}
