// File: cache.go
// Role: orchestrates Rebuild — grouping, sorting, cycle detection,
// adjacency tables, per-group errors — and the incrementality check.
// Determinism:
//   - Rebuild is a pure function of (db, liveNodes, mask, altMask,
//     strategy, prev): replaying the same mutation sequence and
//     rebuilding each time yields an identical Cache to building once
//     from the final state, because every intermediate
//     step (grouping, sorting, link-building) is itself deterministic.
package traversal

import (
	"sort"

	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/topology"
)

// Cache is the traversal cache: every group's order, roots, leaves, and
// parent/child adjacency tables, as of a specific topology Version.
type Cache struct {
	Version   uint64
	Mask      topology.TraversalMask
	AltMask   topology.TraversalMask
	Strategy  Strategy
	Groups    []*Group
	nodeGroup map[handle.Handle]int
}

// Ready reports whether every group reached Valid or CyclesDetected.
func (c *Cache) Ready() bool {
	for _, g := range c.Groups {
		if g.State != Valid && g.State != CyclesDetected {
			return false
		}
	}

	return true
}

// GroupOf returns the group containing node, or nil and false if node is
// not live in this cache.
func (c *Cache) GroupOf(node handle.Handle) (*Group, bool) {
	i, ok := c.nodeGroup[node]
	if !ok {
		return nil, false
	}

	return c.Groups[i], true
}

// StaleAgainst reports whether this cache must be rebuilt before use
// against db: true whenever the versions differ.
func (c *Cache) StaleAgainst(db *topology.Database) bool {
	return c == nil || c.Version != db.Version()
}

// Rebuild produces a fresh Cache from db's current topology. prev (may be
// nil) supplies the last-known-good ordering for any group that turns out
// to be cyclic this time, so a cyclic group keeps its previous ordering
// for the rest of the tick.
func Rebuild(db *topology.Database, liveNodes []handle.Handle, mask, altMask topology.TraversalMask, strategy Strategy, prev *Cache) *Cache {
	components := buildComponents(db, liveNodes, mask)
	components = orderComponents(components, strategy)

	c := &Cache{
		Version:   db.Version(),
		Mask:      mask,
		AltMask:   altMask,
		Strategy:  strategy,
		Groups:    make([]*Group, 0, len(components)),
		nodeGroup: make(map[handle.Handle]int, len(liveNodes)),
	}

	for _, members := range components {
		var res sortResult
		if strategy == LocalDepthFirst {
			res = sortLocalDepthFirst(db, members, mask)
		} else {
			res = sortGlobalBreadthFirst(db, members, mask)
		}

		g := &Group{State: Sorted}
		if res.Cyclic {
			if reused := reuseFromPrev(prev, members); reused != nil {
				g = reused
			} else {
				g.Ordered = res.Ordered
			}
			g.Cyclic = true
			g.State = CyclesDetected
		} else {
			g.Ordered = res.Ordered
			g.State = Valid
		}

		indexGroup(g)
		buildLinks(db, g, mask, false)
		buildLinks(db, g, altMask, true)
		buildRootsLeaves(g, db, mask)

		groupIdx := len(c.Groups)
		c.Groups = append(c.Groups, g)
		// Map every member to this group, not just those that made it
		// into Ordered: a cyclic group with no reusable prior ordering
		// can have Ordered shorter than its membership, but the group
		// must still be the answer GroupOf gives for all its members.
		for _, n := range members {
			c.nodeGroup[n] = groupIdx
		}
	}

	return c
}

// orderComponents applies the group-level ordering LocalDepthFirst
// promises: orphans (singleton groups) are emitted first, then one
// connected island at a time. GlobalBreadthFirst keeps
// buildComponents' natural first-encountered order.
func orderComponents(components [][]handle.Handle, strategy Strategy) [][]handle.Handle {
	if strategy != LocalDepthFirst {
		return components
	}
	out := make([][]handle.Handle, 0, len(components))
	for _, m := range components {
		if len(m) == 1 {
			out = append(out, m)
		}
	}
	for _, m := range components {
		if len(m) > 1 {
			out = append(out, m)
		}
	}

	return out
}

// reuseFromPrev finds a group in prev whose member set exactly matches
// members, for reuse when this rebuild finds the same component cyclic
// again.
func reuseFromPrev(prev *Cache, members []handle.Handle) *Group {
	if prev == nil || len(members) == 0 {
		return nil
	}
	gi, ok := prev.nodeGroup[members[0]]
	if !ok {
		return nil
	}
	candidate := prev.Groups[gi]
	if candidate.Len() != len(members) {
		return nil
	}
	for _, m := range members {
		if candidate.PositionOf(m) < 0 {
			return nil
		}
	}

	return candidate
}

func indexGroup(g *Group) {
	g.index = make(map[handle.Handle]int, len(g.Ordered))
	for i, n := range g.Ordered {
		g.index[n] = i
	}
}

// buildLinks walks every ordered node's in/out lists once to fill parent_table/child_table (or the alt-mask
// equivalents) with links referring to positions in Ordered.
func buildLinks(db *topology.Database, g *Group, mask topology.TraversalMask, alt bool) {
	n := len(g.Ordered)
	parents := make([][]Link, n)
	children := make([][]Link, n)

	for i, node := range g.Ordered {
		for _, eh := range db.InEdges(node) {
			e, ok := db.Edge(eh)
			if !ok || !mask.Contains(e.Category) {
				continue
			}
			if j := g.PositionOf(e.Src); j >= 0 {
				parents[i] = append(parents[i], Link{NodeIndex: j, Edge: eh, LocalPort: e.DstPort, RemotePort: e.SrcPort})
			}
		}
		for _, eh := range db.OutEdges(node) {
			e, ok := db.Edge(eh)
			if !ok || !mask.Contains(e.Category) {
				continue
			}
			if j := g.PositionOf(e.Dst); j >= 0 {
				children[i] = append(children[i], Link{NodeIndex: j, Edge: eh, LocalPort: e.SrcPort, RemotePort: e.DstPort})
			}
		}
	}

	if alt {
		g.altPar, g.altChild = parents, children
	} else {
		g.parents, g.children = parents, children
	}
}

// buildRootsLeaves computes roots (no outgoing mask edge: sinks) and
// leaves (no incoming mask edge: sources). A leaf is what Kahn's
// algorithm seeds its FIFO with; an isolated node is both.
func buildRootsLeaves(g *Group, db *topology.Database, mask topology.TraversalMask) {
	for i := range g.Ordered {
		if len(g.children[i]) == 0 {
			g.roots = append(g.roots, i)
		}
		if len(g.parents[i]) == 0 {
			g.leaves = append(g.leaves, i)
		}
	}
	sort.Ints(g.roots)
	sort.Ints(g.leaves)
}
