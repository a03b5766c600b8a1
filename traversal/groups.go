// File: groups.go
// Role: grouping step: union-find over traversal-mask edges among live
// nodes; isolated nodes form singleton groups.
package traversal

import (
	"sort"

	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/topology"
)

// buildComponents partitions liveNodes into maximal connected components
// under mask, returning each component's members ordered by their
// position in liveNodes (stable, deterministic).
func buildComponents(db *topology.Database, liveNodes []handle.Handle, mask topology.TraversalMask) [][]handle.Handle {
	uf := newUnionFind(liveNodes)
	liveSet := make(map[handle.Handle]bool, len(liveNodes))
	for _, n := range liveNodes {
		liveSet[n] = true
	}

	for _, n := range liveNodes {
		for _, eh := range db.OutEdges(n) {
			e, ok := db.Edge(eh)
			if !ok || !mask.Contains(e.Category) {
				continue
			}
			if !liveSet[e.Dst] {
				continue
			}
			uf.union(n, e.Dst)
		}
	}

	order := make(map[handle.Handle]int, len(liveNodes))
	for i, n := range liveNodes {
		order[n] = i
	}

	byRoot := make(map[handle.Handle][]handle.Handle)
	rootOrder := make(map[handle.Handle]int)
	for _, n := range liveNodes {
		r := uf.find(n)
		if _, seen := rootOrder[r]; !seen {
			rootOrder[r] = order[n]
		}
		byRoot[r] = append(byRoot[r], n)
	}

	roots := make([]handle.Handle, 0, len(byRoot))
	for r := range byRoot {
		roots = append(roots, r)
	}
	sort.Slice(roots, func(i, j int) bool { return rootOrder[roots[i]] < rootOrder[roots[j]] })

	components := make([][]handle.Handle, 0, len(roots))
	for _, r := range roots {
		members := byRoot[r]
		sort.Slice(members, func(i, j int) bool { return order[members[i]] < order[members[j]] })
		components = append(components, members)
	}

	return components
}
