// File: unionfind.go
// Role: union-find over traversal-mask edges among live nodes.
package traversal

import "github.com/arborix/dataflowgraph/handle"

// unionFind is a standard path-halving, union-by-size disjoint-set
// structure keyed by node handle.
type unionFind struct {
	parent map[handle.Handle]handle.Handle
	size   map[handle.Handle]int
}

func newUnionFind(nodes []handle.Handle) *unionFind {
	uf := &unionFind{parent: make(map[handle.Handle]handle.Handle, len(nodes)), size: make(map[handle.Handle]int, len(nodes))}
	for _, n := range nodes {
		uf.parent[n] = n
		uf.size[n] = 1
	}

	return uf
}

func (uf *unionFind) find(n handle.Handle) handle.Handle {
	for uf.parent[n] != n {
		uf.parent[n] = uf.parent[uf.parent[n]] // path halving
		n = uf.parent[n]
	}

	return n
}

func (uf *unionFind) union(a, b handle.Handle) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.size[ra] < uf.size[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	uf.size[ra] += uf.size[rb]
}
