// File: database.go
// Role: edge table + per-node input/output adjacency + topology version
// counter.
// Determinism:
//   - adjacency slices preserve Connect arrival order.
// Concurrency:
//   - Database is unsynchronized; the owning NodeSet serializes all
//     structural mutation onto one thread.
package topology

import (
	"sync/atomic"

	"github.com/arborix/dataflowgraph/handle"
)

// adjacency holds one node's incident edges, split into inputs and
// outputs, each in Connect-arrival order.
type adjacency struct {
	in  []handle.Handle
	out []handle.Handle
}

// Database is the topology database: an edge table plus per-node
// adjacency. version is bumped on every structural mutation (Connect,
// Disconnect, node removal that drops edges) so the traversal cache
// can detect staleness cheaply.
type Database struct {
	resolver PortResolver
	edges    *handle.Table[Edge]
	adj      map[handle.Handle]*adjacency
	version  uint64
}

// NewDatabase creates an empty topology database for the given set,
// resolving port descriptions through resolver.
func NewDatabase(set handle.SetID, resolver PortResolver) *Database {
	return &Database{
		resolver: resolver,
		edges:    handle.NewTable[Edge](set),
		adj:      make(map[handle.Handle]*adjacency),
	}
}

// Version returns the current topology version. The traversal cache is
// consistent with the database exactly when their versions match.
func (d *Database) Version() uint64 { return atomic.LoadUint64(&d.version) }

func (d *Database) bump() { atomic.AddUint64(&d.version, 1) }

func (d *Database) adjOf(n handle.Handle) *adjacency {
	a, ok := d.adj[n]
	if !ok {
		a = &adjacency{}
		d.adj[n] = a
	}

	return a
}

// InEdges returns node's input-edge handles in Connect-arrival order.
func (d *Database) InEdges(node handle.Handle) []handle.Handle {
	if a, ok := d.adj[node]; ok {
		return a.in
	}

	return nil
}

// OutEdges returns node's output-edge handles in Connect-arrival order.
func (d *Database) OutEdges(node handle.Handle) []handle.Handle {
	if a, ok := d.adj[node]; ok {
		return a.out
	}

	return nil
}

// Edge looks up an edge by handle.
func (d *Database) Edge(h handle.Handle) (Edge, bool) {
	e, ok := d.edges.Get(h)
	if !ok {
		return Edge{}, false
	}

	return *e, true
}

// EdgeHandles returns every live edge handle, ordered by allocation
// index for deterministic enumeration.
func (d *Database) EdgeHandles() []handle.Handle { return d.edges.Live() }

// RemoveNode drops every edge incident to node (both directions),
// atomically with respect to the caller's current mutation batch:
// destroying a node removes all incident edges before the next tick
// observes it. The node's own adjacency entry is deleted.
func (d *Database) RemoveNode(node handle.Handle) {
	a, ok := d.adj[node]
	if !ok {
		return
	}
	// Copy before iterating: disconnectEdge mutates the other endpoint's
	// adjacency slice, which may alias a.in/a.out on a self-loop.
	ins := append([]handle.Handle(nil), a.in...)
	outs := append([]handle.Handle(nil), a.out...)
	for _, eh := range ins {
		d.removeEdgeHandle(eh)
	}
	for _, eh := range outs {
		d.removeEdgeHandle(eh)
	}
	delete(d.adj, node)
}

func (d *Database) removeEdgeHandle(eh handle.Handle) {
	e, ok := d.edges.Get(eh)
	if !ok {
		return // already removed via the other endpoint
	}
	edge := *e
	removeFrom(&d.adjOf(edge.Src).out, eh)
	removeFrom(&d.adjOf(edge.Dst).in, eh)
	_ = d.edges.Free(eh)
	d.bump()
}

func removeFrom(list *[]handle.Handle, h handle.Handle) {
	s := *list
	for i, v := range s {
		if v == h {
			*list = append(s[:i], s[i+1:]...)
			return
		}
	}
}
