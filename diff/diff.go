// File: diff.go
// Role: Diff is the per-tick summary handed to the render graph; Apply
// drains a Queue against the topology database and forwarding table,
// producing one.
package diff

import (
	"github.com/arborix/dataflowgraph/forward"
	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/port"
	"github.com/arborix/dataflowgraph/topology"
)

// DestroyedNode records a node's handle and its definition, since the
// render graph needs the definition to release kernel storage correctly
// after the node itself is no longer resolvable.
type DestroyedNode struct {
	Node       handle.Handle
	Definition DefinitionID
}

// EdgeChange records an edge's full description alongside its handle: once
// an edge is disconnected it can no longer be queried from the topology
// database, so Apply captures it here for the render graph's repatch pass.
type EdgeChange struct {
	Edge handle.Handle
	Data topology.Edge
}

// ResizeEvent records a port array size change a render graph must repatch.
type ResizeEvent struct {
	Node    handle.Handle
	Port    port.Ref
	NewSize int
}

// MoveEvent records that an externally tracked entity's backing storage
// moved, requiring any port pointing at it to be repatched.
type MoveEvent struct {
	Node       handle.Handle
	NewPointer uintptr
}

// Diff is one tick's accumulated structural change set. Created fresh by
// Apply and meant to be consumed once, then discarded.
type Diff struct {
	CreatedNodes   []handle.Handle
	DestroyedNodes []DestroyedNode
	AddedEdges     []EdgeChange
	RemovedEdges   []EdgeChange
	Resizes        []ResizeEvent
	Moves          []MoveEvent
}

// Empty reports whether nothing changed this tick, letting the render
// graph skip its repatch pass entirely.
func (d *Diff) Empty() bool {
	return len(d.CreatedNodes) == 0 && len(d.DestroyedNodes) == 0 &&
		len(d.AddedEdges) == 0 && len(d.RemovedEdges) == 0 &&
		len(d.Resizes) == 0 && len(d.Moves) == 0
}

// Apply drains q and applies every queued structural command to db and
// fwd, in FIFO order, returning the resulting Diff. A command that fails
// (e.g. a Connect rejected by the topology database's compatibility
// rules) is skipped and its error collected; remaining commands still
// apply: the drain is one bundled step at tick start rather than an
// all-or-nothing transaction.
func Apply(q *Queue, db *topology.Database, fwd *forward.Table) (*Diff, []error) {
	cmds := q.drain()
	d := &Diff{}
	var errs []error

	for _, c := range cmds {
		switch c.kind {
		case kindCreateNode:
			d.CreatedNodes = append(d.CreatedNodes, c.node)

		case kindDestroyNode:
			for _, eh := range allIncidentEdges(db, c.node) {
				if e, ok := db.Edge(eh); ok {
					d.RemovedEdges = append(d.RemovedEdges, EdgeChange{Edge: eh, Data: e})
				}
			}
			db.RemoveNode(c.node)
			fwd.RemoveOwner(c.node)
			d.DestroyedNodes = append(d.DestroyedNodes, DestroyedNode{Node: c.node, Definition: c.definition})

		case kindConnect:
			eh, err := db.Connect(c.srcNode, c.srcPort, c.dstNode, c.dstPort, c.category)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if e, ok := db.Edge(eh); ok {
				d.AddedEdges = append(d.AddedEdges, EdgeChange{Edge: eh, Data: e})
			}

		case kindDisconnect:
			e, ok := db.Edge(c.edge)
			if !ok {
				errs = append(errs, topology.ErrEdgeNotFound)
				continue
			}
			if err := db.DisconnectHandle(c.edge); err != nil {
				errs = append(errs, err)
				continue
			}
			d.RemovedEdges = append(d.RemovedEdges, EdgeChange{Edge: c.edge, Data: e})

		case kindResizePortArray:
			d.Resizes = append(d.Resizes, ResizeEvent{Node: c.node, Port: c.port, NewSize: c.newSize})

		case kindMoveEntity:
			d.Moves = append(d.Moves, MoveEvent{Node: c.node, NewPointer: c.newPointer})
		}
	}

	return d, errs
}

// allIncidentEdges returns every in- and out-edge of node, used to record
// EdgeChange entries before RemoveNode strips them.
func allIncidentEdges(db *topology.Database, node handle.Handle) []handle.Handle {
	out := make([]handle.Handle, 0, 4)
	out = append(out, db.InEdges(node)...)
	out = append(out, db.OutEdges(node)...)

	return out
}
