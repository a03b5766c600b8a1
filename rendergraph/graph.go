// File: graph.go
// Role: Graph ties kernel storage, output slots, and patched input sources
// together: the render graph's public surface.
// Concurrency:
//   - Graph is unsynchronized for structural operations (AllocateBuffer,
//     Patch, SetData): the owning NodeSet serializes these on the main
//     thread, matching topology.Database and forward.Table.
//   - WriteOutput/ReadOutput are called from kernel goroutines during
//     execution; callers (the scheduler) guarantee the parent-writes-
//     before-child-reads happens-before ordering, so no additional
//     locking is needed here.
package rendergraph

import (
	"reflect"

	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/port"
	"github.com/arborix/dataflowgraph/topology"
)

type portKey struct {
	node handle.Handle
	port port.ID
}

type inputKey struct {
	node handle.Handle
	ref  port.Ref
}

// InputDescriptor is one data input the caller (engine) wants patched;
// rendergraph does not own the node definition registry, so Patch takes
// the full catalog explicitly each call, mirroring topology's
// PortResolver decoupling.
type InputDescriptor struct {
	Node        handle.Handle
	Ref         port.Ref
	ElementType reflect.Type
}

// Graph is the render graph for one NodeSet.
type Graph struct {
	blanks  *port.BlankPages
	storage map[handle.Handle]*KernelStorage
	outputs map[portKey]*outputSlot

	sources         map[inputKey]Source
	pendingLiterals map[inputKey]any
}

// NewGraph creates an empty render graph sharing blanks with the rest of
// the NodeSet (one blank page per element type process-wide per set).
func NewGraph(blanks *port.BlankPages) *Graph {
	return &Graph{
		blanks:          blanks,
		storage:         make(map[handle.Handle]*KernelStorage),
		outputs:         make(map[portKey]*outputSlot),
		sources:         make(map[inputKey]Source),
		pendingLiterals: make(map[inputKey]any),
	}
}

// Storage returns node's kernel storage, creating an empty one on first
// use (called when a node is created, per the diff's CreatedNodes list).
func (g *Graph) Storage(node handle.Handle) *KernelStorage {
	s, ok := g.storage[node]
	if !ok {
		s = &KernelStorage{}
		g.storage[node] = s
	}

	return s
}

// ReleaseStorage drops node's kernel storage and every output slot it
// owns, called when a node is destroyed (diff.DestroyedNode).
func (g *Graph) ReleaseStorage(node handle.Handle) {
	delete(g.storage, node)
	for k := range g.outputs {
		if k.node == node {
			delete(g.outputs, k)
		}
	}
}

// AllocateBuffer (re)allocates node's output port desc to hold n elements
// (scalar ports ignore n). For an aggregate port (desc.IsAggregate()),
// descs' offsets/lengths drive per-sub-buffer allocation instead.
func (g *Graph) AllocateBuffer(node handle.Handle, p port.ID, desc port.Description, n int) {
	key := portKey{node: node, port: p}
	slot, ok := g.outputs[key]
	if !ok {
		slot = &outputSlot{}
		g.outputs[key] = slot
	}

	switch {
	case desc.IsAggregate():
		slot.allocateAggregate(desc.Buffers, desc.ElementType)
	case desc.IsArray:
		slot.resizeArray(n, desc.ElementType)
	default:
		if slot.scalar == nil {
			slot.scalar = reflect.Zero(desc.ElementType).Interface()
		}
	}
}

// WriteOutput stores value as the current content of node's output ref,
// called by a kernel (or the main thread for a DomainSpecific producer)
// once it finishes computing that output.
func (g *Graph) WriteOutput(node handle.Handle, ref port.Ref, value any) {
	key := portKey{node: node, port: ref.Port}
	slot, ok := g.outputs[key]
	if !ok {
		slot = &outputSlot{}
		g.outputs[key] = slot
	}
	if ref.IsArrayElement() {
		if int(ref.Index) < len(slot.array) {
			slot.array[ref.Index] = value
		}

		return
	}
	slot.scalar = value
}

// WriteAggregateOutput stores value into the named sub-buffer slot index
// of an aggregate output.
func (g *Graph) WriteAggregateOutput(node handle.Handle, p port.ID, bufferName string, index int, value any) {
	key := portKey{node: node, port: p}
	slot, ok := g.outputs[key]
	if !ok {
		return
	}
	buf, ok := slot.buffers[bufferName]
	if !ok || index < 0 || index >= len(buf) {
		return
	}
	buf[index] = value
}

// readOutputRaw is the Source-facing read path: resolves node's output ref
// to its current stored value.
func (g *Graph) readOutputRaw(node handle.Handle, ref port.Ref) (any, bool) {
	slot, ok := g.outputs[portKey{node: node, port: ref.Port}]
	if !ok {
		return nil, false
	}
	if ref.IsArrayElement() {
		if int(ref.Index) < 0 || int(ref.Index) >= len(slot.array) {
			return nil, false
		}

		return slot.array[ref.Index], true
	}

	return slot.scalar, true
}

// ReadOutput is the public read-back path used by graphvalue:
// a copy of the last produced value for node's output ref.
func (g *Graph) ReadOutput(node handle.Handle, ref port.Ref) (any, bool) {
	return g.readOutputRaw(node, ref)
}

// SetData records a one-shot main-thread write to a data input: consumed by the next Patch call, after which the input reverts
// to its connected edge or blank-page source.
func (g *Graph) SetData(node handle.Handle, ref port.Ref, value any) {
	g.pendingLiterals[inputKey{node: node, ref: ref}] = value
}

// ReadInput resolves node's input ref through its currently patched
// source (edge, blank page, or pending literal).
func (g *Graph) ReadInput(node handle.Handle, ref port.Ref) (any, bool) {
	src, ok := g.sources[inputKey{node: node, ref: ref}]
	if !ok {
		return nil, false
	}

	return src.Read()
}

// Patch recomputes every input's source from the current topology: a connected data-flow input
// resolves to its producer's output; an unconnected one resolves to the
// blank page for its element type; a pending SetData write takes priority
// over both, once, and is cleared afterward. Callers re-run Patch whenever
// topology changes, a buffer is resized, an entity moves, or SetData is
// called.
func (g *Graph) Patch(db *topology.Database, inputs []InputDescriptor) {
	next := make(map[inputKey]Source, len(inputs))
	for _, in := range inputs {
		key := inputKey{node: in.Node, ref: in.Ref}
		if lit, ok := g.pendingLiterals[key]; ok {
			next[key] = literalSource{value: lit}
			delete(g.pendingLiterals, key)
			continue
		}
		if srcNode, srcPort, ok := findDataFlowSource(db, in.Node, in.Ref); ok {
			next[key] = edgeSource{graph: g, srcNode: srcNode, srcPort: srcPort}
			continue
		}
		next[key] = blankSource{value: g.blanks.For(in.ElementType)}
	}
	g.sources = next
}

// findDataFlowSource looks up the live data-flow edge (if any) feeding
// node's ref, returning its source endpoint.
func findDataFlowSource(db *topology.Database, node handle.Handle, ref port.Ref) (handle.Handle, port.Ref, bool) {
	for _, eh := range db.InEdges(node) {
		e, ok := db.Edge(eh)
		if !ok || e.Category != topology.DataFlow {
			continue
		}
		if e.DstPort == ref {
			return e.Src, e.SrcPort, true
		}
	}

	return handle.Handle{}, port.Ref{}, false
}
