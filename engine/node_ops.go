// File: node_ops.go
// Role: CreateNode/DestroyNode and the forwarding-table wrappers: the
// node lifecycle half of the external surface.
package engine

import (
	"fmt"

	"github.com/arborix/dataflowgraph/diff"
	"github.com/arborix/dataflowgraph/forward"
	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/port"
	"go.uber.org/zap"
)

// CreateNode allocates a node of definition def, constructs its
// simulation/kernel-data/kernel-state payloads, initializes its array
// ports to their definition's default sizes, runs Init if present, and
// returns the node's handle. The node exists immediately; Init may
// itself call DestroyNode(self) exactly once
// but must not otherwise leave the node half-constructed on error.
func (ns *NodeSet) CreateNode(def DefinitionID) (handle.Handle, error) {
	ns.mu.Lock()

	if err := ns.checkPoisoned("CreateNode"); err != nil {
		ns.mu.Unlock()

		return handle.Handle{}, err
	}

	nodeDef, ok := ns.defs.definition(def)
	if !ok {
		ns.mu.Unlock()

		return handle.Handle{}, newErr(CodeInvalidNodeDefinition, "CreateNode", fmt.Errorf("%w: definition %d", ErrInvalidNodeDefinition, def))
	}

	sizes := make(map[port.ID]int, len(nodeDef.ArraySizes))
	for id, n := range nodeDef.ArraySizes {
		sizes[id] = n
	}
	h := ns.nodes.Alloc(nodeRecord{def: def, arraySizes: sizes})

	storage := ns.rg.Storage(h)
	if nodeDef.NewSimulation != nil {
		storage.Simulation = nodeDef.NewSimulation()
	}
	if nodeDef.NewKernelData != nil {
		storage.KernelData = nodeDef.NewKernelData()
	}
	if nodeDef.NewKernelState != nil {
		storage.KernelState = nodeDef.NewKernelState()
	}
	for id, desc := range ns.defByPort(def) {
		if desc.Direction == port.Output {
			ns.rg.AllocateBuffer(h, id, desc, sizes[id])
		}
	}

	ns.pending.CreatedNodes = append(ns.pending.CreatedNodes, h)

	// Init runs with mu released: the lifecycle note permits a
	// constructor to call DestroyNode on itself exactly once, which
	// would deadlock against a mutex held across this call.
	init := nodeDef.Init
	ns.mu.Unlock()

	if init != nil {
		if err := init(&Context{ns: ns, Node: h}); err != nil {
			ns.mu.Lock()
			ns.poisoned = true
			ns.mu.Unlock()
			ns.logger.Error("node Init failed; set poisoned", zap.String("node", h.String()))

			return handle.Handle{}, newErr(CodeUndefinedBehavior, "CreateNode", err)
		}
	}

	return h, nil
}

// DestroyNode removes node's incident edges, forwarding entries, and
// render-graph storage, runs Destroy if present, and frees its handle.
// Graph values subscribed to node's outputs are unaffected: they keep
// existing and keep their last-known value.
func (ns *NodeSet) DestroyNode(node handle.Handle) error {
	ns.mu.Lock()

	if err := ns.checkPoisoned("DestroyNode"); err != nil {
		ns.mu.Unlock()

		return err
	}

	rec, ok := ns.nodes.Get(node)
	if !ok {
		ns.mu.Unlock()

		return newErr(classify(ErrNodeNotFound), "DestroyNode", ErrNodeNotFound)
	}
	def, _ := ns.defs.definition(rec.def)

	// Destroy runs with mu released, matching CreateNode/Init: a hook
	// that reaches back into the NodeSet must not deadlock against a
	// lock already held by this call.
	var destroy LifecycleFunc
	if def != nil {
		destroy = def.Destroy
	}
	ns.mu.Unlock()

	if destroy != nil {
		if err := destroy(&Context{ns: ns, Node: node}); err != nil {
			ns.mu.Lock()
			ns.poisoned = true
			ns.mu.Unlock()
			ns.logger.Error("node Destroy failed; set poisoned", zap.String("node", node.String()))

			return newErr(CodeUndefinedBehavior, "DestroyNode", err)
		}
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()

	rec, ok = ns.nodes.Get(node)
	if !ok {
		return newErr(classify(ErrNodeNotFound), "DestroyNode", ErrNodeNotFound)
	}

	// Capture incident edges before RemoveNode strips them, so the tick's
	// Diff still reports them as removed.
	for _, eh := range append(append([]handle.Handle(nil), ns.topo.InEdges(node)...), ns.topo.OutEdges(node)...) {
		if e, ok := ns.topo.Edge(eh); ok {
			ns.pending.RemovedEdges = append(ns.pending.RemovedEdges, diff.EdgeChange{Edge: eh, Data: e})
		}
	}

	ns.topo.RemoveNode(node)
	ns.fwd.RemoveOwner(node)
	ns.rg.ReleaseStorage(node)
	defID := rec.def
	_ = ns.nodes.Free(node)

	ns.pending.DestroyedNodes = append(ns.pending.DestroyedNodes, diff.DestroyedNode{Node: node, Definition: defID})

	return nil
}

// defByPort returns def's full port-description table, used to drive
// output-buffer allocation at CreateNode time.
func (ns *NodeSet) defByPort(def DefinitionID) map[port.ID]port.Description {
	if int(def) < 0 || int(def) >= len(ns.defs.defs) {
		return nil
	}

	return ns.defs.defs[def].byPort
}

// AddForwarding registers a forwarding entry redirecting
// (owner, outerPort, direction) onto (inner, innerPort).
func (ns *NodeSet) AddForwarding(owner handle.Handle, outerPort port.Ref, inner handle.Handle, innerPort port.Ref, direction port.Direction) (handle.Handle, error) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	h, err := ns.fwd.Add(forward.Entry{OwningNode: owner, OuterPort: outerPort, InnerNode: inner, InnerPort: innerPort, Direction: direction})
	if err != nil {
		return handle.Handle{}, newErr(classify(err), "AddForwarding", err)
	}

	return h, nil
}

// RemoveForwarding deletes a forwarding entry by handle.
func (ns *NodeSet) RemoveForwarding(h handle.Handle) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.fwd.Remove(h)
}
