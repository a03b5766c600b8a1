// File: edges.go
// Role: Connect/Disconnect and the port-array/data-input mutators: the
// edge half of the external surface.
package engine

import (
	"github.com/arborix/dataflowgraph/diff"
	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/port"
	"github.com/arborix/dataflowgraph/topology"
)

// Connect creates an edge from (src, srcPort) to (dst, dstPort),
// recorded as category (DataFlow, Feedback, Message, or DomainSpecific;
// a Message output onto a Data input is recorded as DataFlow
// automatically, per the topology database's own compatibility rule).
func (ns *NodeSet) Connect(src handle.Handle, srcPort port.Ref, dst handle.Handle, dstPort port.Ref, category topology.Category) (handle.Handle, error) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if err := ns.checkPoisoned("Connect"); err != nil {
		return handle.Handle{}, err
	}
	if !ns.nodes.Exists(src) || !ns.nodes.Exists(dst) {
		return handle.Handle{}, newErr(classify(ErrNodeNotFound), "Connect", ErrNodeNotFound)
	}
	src, srcPort = ns.fwd.ResolveDeep(src, srcPort, port.Output)
	dst, dstPort = ns.fwd.ResolveDeep(dst, dstPort, port.Input)

	eh, err := ns.topo.Connect(src, srcPort, dst, dstPort, category)
	if err != nil {
		return handle.Handle{}, newErr(classify(err), "Connect", err)
	}
	if e, ok := ns.topo.Edge(eh); ok {
		ns.pending.AddedEdges = append(ns.pending.AddedEdges, diff.EdgeChange{Edge: eh, Data: e})
	}

	return eh, nil
}

// Disconnect removes the edge matching the given endpoints and category.
func (ns *NodeSet) Disconnect(src handle.Handle, srcPort port.Ref, dst handle.Handle, dstPort port.Ref, category topology.Category) error {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if err := ns.checkPoisoned("Disconnect"); err != nil {
		return err
	}
	if !ns.nodes.Exists(src) || !ns.nodes.Exists(dst) {
		return newErr(classify(ErrNodeNotFound), "Disconnect", ErrNodeNotFound)
	}
	src, srcPort = ns.fwd.ResolveDeep(src, srcPort, port.Output)
	dst, dstPort = ns.fwd.ResolveDeep(dst, dstPort, port.Input)

	return ns.disconnectLocked(src, srcPort, dst, dstPort, category)
}

func (ns *NodeSet) disconnectLocked(src handle.Handle, srcPort port.Ref, dst handle.Handle, dstPort port.Ref, category topology.Category) error {
	for _, eh := range ns.topo.InEdges(dst) {
		e, ok := ns.topo.Edge(eh)
		if ok && e.Src == src && e.SrcPort == srcPort && e.Dst == dst && e.DstPort == dstPort && e.Category == category {
			if err := ns.topo.DisconnectHandle(eh); err != nil {
				return newErr(classify(err), "Disconnect", err)
			}
			ns.pending.RemovedEdges = append(ns.pending.RemovedEdges, diff.EdgeChange{Edge: eh, Data: e})

			return nil
		}
	}

	return newErr(classify(topology.ErrEdgeNotFound), "Disconnect", topology.ErrEdgeNotFound)
}

// DisconnectHandle removes a specific edge by handle.
func (ns *NodeSet) DisconnectHandle(eh handle.Handle) error {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if err := ns.checkPoisoned("DisconnectHandle"); err != nil {
		return err
	}

	e, ok := ns.topo.Edge(eh)
	if !ok {
		return newErr(classify(topology.ErrEdgeNotFound), "DisconnectHandle", topology.ErrEdgeNotFound)
	}
	if err := ns.topo.DisconnectHandle(eh); err != nil {
		return newErr(classify(err), "DisconnectHandle", err)
	}
	ns.pending.RemovedEdges = append(ns.pending.RemovedEdges, diff.EdgeChange{Edge: eh, Data: e})

	return nil
}

// SetData records a one-shot main-thread write to a data input,
// consumed by the next Update's patch pass. Fails with
// CodeInvalidCast if ref currently has a connected edge,
// since a connected input's value must come from its producer.
func (ns *NodeSet) SetData(node handle.Handle, ref port.Ref, value any) error {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if err := ns.checkPoisoned("SetData"); err != nil {
		return err
	}
	if !ns.nodes.Exists(node) {
		return newErr(classify(ErrNodeNotFound), "SetData", ErrNodeNotFound)
	}

	for _, eh := range ns.topo.InEdges(node) {
		e, ok := ns.topo.Edge(eh)
		if ok && e.DstPort == ref && (e.Category == topology.DataFlow || e.Category == topology.Feedback) {
			return newErr(CodeInvalidCast, "SetData", ErrDataInputConnected)
		}
	}
	ns.rg.SetData(node, ref, value)

	return nil
}

// SizeRequest queues a resize event for a DataBuffer output; the next
// Update reports it in its Diff's Resizes. The render graph does not
// reallocate the output's storage from it.
func (ns *NodeSet) SizeRequest(node handle.Handle, req port.SizeRequest) error {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if err := ns.checkPoisoned("SizeRequest"); err != nil {
		return err
	}
	ns.resizeQueue.EnqueueResizePortArray(node, port.Scalar(req.Port), req.N)

	return nil
}

// ResizePortArray changes port's array size on node to n, preserving
// every existing source/default for indices < min(old, n) and
// disconnecting any edge that fed an index now out of range.
func (ns *NodeSet) ResizePortArray(node handle.Handle, p port.ID, n int) error {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if err := ns.checkPoisoned("ResizePortArray"); err != nil {
		return err
	}
	if n < 0 || n > port.MaxArraySize {
		return newErr(CodeOutOfRange, "ResizePortArray", port.ErrOutOfRange)
	}

	rec, ok := ns.nodes.Get(node)
	if !ok {
		return newErr(classify(ErrNodeNotFound), "ResizePortArray", ErrNodeNotFound)
	}
	old := rec.arraySizes[p]

	if n < old {
		for idx := n; idx < old; idx++ {
			ref := port.Element(p, int32(idx))
			for _, eh := range ns.topo.InEdges(node) {
				e, ok := ns.topo.Edge(eh)
				if ok && e.DstPort == ref {
					_ = ns.topo.DisconnectHandle(eh)
					ns.pending.RemovedEdges = append(ns.pending.RemovedEdges, diff.EdgeChange{Edge: eh, Data: e})
				}
			}
		}
	}
	rec.arraySizes[p] = n
	ns.resizeQueue.EnqueueResizePortArray(node, port.Scalar(p), n)

	if desc, ok := ns.defByPort(rec.def)[p]; ok && desc.Direction == port.Output {
		ns.rg.AllocateBuffer(node, p, desc, n)
	}

	return nil
}

// MoveEntity records that an externally tracked entity's backing memory
// moved, requiring a repatch of any port pointing at it.
func (ns *NodeSet) MoveEntity(node handle.Handle, newPointer uintptr) error {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if err := ns.checkPoisoned("MoveEntity"); err != nil {
		return err
	}
	ns.resizeQueue.EnqueueMoveEntity(node, newPointer)

	return nil
}
