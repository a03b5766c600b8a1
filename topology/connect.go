// File: connect.go
// Role: Connect/Disconnect and the port-compatibility rules.
package topology

import (
	"fmt"

	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/port"
)

// Connect creates an edge from (srcNode, srcPort) to (dstNode, dstPort)
// with the given category, after validating port compatibility:
//
// 1. Both ports must be described by their node's definition.
// 2. Categories must match, except a Message output may drive a Data
// input.
// 3. Element types must be byte-for-byte identical; no implicit
// conversion is ever performed.
// 4. At most one DataFlow-or-Feedback source may target a given
// (dst node, data input port, index). Message inputs allow many-to-one
// and are exempt from this check.
//
// On success, Connect splices the new edge into both endpoints'
// adjacency (append, preserving arrival order) and bumps the topology
// version exactly once.
func (d *Database) Connect(srcNode handle.Handle, srcPort port.Ref, dstNode handle.Handle, dstPort port.Ref, category Category) (handle.Handle, error) {
	srcDesc, ok := d.resolver.Describe(srcNode, srcPort)
	if !ok {
		return handle.Handle{}, fmt.Errorf("%w: src %s port %d", ErrUnknownPort, srcNode, srcPort.Port)
	}
	dstDesc, ok := d.resolver.Describe(dstNode, dstPort)
	if !ok {
		return handle.Handle{}, fmt.Errorf("%w: dst %s port %d", ErrUnknownPort, dstNode, dstPort.Port)
	}

	if err := checkArrayUsage(srcDesc, srcPort); err != nil {
		return handle.Handle{}, err
	}
	if err := checkArrayUsage(dstDesc, dstPort); err != nil {
		return handle.Handle{}, err
	}

	effectiveCategory, err := checkCategoryCompatibility(srcDesc, dstDesc, category)
	if err != nil {
		return handle.Handle{}, err
	}

	if srcDesc.ElementType != dstDesc.ElementType {
		return handle.Handle{}, fmt.Errorf("%w: %s vs %s", ErrTypeMismatch, srcDesc.ElementType, dstDesc.ElementType)
	}

	if effectiveCategory != Message {
		if d.hasDataSource(dstNode, dstPort) {
			return handle.Handle{}, ErrDataInputOccupied
		}
	}

	eh := d.edges.Alloc(Edge{Src: srcNode, SrcPort: srcPort, Dst: dstNode, DstPort: dstPort, Category: effectiveCategory})
	d.adjOf(srcNode).out = append(d.adjOf(srcNode).out, eh)
	d.adjOf(dstNode).in = append(d.adjOf(dstNode).in, eh)
	d.bump()

	return eh, nil
}

// checkArrayUsage enforces that an array reference is used iff the
// description says the port is an array.
func checkArrayUsage(desc port.Description, ref port.Ref) error {
	if desc.IsArray && !ref.IsArrayElement() {
		return ErrArrayIndexRequired
	}
	if !desc.IsArray && ref.IsArrayElement() {
		return ErrArrayIndexInvalid
	}

	return nil
}

// checkCategoryCompatibility implements the category compatibility
// table, returning the category the edge should actually be recorded as.
func checkCategoryCompatibility(src, dst port.Description, requested Category) (Category, error) {
	switch {
	case src.Category == port.Message && dst.Category == port.Data && (requested == DataFlow || requested == Message):
		// A message output may drive a data input: a one-time value
		// write, recorded as a data edge regardless of what the caller
		// requested.
		return DataFlow, nil
	case portCategoriesMatch(src.Category, dst.Category):
		return requested, nil
	default:
		return 0, fmt.Errorf("%w: %s -> %s", ErrCategoryMismatch, src.Category, dst.Category)
	}
}

func portCategoriesMatch(a, b port.Category) bool {
	normalize := func(c port.Category) port.Category {
		if c == port.DataBuffer || c == port.DataArray {
			return port.Data
		}
		return c
	}

	return normalize(a) == normalize(b)
}

// hasDataSource reports whether (dstNode, dstPort) already has a
// DataFlow-or-Feedback in-edge.
func (d *Database) hasDataSource(dstNode handle.Handle, dstPort port.Ref) bool {
	for _, eh := range d.InEdges(dstNode) {
		e, ok := d.edges.Get(eh)
		if !ok {
			continue
		}
		if e.DstPort == dstPort && (e.Category == DataFlow || e.Category == Feedback) {
			return true
		}
	}

	return false
}

// Disconnect removes the edge matching (srcNode, srcPort, dstNode,
// dstPort, category) via a linear scan of the destination's input list.
// Returns ErrEdgeNotFound if no such edge exists.
func (d *Database) Disconnect(srcNode handle.Handle, srcPort port.Ref, dstNode handle.Handle, dstPort port.Ref, category Category) error {
	for _, eh := range d.InEdges(dstNode) {
		e, ok := d.edges.Get(eh)
		if !ok {
			continue
		}
		if e.Src == srcNode && e.SrcPort == srcPort && e.Dst == dstNode && e.DstPort == dstPort && e.Category == category {
			removeFrom(&d.adjOf(srcNode).out, eh)
			removeFrom(&d.adjOf(dstNode).in, eh)
			_ = d.edges.Free(eh)
			d.bump()

			return nil
		}
	}

	return ErrEdgeNotFound
}

// DisconnectHandle removes a specific edge by handle, e.g. when a
// port-array shrink invalidates indices beyond the new size.
func (d *Database) DisconnectHandle(eh handle.Handle) error {
	e, ok := d.edges.Get(eh)
	if !ok {
		return ErrEdgeNotFound
	}
	edge := *e
	removeFrom(&d.adjOf(edge.Src).out, eh)
	removeFrom(&d.adjOf(edge.Dst).in, eh)
	_ = d.edges.Free(eh)
	d.bump()

	return nil
}
