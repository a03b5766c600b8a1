// File: graphvalue.go
// Role: CreateGraphValue/ReadGraphValue/ReleaseGraphValue, the public
// surface over graphvalue.Registry.
package engine

import (
	"context"
	"reflect"

	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/port"
)

// CreateGraphValue subscribes to node's output ref, type-checked against
// the output port's actual element type. The subscription outlives the
// node's destruction; only ReleaseGraphValue removes it.
func (ns *NodeSet) CreateGraphValue(node handle.Handle, ref port.Ref, declaredType reflect.Type) (handle.Handle, error) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	rec, ok := ns.nodes.Get(node)
	if !ok {
		return handle.Handle{}, newErr(classify(ErrNodeNotFound), "CreateGraphValue", ErrNodeNotFound)
	}
	desc, ok := ns.defs.describe(rec.def, ref.Port)
	if !ok {
		return handle.Handle{}, newErr(classify(ErrNodeNotFound), "CreateGraphValue", ErrNodeNotFound)
	}

	h, err := ns.gvRegistry.Create(node, ref, declaredType, desc.ElementType)
	if err != nil {
		return handle.Handle{}, newErr(classify(err), "CreateGraphValue", err)
	}

	return h, nil
}

// ReadGraphValue returns the value's current side-buffer content and
// whether its target is still alive, without waiting on the render
// fence.
func (ns *NodeSet) ReadGraphValue(h handle.Handle) (any, bool, error) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	v, exists, err := ns.gvRegistry.Read(h)
	if err != nil {
		return nil, false, newErr(classify(err), "ReadGraphValue", err)
	}

	return v, exists, nil
}

// ReadGraphValueBlocking completes the outstanding render dependency by
// waiting on the current tick's fence, then returns h's side buffer.
func (ns *NodeSet) ReadGraphValueBlocking(ctx context.Context, h handle.Handle) (any, bool, error) {
	ns.mu.Lock()
	fence := ns.fence
	ns.mu.Unlock()

	v, exists, err := ns.gvRegistry.ReadBlocking(ctx, fence, h)
	if err != nil {
		return nil, false, newErr(classify(err), "ReadGraphValueBlocking", err)
	}

	return v, exists, nil
}

// ReleaseGraphValue is the only way a graph value's identity is freed.
func (ns *NodeSet) ReleaseGraphValue(h handle.Handle) error {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if err := ns.gvRegistry.Release(h); err != nil {
		return newErr(classify(err), "ReleaseGraphValue", err)
	}

	return nil
}
