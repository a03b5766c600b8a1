// File: registry.go
// Role: Registry owns every live graph value for one NodeSet: creation
// with weak-typing element-type checks, per-tick side-buffer
// refresh, and blocking read-back.
package graphvalue

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/port"
	"github.com/arborix/dataflowgraph/rendergraph"
)

var (
	// ErrInvalidHandle indicates the graph value's slot is stale, out of
	// range, or from a different registry.
	ErrInvalidHandle = errors.New("graphvalue: invalid or released handle")
	// ErrElementTypeMismatch is returned by Create when the caller's
	// declared element type disagrees with the target output port's
	// element type.
	ErrElementTypeMismatch = errors.New("graphvalue: element type does not match output port")
)

// subscription is the (target_node, output_port, element_type) record
// plus its stable side buffer.
type subscription struct {
	target       handle.Handle
	ref          port.Ref
	elementType  reflect.Type
	last         any
	targetExists bool
}

// Registry is a slot table of live graph values, keyed by a versioned
// handle.Handle exactly like every other identity kind in the engine.
type Registry struct {
	table *handle.Table[subscription]
}

// NewRegistry creates an empty registry for set.
func NewRegistry(set handle.SetID) *Registry {
	return &Registry{table: handle.NewTable[subscription](set)}
}

// Create subscribes to node's output ref. actualElementType is the
// output port's element type as described by the node definition's
// static table; declaredType is what the caller (the weakly-typed
// variant) asserts it is. They must agree exactly, matching topology's
// no-implicit-conversion Connect rule. Before the first tick after
// creation the side buffer holds declaredType's zero value, and TargetExists reports true immediately: the
// subscription does not become stale until the first Refresh observes
// the target gone.
func (r *Registry) Create(node handle.Handle, ref port.Ref, declaredType, actualElementType reflect.Type) (handle.Handle, error) {
	if declaredType != actualElementType {
		return handle.Handle{}, fmt.Errorf("%w: declared %s, port is %s", ErrElementTypeMismatch, declaredType, actualElementType)
	}

	sub := subscription{
		target:       node,
		ref:          ref,
		elementType:  declaredType,
		last:         reflect.Zero(declaredType).Interface(),
		targetExists: true,
	}

	return r.table.Alloc(sub), nil
}

// Release explicitly removes a graph value. This is
// the only way a graph value's identity is ever freed — target node
// destruction alone never releases it.
func (r *Registry) Release(h handle.Handle) error {
	if err := r.table.Free(h); err != nil {
		return ErrInvalidHandle
	}

	return nil
}

// TargetExists reports whether h's target was alive as of the most
// recent Refresh.
func (r *Registry) TargetExists(h handle.Handle) (bool, error) {
	sub, ok := r.table.Get(h)
	if !ok {
		return false, ErrInvalidHandle
	}

	return sub.targetExists, nil
}

// Read returns a copy of h's side buffer without waiting on a fence,
// along with whether its target was alive as of the last Refresh.
func (r *Registry) Read(h handle.Handle) (any, bool, error) {
	sub, ok := r.table.Get(h)
	if !ok {
		return nil, false, ErrInvalidHandle
	}

	return sub.last, sub.targetExists, nil
}

// ReadBlocking completes the outstanding render dependency by waiting on
// fence, then returns a copy of the last produced value for h's target.
// A nil fence never blocks.
func (r *Registry) ReadBlocking(ctx context.Context, fence *Fence, h handle.Handle) (any, bool, error) {
	if err := fence.Wait(ctx); err != nil {
		return nil, false, err
	}

	return r.Read(h)
}

// Refresh runs once per tick, after the scheduler and render-graph patch
// have both completed: every live subscription whose target is still
// alive copies the producer's current output into its side buffer;
// every subscription whose target has been destroyed keeps its last
// value and flips TargetExists false, but is never removed. isLive reports whether a node handle currently denotes
// a live node; Refresh does not own the node table itself, matching the
// narrow decoupling topology.PortResolver already establishes.
func (r *Registry) Refresh(rg *rendergraph.Graph, isLive func(handle.Handle) bool) {
	r.table.Range(func(_ handle.Handle, sub *subscription) bool {
		if !isLive(sub.target) {
			sub.targetExists = false

			return true
		}
		sub.targetExists = true
		if v, ok := rg.ReadOutput(sub.target, sub.ref); ok {
			sub.last = v
		}

		return true
	})
}

// Len reports the number of currently allocated (not yet released)
// graph values.
func (r *Registry) Len() int { return r.table.Len() }
