// Package engine is the orchestrator that ties the lower-level packages
// (handle, port, topology, forward, traversal, diff, rendergraph,
// scheduler, graphvalue, safety) into the single type a caller actually
// imports: NodeSet.
//
// A NodeSet owns one process-wide-unique identity, a registry of node
// definitions, and every per-instance table the components below it
// need. Structural mutation (CreateNode, DestroyNode, Connect,
// Disconnect, SendMessage, SetData, ResizePortArray) happens immediately
// on whatever goroutine calls it, serialized by an internal mutex so the
// "owning thread" discipline holds even when callers don't hand-roll
// their own single-threaded dispatch. Update runs one tick: it patches
// render-graph inputs, rebuilds the traversal cache if topology changed,
// dispatches kernels under the configured execution strategy, refreshes
// every live graph value, and releases the tick's safety-handle
// generation.
package engine
