// Package forward implements the forwarding table: redirection of an
// outer (container) node's port onto an inner node's port, applied as a
// rewrite pass at Connect/Disconnect time rather than a dispatch at
// execute time.
//
// A container node that wants to expose an aggregate port without the
// engine ever seeing the inner wiring registers one Entry per forwarded
// port. Before topology.Connect/Disconnect see an endpoint, the caller
// (engine) resolves it through Table.Resolve, which walks at most one
// forwarding hop (forwarding is not transitive — an inner node's own
// forwarded ports, if any, are resolved by a second Resolve call, kept
// as a separate step so the rewrite pass stays branch-free per hop).
package forward
