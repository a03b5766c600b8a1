// Package topology implements the topology database: the edge
// table, per-node input/output adjacency, and the Connect/Disconnect
// operations with their port-compatibility rules.
//
// Edges are stored in a handle.Table[Edge] addressed by versioned
// handle. Per-node adjacency is two slices (inputs, outputs) rather than
// a linked list: the rationale for Disconnect's linear scan — inputs are
// typically small — only holds for a slice, and Go slices give that scan
// for free without manual pointer-splicing.
//
// Forwarding is applied by the caller before Connect/Disconnect see
// the (node, port) pair — see the forward package — keeping this package
// free of any dependency on node-definition internals; topology only
// needs a PortResolver to check category/type compatibility.
//
// AI-HINT (package):
//   - A Feedback edge is, structurally, just another input edge;
//     traversal leaves it out of the scheduling mask and shows it only in
//     the alternate-mask query tables. The render graph resolves inputs
//     from DataFlow edges only, so an input fed by a Feedback edge reads
//     its blank page, not the producer's previous-tick output.
//     Connect/Disconnect/compatibility treat it like DataFlow.
package topology
