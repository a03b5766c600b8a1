// Package traversal implements the traversal cache: grouping live
// nodes into maximal islands under a traversal mask, sorting each island
// into a deterministic topological order, detecting cycles, and building
// compact parent/child adjacency tables indexed by that order.
//
// This is the heart of the engine: every other tick-time
// component (the render graph's patching pass, the four scheduler
// strategies) walks a Cache rather than the raw topology database,
// because the database alone does not answer "is this acyclic" or "what
// order must these kernels run in".
//
// AI-HINT (package):
//   - A leaf is a source (no incoming traversal-mask edge, emitted
//     first); a root is a sink (no outgoing traversal-mask edge, emitted
//     last). ordered_traversal therefore runs leaves-to-roots.
//   - Feedback edges never enter the traversal mask; they
//     are still reachable for the "alternate mask" query tables via
//     AltParents/AltChildren.
//   - A cyclic group does not abort the rebuild: the error is recorded
//     per-group and sibling groups still get a valid order.
package traversal
