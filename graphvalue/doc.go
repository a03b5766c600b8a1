// File: doc.go
// Role: graph values — typed, node-agnostic subscriptions onto a render
// graph output, outliving the node that produced them.
//
// AI-HINT: a graph value's side buffer is refreshed once per tick by
// Refresh, called by the engine after the scheduler and render-graph
// patch have both completed for that tick. ReadBlocking models "reads
// block on the render fence" by waiting on a caller-supplied
// Fence rather than owning tick orchestration itself, the same narrow-
// interface split used between topology and its PortResolver.
package graphvalue
