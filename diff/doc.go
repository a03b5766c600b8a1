// Package diff implements the per-tick graph diff accumulator:
// a command queue fed by structural mutation calls during a tick, applied
// atomically to the topology database and forwarding table at the start of
// the next tick, and summarized into a Diff consumed by the render graph to
// repatch its kernel storage.
//
// AI-HINT (package):
//   - Queue.Enqueue* calls are only legal on the owning thread;
//     the queue itself does not enforce this, callers (engine) do.
//   - Apply drains the queue in FIFO (arrival) order: destroying a node
//     removes all its incident edges before any later command runs, so
//     the next tick never sees them. Apply does not track which nodes an
//     earlier command destroyed: a later command naming such a node is
//     applied as given (a Connect goes through the topology database's
//     own checks; resize and move events are still recorded).
//   - A freshly produced Diff is created and destroyed every tick; callers should not
//     retain one past the tick it was produced for.
package diff
