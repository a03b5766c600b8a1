// Package rendergraph implements the render graph: per-node
// kernel storage, the input-patching algorithm, output buffer (re)allocation
// including aggregate layouts, and read-back of the last produced value for
// a graph value's target.
//
// AI-HINT (package):
//   - Go has no native-buffer/raw-pointer layer to patch; "source_ptr" is
//     implemented as a Source interface (one indirection, resolved at read
//     time) rather than an actual pointer, since the values flowing through
//     this engine are ordinary Go values subject to the garbage collector,
//     not unmanaged memory. The patching contract (every connected input
//     resolves to its producer's current output, every unconnected input
//     resolves to the type's blank page) is preserved exactly; only the
//     mechanism changes.
//   - Patch is driven by the caller (engine) supplying the full input port
//     catalog, since rendergraph does not own node definitions (mirroring
//     topology's PortResolver decoupling).
package rendergraph
