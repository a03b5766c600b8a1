// Package port implements the static port model: port categories,
// directions, element-type identity, port-array mechanics, and the
// buffer-descriptor layout used by aggregate ports.
//
// Port descriptions are static per node definition (category, element
// type, array-ness, direction) and are addressed at runtime by a small
// integer ID (port.ID) rather than by name, keeping the hot scheduling
// path free of string lookups — the same "small integer into a static
// table" design the engine's traversal cache uses for node indices.
//
// AI-HINT (package):
//   - Category here is the *port* category {Message, DomainSpecific, Data,
//     DataBuffer, DataArray}; it is a different enum from topology's edge
//     Category {Message, DSL, DataFlow, Feedback} even though the names
//     overlap (a Data port is driven by a DataFlow or Feedback edge).
//   - Array[T] is deliberately generic: the render graph instantiates it
//     with the pointer type appropriate to the port's element, while this
//     package only owns the resize/index bookkeeping.
package port
