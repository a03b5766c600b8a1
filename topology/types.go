package topology

import (
	"errors"

	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/port"
)

// Sentinel errors for Connect/Disconnect, one per failure mode.
var (
	ErrInvalidHandle      = errors.New("topology: invalid or destroyed node handle")
	ErrUnknownPort        = errors.New("topology: port not described by node definition")
	ErrCategoryMismatch   = errors.New("topology: incompatible port categories")
	ErrTypeMismatch       = errors.New("topology: incompatible element types")
	ErrDataInputOccupied  = errors.New("topology: data input already has a source")
	ErrArrayIndexRequired = errors.New("topology: port is an array; an index is required")
	ErrArrayIndexInvalid  = errors.New("topology: port is not an array; no index expected")
	ErrEdgeNotFound       = errors.New("topology: edge not found")
)

// Category classifies an edge for dispatch and traversal purposes. This is
// distinct from port.Category (the glossary's "DSL" abbreviation is
// spelled out here as DomainSpecific for consistency with the port
// package).
type Category uint8

const (
	Message Category = iota
	DomainSpecific
	DataFlow
	Feedback
)

func (c Category) String() string {
	switch c {
	case Message:
		return "Message"
	case DomainSpecific:
		return "DomainSpecific"
	case DataFlow:
		return "DataFlow"
	case Feedback:
		return "Feedback"
	default:
		return "Category(?)"
	}
}

// TraversalMask is a bitmask over edge categories, used by the traversal
// cache to select which edges participate in ordering vs. which are
// recorded only for user queries.
type TraversalMask uint8

func (c Category) Bit() TraversalMask { return TraversalMask(1 << c) }

// Contains reports whether m includes category c.
func (m TraversalMask) Contains(c Category) bool { return m&c.Bit() != 0 }

// DataFlowMask is the traversal mask used for the scheduling-relevant
// subgraph: DataFlow edges only. Feedback is deliberately excluded
// here; it is included in FullMask for user-facing queries.
var DataFlowMask = DataFlow.Bit()

// FullMask includes every edge category, used for the alternate-mask
// secondary hierarchy recorded for user queries.
var FullMask = Message.Bit() | DomainSpecific.Bit() | DataFlow.Bit() | Feedback.Bit()

// Edge is a single connection in the topology database, addressed by
// handle once allocated into a Database's edge table.
type Edge struct {
	Src      handle.Handle
	SrcPort  port.Ref
	Dst      handle.Handle
	DstPort  port.Ref
	Category Category
}

// PortResolver answers "what does this (node, port) look like" for
// compatibility checks. Supplied by the engine package, which owns node
// definitions; topology depends only on this narrow interface so it never
// needs to know about kernels, node payloads, or the definition registry.
type PortResolver interface {
	Describe(node handle.Handle, ref port.Ref) (port.Description, bool)
}
