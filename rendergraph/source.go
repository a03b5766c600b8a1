// File: source.go
// Role: Source is a data input's source pointer: a one-hop indirection
// resolved whenever a kernel or ReadGraphValue asks for an input's
// current value.
package rendergraph

import (
	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/port"
)

// Source answers "what value does this input currently see".
type Source interface {
	Read() (any, bool)
}

// edgeSource resolves to the current value of a live data-flow edge's
// producing output, looked up in the owning Graph's output table every
// time it is read (so a later WriteOutput is visible without re-patching).
type edgeSource struct {
	graph   *Graph
	srcNode handle.Handle
	srcPort port.Ref
}

func (s edgeSource) Read() (any, bool) {
	return s.graph.readOutputRaw(s.srcNode, s.srcPort)
}

// blankSource resolves to a type's shared zero value, for any data input
// with no connected producer.
type blankSource struct {
	value any
}

func (s blankSource) Read() (any, bool) { return s.value, true }

// literalSource resolves to a one-shot main-thread SetData write. Consumed by
// exactly one Patch/read cycle: the render graph replaces it with the
// input's patched edge/blank source the next time Patch runs, matching
// "one-shot" — it does not persist across ticks on its own.
type literalSource struct {
	value any
}

func (s literalSource) Read() (any, bool) { return s.value, true }
