// File: commands.go
// Role: the command vocabulary a Queue accumulates: every kind
// of structural mutation a tick can request before it is applied.
package diff

import (
	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/port"
	"github.com/arborix/dataflowgraph/topology"
)

// DefinitionID identifies a registered node definition: an index into
// the engine's table of node definitions.
type DefinitionID uint32

// kind discriminates the command union stored in a Queue.
type kind uint8

const (
	kindCreateNode kind = iota
	kindDestroyNode
	kindConnect
	kindDisconnect
	kindResizePortArray
	kindMoveEntity
)

// command is one queued mutation. Only the fields relevant to Kind are
// populated; one flat struct per row beats an interface-per-kind
// hierarchy here, since commands are drained once, in order, never
// type-switched by callers outside this package.
type command struct {
	kind kind

	// kindCreateNode
	node       handle.Handle
	definition DefinitionID

	// kindConnect / kindDisconnect
	srcNode  handle.Handle
	srcPort  port.Ref
	dstNode  handle.Handle
	dstPort  port.Ref
	category topology.Category
	edge     handle.Handle // populated for Disconnect by handle

	// kindResizePortArray
	port    port.Ref
	newSize int

	// kindMoveEntity
	newPointer uintptr
}
