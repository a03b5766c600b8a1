package traversal

import (
	"errors"

	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/port"
)

// ErrGroupNotFound is returned by Cache lookups for an unknown node.
var ErrGroupNotFound = errors.New("traversal: node is not a member of any group")

// ErrCycles is the group-level structural error recorded when a group's
// sort cannot emit every member.
var ErrCycles = errors.New("traversal: cycle detected in group")

// Strategy selects the deterministic sort algorithm used to linearize
// each group.
type Strategy uint8

const (
	// GlobalBreadthFirst runs Kahn's algorithm with a FIFO seeded by all
	// leaves, producing a maximally-parallel level ordering.
	GlobalBreadthFirst Strategy = iota
	// LocalDepthFirst runs iterative DFS from each leaf, emitting one
	// connected island at a time.
	LocalDepthFirst
)

// GroupState is the per-group state machine:
// Fresh -> Sorted -> Valid, or Sorted -> CyclesDetected.
type GroupState uint8

const (
	Fresh GroupState = iota
	Sorted
	Valid
	CyclesDetected
)

// Link is one entry in a parent_table/child_table slice: the neighbor's
// position in Ordered, the edge that connects them, and both endpoints'
// ports so callers can filter parent/child iteration by port or
// port-array index.
type Link struct {
	NodeIndex  int
	Edge       handle.Handle
	LocalPort  port.Ref // port on the node whose table this entry belongs to
	RemotePort port.Ref // port on NodeIndex's node
}

// Group is one maximal island.
type Group struct {
	Ordered  []handle.Handle
	index    map[handle.Handle]int // node -> position in Ordered
	roots    []int                 // positions with no outgoing traversal-mask edge
	leaves   []int                 // positions with no incoming traversal-mask edge
	parents  [][]Link              // scheduling-mask parent links, by position
	children [][]Link              // scheduling-mask child links, by position
	altPar   [][]Link              // alternate-mask (full) parent links, for queries
	altChild [][]Link              // alternate-mask (full) child links, for queries
	State    GroupState
	Cyclic   bool
}

// Len returns the number of nodes in the group. O(1).
func (g *Group) Len() int { return len(g.Ordered) }

// At returns the node handle at position i in Ordered.
func (g *Group) At(i int) handle.Handle { return g.Ordered[i] }

// PositionOf returns the position of node in Ordered, or -1 if absent.
func (g *Group) PositionOf(node handle.Handle) int {
	if i, ok := g.index[node]; ok {
		return i
	}

	return -1
}

// Roots returns positions of nodes with no outgoing traversal-mask edge.
func (g *Group) Roots() []int { return g.roots }

// Leaves returns positions of nodes with no incoming traversal-mask edge.
func (g *Group) Leaves() []int { return g.leaves }

// Parents returns the scheduling-mask parent links of the node at
// position i (its data-flow predecessors).
func (g *Group) Parents(i int) []Link { return g.parents[i] }

// Children returns the scheduling-mask child links of the node at
// position i (its data-flow successors).
func (g *Group) Children(i int) []Link { return g.children[i] }

// AltParents returns the full-mask (including Feedback and Message)
// parent links of the node at position i, for user-facing queries only;
// the scheduler never consults these.
func (g *Group) AltParents(i int) []Link { return g.altPar[i] }

// AltChildren is the AltParents counterpart for successors.
func (g *Group) AltChildren(i int) []Link { return g.altChild[i] }

// ParentsOnPort filters Parents(i) to links whose LocalPort (the input
// port or array element of the node at position i) matches ref.
func (g *Group) ParentsOnPort(i int, ref port.Ref) []Link { return filterLinks(g.parents[i], ref) }

// ChildrenOnPort filters Children(i) to links whose LocalPort (the output
// port of the node at position i) matches ref.
func (g *Group) ChildrenOnPort(i int, ref port.Ref) []Link { return filterLinks(g.children[i], ref) }

func filterLinks(links []Link, ref port.Ref) []Link {
	var out []Link
	for _, l := range links {
		if l.LocalPort == ref {
			out = append(out, l)
		}
	}

	return out
}

// Error returns the group's structural error, if any: at minimum a
// Cycles error is surfaced per affected group.
func (g *Group) Error() error {
	if g.Cyclic {
		return ErrCycles
	}

	return nil
}
