package traversal_test

import (
	"reflect"
	"testing"

	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/port"
	"github.com/arborix/dataflowgraph/topology"
	"github.com/arborix/dataflowgraph/traversal"
	"github.com/stretchr/testify/require"
)

var intType = reflect.TypeOf(int(0))

type stubResolver struct{ n int }

// Describe treats every node as having a generic Data output port 0, a
// scalar Data input port 1, and an array Data input port 2, all int.
func (s *stubResolver) Describe(node handle.Handle, ref port.Ref) (port.Description, bool) {
	switch ref.Port {
	case 0:
		return port.Description{Category: port.Data, Direction: port.Output, ElementType: intType}, true
	case 2:
		return port.Description{Category: port.Data, Direction: port.Input, ElementType: intType, IsArray: true}, true
	default:
		return port.Description{Category: port.Data, Direction: port.Input, ElementType: intType}, true
	}
}

func node(i uint32) handle.Handle { return handle.Handle{Index: i, Version: 1} }

func connectData(t *testing.T, db *topology.Database, src, dst handle.Handle) {
	t.Helper()
	_, err := db.Connect(src, port.Scalar(0), dst, port.Scalar(1), topology.DataFlow)
	require.NoError(t, err)
}

// TestChainOrdering: A->B->C must order A before B before C.
func TestChainOrdering(t *testing.T) {
	db := topology.NewDatabase(1, &stubResolver{})
	a, b, c := node(1), node(2), node(3)
	connectData(t, db, a, b)
	connectData(t, db, b, c)

	live := []handle.Handle{a, b, c}
	cache := traversal.Rebuild(db, live, topology.DataFlowMask, topology.FullMask, traversal.GlobalBreadthFirst, nil)

	require.Len(t, cache.Groups, 1)
	g := cache.Groups[0]
	require.Equal(t, traversal.Valid, g.State)
	require.Less(t, g.PositionOf(a), g.PositionOf(b))
	require.Less(t, g.PositionOf(b), g.PositionOf(c))
}

// TestDiamondOrdering: both sort strategies must respect every
// data-flow edge's precedence through a diamond.
func TestDiamondOrdering(t *testing.T) {
	for _, strat := range []traversal.Strategy{traversal.GlobalBreadthFirst, traversal.LocalDepthFirst} {
		db := topology.NewDatabase(1, &stubResolver{})
		a, b, c, d := node(1), node(2), node(3), node(4)
		connectData(t, db, a, b)
		connectData(t, db, a, c)
		connectData(t, db, b, d)
		_, err := db.Connect(c, port.Scalar(0), d, port.Scalar(3), topology.DataFlow)
		require.NoError(t, err)

		live := []handle.Handle{a, b, c, d}
		cache := traversal.Rebuild(db, live, topology.DataFlowMask, topology.FullMask, strat, nil)
		require.Len(t, cache.Groups, 1)
		g := cache.Groups[0]
		require.Less(t, g.PositionOf(a), g.PositionOf(b))
		require.Less(t, g.PositionOf(a), g.PositionOf(c))
		require.Less(t, g.PositionOf(b), g.PositionOf(d))
		require.Less(t, g.PositionOf(c), g.PositionOf(d))
	}
}

// TestCycleIsolatedToItsGroup: an A<->B cycle reports exactly
// one Cycles error, and a sibling isolated node still gets a valid group.
func TestCycleIsolatedToItsGroup(t *testing.T) {
	db := topology.NewDatabase(1, &stubResolver{})
	a, b, c := node(1), node(2), node(3)
	connectData(t, db, a, b)
	connectData(t, db, b, a)

	live := []handle.Handle{a, b, c}
	cache := traversal.Rebuild(db, live, topology.DataFlowMask, topology.FullMask, traversal.GlobalBreadthFirst, nil)

	require.Len(t, cache.Groups, 2)
	var cyclicGroups, validGroups int
	for _, g := range cache.Groups {
		if g.State == traversal.CyclesDetected {
			cyclicGroups++
			require.ErrorIs(t, g.Error(), traversal.ErrCycles)
		} else {
			validGroups++
		}
	}
	require.Equal(t, 1, cyclicGroups)
	require.Equal(t, 1, validGroups)
}

// TestTenIsolatedNodes: ten isolated nodes form ten singleton groups.
func TestTenIsolatedNodes(t *testing.T) {
	db := topology.NewDatabase(1, &stubResolver{})
	var live []handle.Handle
	for i := uint32(1); i <= 10; i++ {
		live = append(live, node(i))
	}

	cache := traversal.Rebuild(db, live, topology.DataFlowMask, topology.FullMask, traversal.GlobalBreadthFirst, nil)
	require.Len(t, cache.Groups, 10)

	total := 0
	for _, g := range cache.Groups {
		require.Equal(t, 1, g.Len())
		require.Equal(t, []int{0}, g.Roots())
		require.Equal(t, []int{0}, g.Leaves())
		total += g.Len()
	}
	require.Equal(t, 10, total)
}

// TestFeedbackDoesNotAffectOrderOrCycles: a feedback edge neither
// reorders its endpoints nor produces a cycle error.
func TestFeedbackDoesNotAffectOrderOrCycles(t *testing.T) {
	db := topology.NewDatabase(1, &stubResolver{})
	a, b := node(1), node(2)
	connectData(t, db, a, b)
	_, err := db.Connect(b, port.Scalar(0), a, port.Scalar(1), topology.Feedback)
	require.NoError(t, err)

	live := []handle.Handle{a, b}
	cache := traversal.Rebuild(db, live, topology.DataFlowMask, topology.FullMask, traversal.GlobalBreadthFirst, nil)

	require.Len(t, cache.Groups, 1)
	g := cache.Groups[0]
	require.Equal(t, traversal.Valid, g.State)
	require.Less(t, g.PositionOf(a), g.PositionOf(b))

	// Feedback is visible on the alt-mask query tables, not the
	// scheduling-mask ones.
	require.Empty(t, g.Parents(g.PositionOf(a)))
	require.NotEmpty(t, g.AltParents(g.PositionOf(a)))
}

// TestRebuildDeterministic: rebuilding from the final
// state matches a cache built incrementally after each mutation.
func TestRebuildDeterministic(t *testing.T) {
	db := topology.NewDatabase(1, &stubResolver{})
	a, b, c := node(1), node(2), node(3)
	live := []handle.Handle{a, b, c}

	var cache *traversal.Cache
	connectData(t, db, a, b)
	cache = traversal.Rebuild(db, live, topology.DataFlowMask, topology.FullMask, traversal.GlobalBreadthFirst, cache)
	connectData(t, db, b, c)
	cache = traversal.Rebuild(db, live, topology.DataFlowMask, topology.FullMask, traversal.GlobalBreadthFirst, cache)

	fresh := traversal.Rebuild(db, live, topology.DataFlowMask, topology.FullMask, traversal.GlobalBreadthFirst, nil)

	require.Equal(t, fresh.Groups[0].Ordered, cache.Groups[0].Ordered)
}

// TestMessagePortArrayFiltering exercises the per-port/array-index
// filter on parent/child iteration.
func TestMessagePortArrayFiltering(t *testing.T) {
	db := topology.NewDatabase(1, &stubResolver{})
	a, b, c := node(1), node(2), node(3)
	_, err := db.Connect(a, port.Scalar(0), c, port.Element(2, 2), topology.DataFlow)
	require.NoError(t, err)
	_, err = db.Connect(b, port.Scalar(0), c, port.Element(2, 5), topology.DataFlow)
	require.NoError(t, err)

	live := []handle.Handle{a, b, c}
	cache := traversal.Rebuild(db, live, topology.DataFlowMask, topology.FullMask, traversal.GlobalBreadthFirst, nil)
	g, ok := cache.GroupOf(c)
	require.True(t, ok)
	i := g.PositionOf(c)
	require.Len(t, g.Parents(i), 2)
	require.Len(t, g.ParentsOnPort(i, port.Element(2, 2)), 1)
	require.Len(t, g.ParentsOnPort(i, port.Element(2, 5)), 1)
}
