package scheduler_test

import (
	"context"
	"reflect"
	"sync"
	"testing"

	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/port"
	"github.com/arborix/dataflowgraph/scheduler"
	"github.com/arborix/dataflowgraph/topology"
	"github.com/arborix/dataflowgraph/traversal"
	"github.com/stretchr/testify/require"
)

var intType = reflect.TypeOf(int(0))

type stubResolver struct{}

func (stubResolver) Describe(node handle.Handle, ref port.Ref) (port.Description, bool) {
	if ref.Port == 0 {
		return port.Description{Category: port.Data, Direction: port.Output, ElementType: intType}, true
	}

	return port.Description{Category: port.Data, Direction: port.Input, ElementType: intType}, true
}

func node(i uint32) handle.Handle { return handle.Handle{Index: i, Version: 1} }

// sequencer records the order in which nodes finish, safe for concurrent
// invocation from the parallel strategies.
type sequencer struct {
	mu    sync.Mutex
	order []handle.Handle
	seq   map[handle.Handle]int
}

func newSequencer() *sequencer { return &sequencer{seq: make(map[handle.Handle]int)} }

func (s *sequencer) record(n handle.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq[n] = len(s.order)
	s.order = append(s.order, n)
}

func (s *sequencer) before(a, b handle.Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.seq[a] < s.seq[b]
}

func buildDiamondCache(t *testing.T) (a, b, c, d handle.Handle, cache *traversal.Cache) {
	t.Helper()
	db := topology.NewDatabase(1, stubResolver{})
	a, b, c, d = node(1), node(2), node(3), node(4)
	_, err := db.Connect(a, port.Scalar(0), b, port.Scalar(1), topology.DataFlow)
	require.NoError(t, err)
	_, err = db.Connect(a, port.Scalar(0), c, port.Scalar(1), topology.DataFlow)
	require.NoError(t, err)
	_, err = db.Connect(b, port.Scalar(0), d, port.Scalar(1), topology.DataFlow)
	require.NoError(t, err)
	_, err = db.Connect(c, port.Scalar(0), d, port.Scalar(2), topology.DataFlow)
	require.NoError(t, err)

	live := []handle.Handle{a, b, c, d}
	cache = traversal.Rebuild(db, live, topology.DataFlowMask, topology.FullMask, traversal.GlobalBreadthFirst, nil)

	return a, b, c, d, cache
}

func runAllStrategies(t *testing.T, strategies []scheduler.Strategy) {
	for _, strat := range strategies {
		strat := strat
		t.Run(strat.String(), func(t *testing.T) {
			a, b, c, d, cache := buildDiamondCache(t)
			seq := newSequencer()
			sch := scheduler.New(nil, nil, nil)

			invoke := func(ctx context.Context, n handle.Handle) error {
				seq.record(n)

				return nil
			}

			err := sch.Run(context.Background(), cache, strat, invoke, nil)
			require.NoError(t, err)
			require.True(t, seq.before(a, b))
			require.True(t, seq.before(a, c))
			require.True(t, seq.before(b, d))
			require.True(t, seq.before(c, d))
		})
	}
}

func TestEveryStrategyRespectsDataFlowOrder(t *testing.T) {
	runAllStrategies(t, []scheduler.Strategy{
		scheduler.Synchronous, scheduler.SingleThreaded, scheduler.Islands, scheduler.MaximallyParallel,
	})
}

func TestKernelErrorAbortsTheTick(t *testing.T) {
	_, _, _, _, cache := buildDiamondCache(t)
	sch := scheduler.New(nil, nil, nil)

	boom := context.Canceled
	invoke := func(ctx context.Context, n handle.Handle) error { return boom }

	err := sch.Run(context.Background(), cache, scheduler.Synchronous, invoke, nil)
	require.ErrorIs(t, err, boom)
}

func TestUnknownStrategyIsRejected(t *testing.T) {
	_, _, _, _, cache := buildDiamondCache(t)
	sch := scheduler.New(nil, nil, nil)
	err := sch.Run(context.Background(), cache, scheduler.Strategy(99), func(ctx context.Context, n handle.Handle) error { return nil }, nil)
	require.ErrorIs(t, err, scheduler.ErrUnknownStrategy)
}
