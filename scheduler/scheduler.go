// File: scheduler.go
// Role: Scheduler dispatches a traversal cache's groups to one of four
// execution strategies.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/metrics"
	"github.com/arborix/dataflowgraph/safety"
	"github.com/arborix/dataflowgraph/traversal"
	"go.uber.org/zap"
)

// Strategy selects one of the four execution engines.
type Strategy uint8

const (
	// Synchronous runs the topological order on the calling thread,
	// group by group, with no safety-manager bookkeeping.
	Synchronous Strategy = iota
	// SingleThreaded is identical ordering to Synchronous, but wraps each
	// invocation as a uniform job for instrumentation and dependency
	// declaration parity with the parallel strategies.
	SingleThreaded
	// Islands runs one job per group, internally sequential; groups run
	// in parallel.
	Islands
	// MaximallyParallel runs one job per node, honoring the cache's
	// parent/child dependency edges; leaf jobs (no parents) start
	// immediately, root jobs (no children) gate the tick's completion.
	MaximallyParallel
)

func (s Strategy) String() string {
	switch s {
	case Synchronous:
		return "Synchronous"
	case SingleThreaded:
		return "SingleThreaded"
	case Islands:
		return "Islands"
	case MaximallyParallel:
		return "MaximallyParallel"
	default:
		return "Strategy(?)"
	}
}

// ErrUnknownStrategy is returned by Run for an out-of-range Strategy.
var ErrUnknownStrategy = errors.New("scheduler: unknown strategy")

// KernelFunc invokes node's kernel. Returning an error aborts the tick.
type KernelFunc func(ctx context.Context, node handle.Handle) error

// HandlesFunc returns the safety handles node's kernel will touch this
// tick, used for dependency declaration in strategies 2-4.
// A nil HandlesFunc disables safety-manager bookkeeping entirely.
type HandlesFunc func(node handle.Handle) []handle.Handle

// Scheduler runs a traversal cache's groups under one of the four
// strategies.
type Scheduler struct {
	safety         *safety.Manager
	metrics        *metrics.Metrics
	logger         *zap.Logger
	maxConcurrency int64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMaxConcurrency bounds worker concurrency for Islands (via
// errgroup.SetLimit) and MaximallyParallel (via a weighted semaphore).
// When unset or <= 0, Islands applies no limit and MaximallyParallel
// admits every node of the cache at once.
func WithMaxConcurrency(n int) Option {
	return func(s *Scheduler) { s.maxConcurrency = int64(n) }
}

// New creates a Scheduler. A nil logger becomes zap.NewNop(); a nil
// safety manager disables dependency bookkeeping for every strategy.
func New(safetyMgr *safety.Manager, m *metrics.Metrics, logger *zap.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{safety: safetyMgr, metrics: m, logger: logger}
	for _, o := range opts {
		o(s)
	}

	return s
}

// Run dispatches cache to strategy.
func (s *Scheduler) Run(ctx context.Context, cache *traversal.Cache, strategy Strategy, invoke KernelFunc, handlesFor HandlesFunc) error {
	switch strategy {
	case Synchronous:
		return s.runSynchronous(ctx, cache, invoke)
	case SingleThreaded:
		return s.runSingleThreaded(ctx, cache, invoke, handlesFor)
	case Islands:
		return s.runIslands(ctx, cache, invoke, handlesFor)
	case MaximallyParallel:
		return s.runMaximallyParallel(ctx, cache, invoke, handlesFor)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownStrategy, strategy)
	}
}

// runJob wraps one node's kernel invocation with safety-manager
// dependency declaration and a jobs-scheduled metric, used by every
// strategy except Synchronous.
func (s *Scheduler) runJob(ctx context.Context, node handle.Handle, invoke KernelFunc, handlesFor HandlesFunc) error {
	jobID := node.String()
	if s.safety != nil && handlesFor != nil {
		handles := handlesFor(node)
		s.safety.DeclareRequired(jobID, handles)
		if err := s.safety.MarkHandlesAsUsed(jobID, handles); err != nil {
			return err
		}
	}
	s.metrics.AddJobsScheduled(1)

	return invoke(ctx, node)
}
