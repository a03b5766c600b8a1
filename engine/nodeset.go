// File: nodeset.go
// Role: NodeSet is the module's single exported orchestrator type: it
// owns one instance of every lower-level component and wires them together.
// Concurrency:
//   - mu serializes every exported method, preserving the single
//     "owning thread" discipline even when callers invoke NodeSet from multiple
//     goroutines: only one structural mutation or tick runs at a time.
//     Kernels dispatched during Update still run concurrently on worker
//     goroutines; mu is released before Update blocks on the scheduler
//     and re-acquired only for the bookkeeping before/after it.
package engine

import (
	"sync"
	"sync/atomic"

	"github.com/arborix/dataflowgraph/diff"
	"github.com/arborix/dataflowgraph/forward"
	"github.com/arborix/dataflowgraph/graphvalue"
	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/metrics"
	"github.com/arborix/dataflowgraph/port"
	"github.com/arborix/dataflowgraph/rendergraph"
	"github.com/arborix/dataflowgraph/safety"
	"github.com/arborix/dataflowgraph/scheduler"
	"github.com/arborix/dataflowgraph/topology"
	"github.com/arborix/dataflowgraph/traversal"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var nextSetID uint64

func allocSetID() handle.SetID {
	return handle.SetID(atomic.AddUint64(&nextSetID, 1))
}

// nodeRecord is the engine's own per-node bookkeeping, independent of
// topology: which definition the node was created from, and the
// current size of each of its array ports.
type nodeRecord struct {
	def        DefinitionID
	arraySizes map[port.ID]int
}

// NodeSet is one independent dataflow graph instance: its own node
// table, topology database, forwarding table, traversal cache, render
// graph, scheduler, safety manager, and graph-value registry.
type NodeSet struct {
	mu sync.Mutex

	// ID is the process-wide unique identity of this set, distinct from the internal handle.SetID used
	// to key every slot table below.
	ID uuid.UUID

	setID handle.SetID
	defs  *DefinitionRegistry

	nodes *handle.Table[nodeRecord]
	topo  *topology.Database
	fwd   *forward.Table
	blank *port.BlankPages
	rg    *rendergraph.Graph

	resizeQueue *diff.Queue
	pending     *diff.Diff

	cache       *traversal.Cache
	mask        topology.TraversalMask
	altMask     topology.TraversalMask
	sortStrat   traversal.Strategy
	execStrat   scheduler.Strategy

	safetyMgr *safety.Manager
	sched     *scheduler.Scheduler
	metrics   *metrics.Metrics
	logger    *zap.Logger

	gvRegistry *graphvalue.Registry
	fence      *graphvalue.Fence

	tick     uint64
	poisoned bool
}

// NodeSetOption configures a NodeSet at construction.
type NodeSetOption func(*nodeSetConfig)

type nodeSetConfig struct {
	logger         *zap.Logger
	registerer     prometheus.Registerer
	mask           topology.TraversalMask
	altMask        topology.TraversalMask
	sortStrategy   traversal.Strategy
	execStrategy   scheduler.Strategy
	maxConcurrency int
}

// WithLogger supplies a *zap.Logger for structural/fatal error logging.
// A nil or omitted logger is equivalent to zap.NewNop().
func WithLogger(l *zap.Logger) NodeSetOption {
	return func(c *nodeSetConfig) { c.logger = l }
}

// WithMetricsRegisterer supplies the prometheus.Registerer every
// instrument is registered against. A nil or omitted registerer gets a
// private, unshared prometheus.Registry so multiple NodeSets never
// collide on metric names.
func WithMetricsRegisterer(reg prometheus.Registerer) NodeSetOption {
	return func(c *nodeSetConfig) { c.registerer = reg }
}

// WithTraversalMask overrides the default scheduling mask (DataFlow
// only). Feedback edges are never included.
func WithTraversalMask(mask topology.TraversalMask) NodeSetOption {
	return func(c *nodeSetConfig) { c.mask = mask }
}

// WithAlternateMask overrides the default alternate (query-only) mask,
// which defaults to every category.
func WithAlternateMask(mask topology.TraversalMask) NodeSetOption {
	return func(c *nodeSetConfig) { c.altMask = mask }
}

// WithSortStrategy selects GlobalBreadthFirst or LocalDepthFirst for
// every traversal-cache rebuild. Defaults to GlobalBreadthFirst.
func WithSortStrategy(s traversal.Strategy) NodeSetOption {
	return func(c *nodeSetConfig) { c.sortStrategy = s }
}

// WithDefaultExecutionStrategy selects the Update execution strategy
// used when a tick does not override it with WithExecutionStrategy.
// Defaults to scheduler.Synchronous.
func WithDefaultExecutionStrategy(s scheduler.Strategy) NodeSetOption {
	return func(c *nodeSetConfig) { c.execStrategy = s }
}

// WithMaxConcurrency bounds worker concurrency for the Islands and
// MaximallyParallel strategies.
func WithMaxConcurrency(n int) NodeSetOption {
	return func(c *nodeSetConfig) { c.maxConcurrency = n }
}

// NewNodeSet creates a NodeSet backed by defs. defs must not be mutated
// (further Register calls) after being handed to a NodeSet that has
// already created nodes against it.
func NewNodeSet(defs *DefinitionRegistry, opts ...NodeSetOption) *NodeSet {
	cfg := nodeSetConfig{altMask: topology.FullMask}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	cfg.mask &^= topology.Feedback.Bit()
	if cfg.mask == 0 {
		cfg.mask = topology.DataFlowMask
	}

	setID := allocSetID()
	m := metrics.New(cfg.registerer)
	safetyMgr := safety.NewManager(cfg.logger, m)

	var schedOpts []scheduler.Option
	if cfg.maxConcurrency > 0 {
		schedOpts = append(schedOpts, scheduler.WithMaxConcurrency(cfg.maxConcurrency))
	}

	ns := &NodeSet{
		ID:          uuid.New(),
		setID:       setID,
		defs:        defs,
		nodes:       handle.NewTable[nodeRecord](setID),
		topo:        nil, // set after ns so topo's resolver can close over ns
		fwd:         forward.NewTable(setID),
		blank:       port.NewBlankPages(),
		resizeQueue: diff.NewQueue(),
		pending:     &diff.Diff{},
		mask:        cfg.mask,
		altMask:     cfg.altMask,
		sortStrat:   cfg.sortStrategy,
		execStrat:   cfg.execStrategy,
		safetyMgr:   safetyMgr,
		metrics:     m,
		logger:      cfg.logger,
		gvRegistry: graphvalue.NewRegistry(setID),
	}
	// Pre-first-tick reads must not block (graphvalue.Fence's "a read
	// issued before any tick ever runs does not block" contract); Update
	// opens the real per-tick fence when the first tick actually starts.
	ns.fence = graphvalue.NewFence()
	ns.fence.Close()
	ns.topo = topology.NewDatabase(setID, ns)
	ns.rg = rendergraph.NewGraph(ns.blank)
	ns.sched = scheduler.New(safetyMgr, m, cfg.logger, schedOpts...)

	return ns
}

// Describe implements topology.PortResolver, resolving forwarding before
// delegating to the definition registry. A forwarding entry may redirect
// an outer port as either an input or an output depending on which side
// of a container node it exposes; since Describe is not told which
// direction the caller means, it tries the node's own ports first (the
// common case: no forwarding involved) and only consults the forwarding
// table when the node itself does not describe ref.
func (ns *NodeSet) Describe(node handle.Handle, ref port.Ref) (port.Description, bool) {
	if rec, ok := ns.nodes.Get(node); ok {
		if d, ok := ns.defs.describe(rec.def, ref.Port); ok {
			return d, true
		}
	}
	for _, dir := range [2]port.Direction{port.Input, port.Output} {
		innerNode, innerRef, rewritten := ns.fwd.Resolve(node, ref, dir)
		if !rewritten {
			continue
		}
		if d, ok := ns.Describe(innerNode, innerRef); ok {
			return d, true
		}
	}

	return port.Description{}, false
}

// isLive reports whether node currently denotes a live node; shared by
// graphvalue.Registry.Refresh.
func (ns *NodeSet) isLive(node handle.Handle) bool {
	return ns.nodes.Exists(node)
}

// Tick returns the number of completed Update calls.
func (ns *NodeSet) Tick() uint64 {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	return ns.tick
}

// Poisoned reports whether a fatal error has left this set in an
// undefined state; every further structural call fails with
// CodeUndefinedBehavior once poisoned.
func (ns *NodeSet) Poisoned() bool {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	return ns.poisoned
}

func (ns *NodeSet) checkPoisoned(op string) error {
	if ns.poisoned {
		return newErr(CodeUndefinedBehavior, op, ErrPoisoned)
	}

	return nil
}
