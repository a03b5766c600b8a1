// File: tick.go
// Role: Update runs one tick: drain the resize/move queue, patch render
// graph inputs, rebuild the traversal cache if topology changed,
// dispatch kernels, refresh graph values, and release the tick's safety
// generation.
package engine

import (
	"context"
	"time"

	"github.com/arborix/dataflowgraph/diff"
	"github.com/arborix/dataflowgraph/graphvalue"
	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/port"
	"github.com/arborix/dataflowgraph/rendergraph"
	"github.com/arborix/dataflowgraph/safety"
	"github.com/arborix/dataflowgraph/scheduler"
	"github.com/arborix/dataflowgraph/traversal"
	"go.uber.org/zap"
)

// TickOption configures a single Update call.
type TickOption func(*tickConfig)

type tickConfig struct {
	strategy *scheduler.Strategy
	timeout  time.Duration
}

// WithExecutionStrategy overrides the NodeSet's default execution
// strategy for this tick only.
func WithExecutionStrategy(s scheduler.Strategy) TickOption {
	return func(c *tickConfig) { c.strategy = &s }
}

// WithTickTimeout bounds this tick's ctx with a deadline.
func WithTickTimeout(d time.Duration) TickOption {
	return func(c *tickConfig) { c.timeout = d }
}

// Update runs one tick to completion (or until ctx/timeout expires,
// aborting with an error). Returns the resulting *diff.Diff (the
// structural changes since the previous tick) and any scheduling error.
func (ns *NodeSet) Update(ctx context.Context, opts ...TickOption) (*diff.Diff, error) {
	cfg := tickConfig{}
	for _, o := range opts {
		o(&cfg)
	}

	ns.mu.Lock()
	if err := ns.checkPoisoned("Update"); err != nil {
		ns.mu.Unlock()

		return nil, err
	}

	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	start := time.Now()

	// A fresh fence is opened for this tick before any work starts, so a
	// blocking read issued concurrently with this call waits for this
	// tick rather than the one that already finished (graphvalue.Fence's
	// "replaced by a fresh Fence before the next tick begins" contract).
	ns.fence = graphvalue.NewFence()

	deltaDiff, errs := diff.Apply(ns.resizeQueue, ns.topo, ns.fwd)
	for _, e := range errs {
		ns.logger.Warn("queued command failed during tick", zap.Error(e))
	}
	ns.pending.Resizes = append(ns.pending.Resizes, deltaDiff.Resizes...)
	ns.pending.Moves = append(ns.pending.Moves, deltaDiff.Moves...)

	tickDiff := ns.pending
	ns.pending = &diff.Diff{}

	inputs := ns.buildInputCatalog()
	ns.rg.Patch(ns.topo, inputs)

	liveNodes := ns.nodes.Live()
	if ns.cache.StaleAgainst(ns.topo) {
		ns.cache = traversal.Rebuild(ns.topo, liveNodes, ns.mask, ns.altMask, ns.sortStrat, ns.cache)
		for _, g := range ns.cache.Groups {
			if g.Cyclic {
				ns.metrics.IncCyclesDetected()
				ns.logger.Warn("traversal group has a cycle; skipped this tick")
			}
		}
	}

	ns.safetyMgr.BeginGeneration()
	for _, n := range liveNodes {
		ns.safetyMgr.RegisterHandle(n, safety.ReadWrite)
	}

	strategy := ns.execStrat
	if cfg.strategy != nil {
		strategy = *cfg.strategy
	}

	invoke := ns.kernelInvoker()
	handlesFor := ns.dependencyHandles()

	ns.mu.Unlock()
	err := ns.sched.Run(ctx, ns.cache, strategy, invoke, handlesFor)
	ns.mu.Lock()
	defer ns.mu.Unlock()

	ns.safetyMgr.BumpTemporaryHandleVersions()
	ns.gvRegistry.Refresh(ns.rg, ns.isLive)

	ns.fence.Close()

	ns.metrics.ObserveTick(time.Since(start))
	ns.tick++

	if err != nil {
		ns.poisoned = true
		ns.logger.Error("tick aborted by fatal scheduling error", zap.Error(err))

		return tickDiff, newErr(CodeUndefinedBehavior, "Update", err)
	}

	return tickDiff, nil
}

// buildInputCatalog enumerates every live node's data input ports
// (expanding array ports to one InputDescriptor per live index) for
// rendergraph.Patch.
func (ns *NodeSet) buildInputCatalog() []rendergraph.InputDescriptor {
	var out []rendergraph.InputDescriptor
	ns.nodes.Range(func(h handle.Handle, rec *nodeRecord) bool {
		for id, desc := range ns.defByPort(rec.def) {
			if desc.Direction != port.Input {
				continue
			}
			if !desc.IsArray {
				out = append(out, rendergraph.InputDescriptor{Node: h, Ref: port.Scalar(id), ElementType: desc.ElementType})
				continue
			}
			n := rec.arraySizes[id]
			for i := 0; i < n; i++ {
				out = append(out, rendergraph.InputDescriptor{Node: h, Ref: port.Element(id, int32(i)), ElementType: desc.ElementType})
			}
		}

		return true
	})

	return out
}

// kernelInvoker builds the scheduler.KernelFunc that runs one node's
// kernel, skipping nodes whose traversal group is cyclic.
func (ns *NodeSet) kernelInvoker() scheduler.KernelFunc {
	return func(ctx context.Context, node handle.Handle) error {
		grp, ok := ns.cache.GroupOf(node)
		if ok && grp.Cyclic {
			return nil
		}

		rec, ok := ns.nodes.Get(node)
		if !ok {
			return nil
		}
		def, ok := ns.defs.definition(rec.def)
		if !ok || def.Execute == nil {
			return nil
		}

		storage := ns.rg.Storage(node)
		ports := &Ports{node: node, rg: ns.rg}

		return def.Execute(ctx, storage.KernelData, ports)
	}
}

// dependencyHandles builds the scheduler.HandlesFunc used by strategies
// 2-4 to declare each job's safety-manager dependencies: its own handle
// plus every data-flow parent's handle, from the cache's parent table.
func (ns *NodeSet) dependencyHandles() scheduler.HandlesFunc {
	return func(node handle.Handle) []handle.Handle {
		grp, ok := ns.cache.GroupOf(node)
		if !ok {
			return []handle.Handle{node}
		}
		i := grp.PositionOf(node)
		if i < 0 {
			return []handle.Handle{node}
		}
		handles := []handle.Handle{node}
		for _, link := range grp.Parents(i) {
			handles = append(handles, grp.At(link.NodeIndex))
		}

		return handles
	}
}
