// File: parallel.go
// Role: strategy 4: one job per node, honoring the cache's parent/child
// tables as dependency edges. Leaf jobs (no parents) start as soon as the
// semaphore admits them; root jobs' completion is observed by
// errgroup.Wait.
package scheduler

import (
	"context"

	"github.com/arborix/dataflowgraph/traversal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

func (s *Scheduler) runMaximallyParallel(ctx context.Context, cache *traversal.Cache, invoke KernelFunc, handlesFor HandlesFunc) error {
	limit := s.maxConcurrency
	if limit <= 0 {
		limit = int64(totalNodes(cache))
		if limit == 0 {
			return nil
		}
	}
	sem := semaphore.NewWeighted(limit)
	g, gctx := errgroup.WithContext(ctx)

	for _, grp := range cache.Groups {
		grp := grp
		done := make([]chan struct{}, grp.Len())
		for i := range done {
			done[i] = make(chan struct{})
		}

		for i := 0; i < grp.Len(); i++ {
			i := i
			node := grp.At(i)
			parents := grp.Parents(i)

			g.Go(func() error {
				for _, parent := range parents {
					select {
					case <-done[parent.NodeIndex]:
					case <-gctx.Done():
						return gctx.Err()
					}
				}

				if err := sem.Acquire(gctx, 1); err != nil {
					return err
				}
				err := s.runJob(gctx, node, invoke, handlesFor)
				sem.Release(1)
				close(done[i])

				return err
			})
		}
	}

	return g.Wait()
}

func totalNodes(cache *traversal.Cache) int {
	n := 0
	for _, grp := range cache.Groups {
		n += grp.Len()
	}

	return n
}
