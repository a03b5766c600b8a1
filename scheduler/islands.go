// File: islands.go
// Role: strategy 3: one job per group, internally sequential; groups run
// in parallel.
package scheduler

import (
	"context"

	"github.com/arborix/dataflowgraph/traversal"
	"golang.org/x/sync/errgroup"
)

func (s *Scheduler) runIslands(ctx context.Context, cache *traversal.Cache, invoke KernelFunc, handlesFor HandlesFunc) error {
	g, gctx := errgroup.WithContext(ctx)
	if s.maxConcurrency > 0 {
		g.SetLimit(int(s.maxConcurrency))
	}

	for _, grp := range cache.Groups {
		grp := grp
		g.Go(func() error {
			for i := 0; i < grp.Len(); i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := s.runJob(gctx, grp.At(i), invoke, handlesFor); err != nil {
					return err
				}
			}

			return nil
		})
	}

	return g.Wait()
}
