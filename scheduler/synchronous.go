// File: synchronous.go
// Role: strategies 1-2: calling-thread execution, group by group, node by
// node.
package scheduler

import (
	"context"

	"github.com/arborix/dataflowgraph/traversal"
)

func (s *Scheduler) runSynchronous(ctx context.Context, cache *traversal.Cache, invoke KernelFunc) error {
	for _, grp := range cache.Groups {
		for i := 0; i < grp.Len(); i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := invoke(ctx, grp.At(i)); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *Scheduler) runSingleThreaded(ctx context.Context, cache *traversal.Cache, invoke KernelFunc, handlesFor HandlesFunc) error {
	for _, grp := range cache.Groups {
		for i := 0; i < grp.Len(); i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.runJob(ctx, grp.At(i), invoke, handlesFor); err != nil {
				return err
			}
		}
	}

	return nil
}
