// Package scheduler implements the four execution strategies over a
// traversal cache: Synchronous, SingleThreaded, Islands, and
// MaximallyParallel.
//
// AI-HINT (package):
//   - Synchronous bypasses the safety manager entirely (no per-job
//     dependency bookkeeping); SingleThreaded wraps the same ordering as
//     a uniform "job" for instrumentation parity with the parallel
//     strategies.
//   - Islands launches one goroutine per group (golang.org/x/sync/errgroup,
//     concurrency bounded via SetLimit); MaximallyParallel launches one
//     goroutine per node with parent-completion channels encoding the
//     cache's child/parent tables, concurrency bounded by a
//     golang.org/x/sync/semaphore.Weighted.
//   - A kernel error cancels the tick: the first
//     error returned by any job propagates, in-flight siblings are left
//     to finish (errgroup's own behavior), and no further jobs are
//     started.
package scheduler
