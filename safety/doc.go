// Package safety implements the atomic safety manager:
// per-render-generation handles tagging every native buffer a kernel
// touches, dependency declaration/validation before a job runs, and
// end-of-tick invalidation of anything that escaped without being
// preserved.
//
// AI-HINT (package):
//   - "Native buffer" here is any rendergraph output or aggregate
//     sub-buffer identity the caller chooses to register; this package
//     does not reach into rendergraph itself, mirroring topology's
//     PortResolver-style decoupling.
//   - MissingDependency is detected at MarkHandlesAsUsed time, before the
//     scheduler invokes the job's kernel: a scheduling attempt that omits
//     a required dependency fails before any kernel runs.
package safety
