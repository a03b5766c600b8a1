// Package metrics defines the engine's Prometheus instrumentation: one
// histogram and four counters shared by the scheduler, safety manager,
// and traversal rebuild path. Instruments are built with promauto
// against an explicit prometheus.Registerer instead of the global
// default registry, so a process hosting more than one NodeSet does not
// panic on duplicate registration.
package metrics
