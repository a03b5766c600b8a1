// File: metrics.go
// Role: Metrics bundles every counter/histogram the engine emits during a
// tick, constructed once per NodeSet against a caller-supplied
// registerer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus instruments.
type Metrics struct {
	TickDuration      prometheus.Histogram
	CyclesDetected    prometheus.Counter
	JobsScheduled     prometheus.Counter
	MissingDependency prometheus.Counter
	SafetyHandleBumps prometheus.Counter
}

// New constructs and registers every instrument against reg. A nil reg
// falls back to a fresh, unshared prometheus.Registry rather than the
// global default, so tests and multiple NodeSets never collide.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		TickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dataflowgraph_tick_duration_seconds",
			Help:    "Wall-clock duration of a single NodeSet.Update() tick.",
			Buckets: prometheus.DefBuckets,
		}),
		CyclesDetected: f.NewCounter(prometheus.CounterOpts{
			Name: "dataflowgraph_cycles_detected_total",
			Help: "Number of traversal-cache groups found cyclic across all rebuilds.",
		}),
		JobsScheduled: f.NewCounter(prometheus.CounterOpts{
			Name: "dataflowgraph_jobs_scheduled_total",
			Help: "Number of kernel jobs submitted to the scheduler.",
		}),
		MissingDependency: f.NewCounter(prometheus.CounterOpts{
			Name: "dataflowgraph_missing_dependency_total",
			Help: "Number of jobs rejected for touching an undeclared safety handle.",
		}),
		SafetyHandleBumps: f.NewCounter(prometheus.CounterOpts{
			Name: "dataflowgraph_safety_handle_bumps_total",
			Help: "Number of temporary safety handles invalidated at tick end.",
		}),
	}
}

// ObserveTick records one tick's duration. A nil *Metrics is a silent
// no-op, mirroring the engine's nil-logger convention so instrumentation
// stays optional.
func (m *Metrics) ObserveTick(d time.Duration) {
	if m == nil {
		return
	}
	m.TickDuration.Observe(d.Seconds())
}

// IncCyclesDetected records that one group's rebuild found a cycle.
func (m *Metrics) IncCyclesDetected() {
	if m == nil {
		return
	}
	m.CyclesDetected.Inc()
}

// AddJobsScheduled records n kernel jobs having been submitted.
func (m *Metrics) AddJobsScheduled(n int) {
	if m == nil || n == 0 {
		return
	}
	m.JobsScheduled.Add(float64(n))
}

// IncMissingDependency records one job rejected for an undeclared handle.
func (m *Metrics) IncMissingDependency() {
	if m == nil {
		return
	}
	m.MissingDependency.Inc()
}

// AddSafetyHandleBumps records n temporary handles invalidated.
func (m *Metrics) AddSafetyHandleBumps(n int) {
	if m == nil || n == 0 {
		return
	}
	m.SafetyHandleBumps.Add(float64(n))
}
