// File: manager.go
// Role: Manager is the atomic safety manager: generation tracking,
// dependency declaration/validation, temporary-handle invalidation.
// Concurrency:
//   - Manager is safe for concurrent use: MarkHandlesAsUsed is called from
//     worker goroutines in the Islands/MaximallyParallel scheduler
//     strategies, so all mutable state is behind mu.
package safety

import (
	"errors"
	"fmt"
	"sync"

	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/metrics"
	"go.uber.org/zap"
)

// AccessMode records the intended access a job declared for a handle.
type AccessMode uint8

const (
	ReadOnly AccessMode = iota
	ReadWrite
)

func (m AccessMode) String() string {
	if m == ReadWrite {
		return "ReadWrite"
	}

	return "ReadOnly"
}

// ErrMissingDependency is returned by MarkHandlesAsUsed when a job's
// declared handles do not cover everything DeclareRequired recorded for
// it.
var ErrMissingDependency = errors.New("safety: job is missing a required dependency declaration")

type registration struct {
	mode       AccessMode
	generation uint64
	preserved  bool
}

// Manager owns a single monotonic generation counter and every registered
// buffer handle's access mode, keyed by the caller's chosen identity.
type Manager struct {
	mu sync.Mutex

	generation uint64
	registered map[handle.Handle]*registration
	required   map[string][]handle.Handle

	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewManager creates a Manager. A nil logger is replaced with zap.NewNop()
// so callers never need a nil check.
func NewManager(logger *zap.Logger, m *metrics.Metrics) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{
		registered: make(map[handle.Handle]*registration),
		required:   make(map[string][]handle.Handle),
		logger:     logger,
		metrics:    m,
	}
}

// BeginGeneration advances the render generation, returning its new value.
// Called once at the start of every tick.
func (m *Manager) BeginGeneration() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++

	return m.generation
}

// Generation returns the current render generation.
func (m *Manager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.generation
}

// RegisterHandle tags h with the current generation and access mode,
// called whenever a kernel acquires or resizes a native buffer.
func (m *Manager) RegisterHandle(h handle.Handle, mode AccessMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registered[h] = &registration{mode: mode, generation: m.generation}
}

// Preserve marks h to survive the next BumpTemporaryHandleVersions call,
// for buffers explicitly kept alive past their producing tick (e.g. a
// graph value's side buffer).
func (m *Manager) Preserve(h handle.Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.registered[h]; ok {
		r.preserved = true
	}
}

// IsValid reports whether h is registered against the current generation.
func (m *Manager) IsValid(h handle.Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.registered[h]

	return ok && r.generation == m.generation
}

// DeclareRequired records the full set of handles job's kernel is
// expected to touch this tick, derived by the scheduler from the
// traversal cache's parent/child tables. Must be called before
// MarkHandlesAsUsed for the same job.
func (m *Manager) DeclareRequired(job string, handles []handle.Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.required[job] = append([]handle.Handle(nil), handles...)
}

// MarkHandlesAsUsed atomically associates job with the handles it will
// touch. If job has a required set (via DeclareRequired) that is not
// fully covered by handles, the job fails with ErrMissingDependency
// before the scheduler may run its kernel.
func (m *Manager) MarkHandlesAsUsed(job string, handles []handle.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := make(map[handle.Handle]bool, len(handles))
	for _, h := range handles {
		used[h] = true
	}

	for _, req := range m.required[job] {
		if !used[req] {
			m.logger.Warn("missing safety dependency",
				zap.String("job", job), zap.Uint64("generation", m.generation))
			m.metrics.IncMissingDependency()

			return fmt.Errorf("%w: job %q did not declare handle %v", ErrMissingDependency, job, req)
		}
	}

	return nil
}

// BumpTemporaryHandleVersions invalidates every registered handle from
// the current generation that was not explicitly preserved, returning the invalidated handles for the
// caller's own bookkeeping (e.g. render graph output slot release).
func (m *Manager) BumpTemporaryHandleVersions() []handle.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	var invalidated []handle.Handle
	for h, r := range m.registered {
		if r.generation != m.generation || r.preserved {
			continue
		}
		invalidated = append(invalidated, h)
		delete(m.registered, h)
	}
	m.metrics.AddSafetyHandleBumps(len(invalidated))
	if len(invalidated) > 0 {
		m.logger.Debug("bumped temporary safety handles",
			zap.Int("count", len(invalidated)), zap.Uint64("generation", m.generation))
	}

	return invalidated
}
