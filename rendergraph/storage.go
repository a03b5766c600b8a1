// File: storage.go
// Role: per-node kernel storage and output buffer (re)allocation, including aggregate
// sub-buffer layout.
package rendergraph

import (
	"reflect"

	"github.com/arborix/dataflowgraph/port"
)

// KernelStorage holds one node's three payload regions:
//   - Simulation: mutable on the main thread only.
//   - KernelData: produced on the main thread, read-only inside kernels.
//   - KernelState: owned by the kernel; initialized once, persists across
//     ticks, mutable only inside kernels.
type KernelStorage struct {
	Simulation  any
	KernelData  any
	KernelState any
}

// outputSlot is the backing storage for one output port: exactly one of
// scalar, array, or buffers is populated, depending on the port's
// Description (IsArray / IsAggregate).
type outputSlot struct {
	scalar  any
	array   []any
	buffers map[string][]any
}

// resizeArray reallocates an array output's backing slice to n elements.
// Existing prefix elements are preserved; new elements are zeroed,
// matching port.Array's resize semantics for output storage.
func (s *outputSlot) resizeArray(n int, t reflect.Type) {
	next := make([]any, n)
	for i := range next {
		if i < len(s.array) {
			next[i] = s.array[i]
		} else {
			next[i] = reflect.Zero(t).Interface()
		}
	}
	s.array = next
}

// allocateAggregate walks descs to allocate and zero each named
// sub-buffer. Offset is informational for callers that need the combined
// layout; each sub-buffer is stored independently by name since Go has no
// need to pack them into one contiguous native allocation.
func (s *outputSlot) allocateAggregate(descs []port.BufferDescriptor, t reflect.Type) {
	s.buffers = make(map[string][]any, len(descs))
	for _, d := range descs {
		buf := make([]any, d.ElementLen)
		for i := range buf {
			buf[i] = reflect.Zero(t).Interface()
		}
		s.buffers[d.Name] = buf
	}
}
