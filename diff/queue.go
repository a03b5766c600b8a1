// File: queue.go
// Role: Queue accumulates commands during a tick (or between ticks) for a
// single atomic Apply.
// Concurrency:
//   - Mutations under the queue's write lock: callers append under lock,
//     Apply drains under the same lock.
package diff

import (
	"sync"

	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/port"
	"github.com/arborix/dataflowgraph/topology"
)

// Queue is the per-NodeSet command accumulator. Zero value is not usable;
// construct with NewQueue.
type Queue struct {
	mu       sync.Mutex
	commands []command
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	return &Queue{}
}

// EnqueueCreateNode records that node (already allocated in its handle
// table by the caller) entered existence with the given definition.
func (q *Queue) EnqueueCreateNode(node handle.Handle, def DefinitionID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.commands = append(q.commands, command{kind: kindCreateNode, node: node, definition: def})
}

// EnqueueDestroyNode records that node is to be destroyed; its incident
// edges are removed by Apply as part of the same atomic step.
func (q *Queue) EnqueueDestroyNode(node handle.Handle, def DefinitionID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.commands = append(q.commands, command{kind: kindDestroyNode, node: node, definition: def})
}

// EnqueueConnect records a requested edge; it is applied through the
// topology database's own compatibility checks during Apply, so a queued
// Connect can still fail at apply time.
func (q *Queue) EnqueueConnect(src handle.Handle, srcPort port.Ref, dst handle.Handle, dstPort port.Ref, cat topology.Category) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.commands = append(q.commands, command{kind: kindConnect, srcNode: src, srcPort: srcPort, dstNode: dst, dstPort: dstPort, category: cat})
}

// EnqueueDisconnect records removal of a specific edge by handle.
func (q *Queue) EnqueueDisconnect(edge handle.Handle) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.commands = append(q.commands, command{kind: kindDisconnect, edge: edge})
}

// EnqueueResizePortArray records a port-array size change for node/ref.
func (q *Queue) EnqueueResizePortArray(node handle.Handle, ref port.Ref, newSize int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.commands = append(q.commands, command{kind: kindResizePortArray, node: node, port: ref, newSize: newSize})
}

// EnqueueMoveEntity records that an externally tracked entity's backing
// memory moved, requiring a repatch of any port pointing at it.
func (q *Queue) EnqueueMoveEntity(node handle.Handle, newPointer uintptr) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.commands = append(q.commands, command{kind: kindMoveEntity, node: node, newPointer: newPointer})
}

// Len reports the number of commands currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.commands)
}

// drain removes and returns every queued command, resetting the queue.
func (q *Queue) drain() []command {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.commands
	q.commands = nil

	return out
}
