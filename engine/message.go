// File: message.go
// Role: SendMessage: synchronous dispatch to a node's OnMessage
// handler, including port-array indexed delivery.
package engine

import (
	"fmt"

	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/port"
)

// SendMessage delivers value to node's message port ref, synchronously
// on the calling thread. ref may
// address one element of a message port array; resizing the array
// below ref.Index does not retroactively invalidate a message already
// delivered to it.
func (ns *NodeSet) SendMessage(node handle.Handle, ref port.Ref, value any) error {
	ns.mu.Lock()

	if err := ns.checkPoisoned("SendMessage"); err != nil {
		ns.mu.Unlock()

		return err
	}

	rec, ok := ns.nodes.Get(node)
	if !ok {
		ns.mu.Unlock()

		return newErr(classify(ErrNodeNotFound), "SendMessage", ErrNodeNotFound)
	}
	desc, ok := ns.defs.describe(rec.def, ref.Port)
	if !ok {
		ns.mu.Unlock()

		return newErr(CodeInvalidCast, "SendMessage", fmt.Errorf("%w: port %d", ErrNodeNotFound, ref.Port))
	}
	if desc.Category != port.Message {
		ns.mu.Unlock()

		return newErr(CodeInvalidCast, "SendMessage", ErrNotAMessagePort)
	}
	if desc.IsArray && !ref.IsArrayElement() {
		ns.mu.Unlock()

		return newErr(CodeOutOfRange, "SendMessage", ErrIndexOutOfRange)
	}
	if desc.IsArray {
		if ref.Index < 0 || int(ref.Index) >= rec.arraySizes[ref.Port] {
			ns.mu.Unlock()

			return newErr(CodeOutOfRange, "SendMessage", ErrIndexOutOfRange)
		}
	}

	def, _ := ns.defs.definition(rec.def)

	// OnMessage runs with mu released so a handler is free to call back
	// into the NodeSet (connect, send further messages, destroy itself).
	var onMessage MessageFunc
	if def != nil {
		onMessage = def.OnMessage
	}
	ns.mu.Unlock()

	if onMessage == nil {
		return nil
	}
	if err := onMessage(&Context{ns: ns, Node: node}, ref, value); err != nil {
		ns.mu.Lock()
		ns.poisoned = true
		ns.mu.Unlock()

		return newErr(CodeUndefinedBehavior, "SendMessage", err)
	}

	return nil
}
