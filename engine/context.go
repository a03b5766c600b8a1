// File: context.go
// Role: Context is the handle a node's Init/Destroy/OnMessage hooks use
// to see their own identity and reach back into the owning NodeSet for
// the narrow set of operations lifecycle code legitimately needs.
package engine

import (
	"github.com/arborix/dataflowgraph/handle"
)

// Context is passed to a node definition's Init, Destroy, and OnMessage
// hooks.
type Context struct {
	ns   *NodeSet
	Node handle.Handle
}

// NodeSet returns the owning NodeSet, for hooks that need to create,
// destroy, connect, or message other nodes.
func (c *Context) NodeSet() *NodeSet { return c.ns }
