package forward_test

import (
	"testing"

	"github.com/arborix/dataflowgraph/forward"
	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/port"
	"github.com/stretchr/testify/require"
)

func TestResolveRewritesOuterToInner(t *testing.T) {
	tbl := forward.NewTable(1)
	outer := handle.Handle{Index: 1, Version: 1}
	inner := handle.Handle{Index: 2, Version: 1}

	_, err := tbl.Add(forward.Entry{
		OwningNode: outer, OuterPort: port.Scalar(0),
		InnerNode: inner, InnerPort: port.Scalar(3),
		Direction: port.Input,
	})
	require.NoError(t, err)

	n, r, rewritten := tbl.Resolve(outer, port.Scalar(0), port.Input)
	require.True(t, rewritten)
	require.Equal(t, inner, n)
	require.Equal(t, port.Scalar(3), r)

	// Output direction for the same outer port is not forwarded.
	_, _, rewritten = tbl.Resolve(outer, port.Scalar(0), port.Output)
	require.False(t, rewritten)
}

func TestDuplicateForwardRejected(t *testing.T) {
	tbl := forward.NewTable(1)
	outer := handle.Handle{Index: 1, Version: 1}
	inner := handle.Handle{Index: 2, Version: 1}
	entry := forward.Entry{OwningNode: outer, OuterPort: port.Scalar(0), InnerNode: inner, InnerPort: port.Scalar(0), Direction: port.Input}

	_, err := tbl.Add(entry)
	require.NoError(t, err)
	_, err = tbl.Add(entry)
	require.ErrorIs(t, err, forward.ErrAlreadyForwarded)
}

func TestRemoveOwnerDropsAllEntries(t *testing.T) {
	tbl := forward.NewTable(1)
	outer := handle.Handle{Index: 1, Version: 1}
	inner := handle.Handle{Index: 2, Version: 1}

	_, err := tbl.Add(forward.Entry{OwningNode: outer, OuterPort: port.Scalar(0), InnerNode: inner, InnerPort: port.Scalar(0), Direction: port.Input})
	require.NoError(t, err)
	_, err = tbl.Add(forward.Entry{OwningNode: outer, OuterPort: port.Scalar(1), InnerNode: inner, InnerPort: port.Scalar(1), Direction: port.Output})
	require.NoError(t, err)

	tbl.RemoveOwner(outer)
	_, _, rewritten := tbl.Resolve(outer, port.Scalar(0), port.Input)
	require.False(t, rewritten)
	_, _, rewritten = tbl.Resolve(outer, port.Scalar(1), port.Output)
	require.False(t, rewritten)
}

func TestResolveDeepChainsForwarding(t *testing.T) {
	tbl := forward.NewTable(1)
	a := handle.Handle{Index: 1, Version: 1}
	b := handle.Handle{Index: 2, Version: 1}
	c := handle.Handle{Index: 3, Version: 1}

	_, err := tbl.Add(forward.Entry{OwningNode: a, OuterPort: port.Scalar(0), InnerNode: b, InnerPort: port.Scalar(0), Direction: port.Input})
	require.NoError(t, err)
	_, err = tbl.Add(forward.Entry{OwningNode: b, OuterPort: port.Scalar(0), InnerNode: c, InnerPort: port.Scalar(5), Direction: port.Input})
	require.NoError(t, err)

	n, r := tbl.ResolveDeep(a, port.Scalar(0), port.Input)
	require.Equal(t, c, n)
	require.Equal(t, port.Scalar(5), r)
}
