package engine_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/arborix/dataflowgraph/engine"
	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/port"
	"github.com/arborix/dataflowgraph/topology"
	"github.com/stretchr/testify/require"
)

// addOneDef is the "output = input + 1" kernel used across the chained
// scenarios.
func addOneDef() *engine.NodeDefinition {
	return &engine.NodeDefinition{
		Name:         "add-one",
		Capabilities: engine.CapDataIn | engine.CapDataOut | engine.CapKernel,
		Ports: []engine.PortSpec{
			{ID: 0, Desc: port.Description{Category: port.Data, Direction: port.Input, ElementType: intType}},
			{ID: 1, Desc: port.Description{Category: port.Data, Direction: port.Output, ElementType: intType}},
		},
		Execute: func(ctx context.Context, kernelData any, p *engine.Ports) error {
			v, _ := p.Read(port.Scalar(0))
			n, _ := v.(int)
			p.Write(port.Scalar(1), n+1)

			return nil
		},
	}
}

func newSetWithAddOne(t *testing.T) (*engine.NodeSet, engine.DefinitionID) {
	t.Helper()
	reg := engine.NewDefinitionRegistry()
	id, err := reg.Register(addOneDef())
	require.NoError(t, err)

	return engine.NewNodeSet(reg), id
}

// subscribe creates a graph value that will be populated by the next
// Update call's Refresh pass; it must be created before that tick runs,
// since a subscription's side buffer only updates during Refresh.
func subscribe(t *testing.T, ns *engine.NodeSet, node handle.Handle, ref port.Ref) handle.Handle {
	t.Helper()
	gv, err := ns.CreateGraphValue(node, ref, intType)
	require.NoError(t, err)

	return gv
}

func readInt(t *testing.T, ns *engine.NodeSet, gv handle.Handle) int {
	t.Helper()
	v, exists, err := ns.ReadGraphValueBlocking(context.Background(), gv)
	require.NoError(t, err)
	require.True(t, exists)
	n, _ := v.(int)

	return n
}

func TestCreateNodeAllocatesDistinctHandles(t *testing.T) {
	ns, id := newSetWithAddOne(t)
	a, err := ns.CreateNode(id)
	require.NoError(t, err)
	b, err := ns.CreateNode(id)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestCreateNodeUnknownDefinitionFails(t *testing.T) {
	ns, _ := newSetWithAddOne(t)
	_, err := ns.CreateNode(engine.DefinitionID(99))
	require.ErrorIs(t, err, engine.ErrInvalidNodeDefinition)
}

func TestDestroyNodeThenOperationsFailInvalidHandle(t *testing.T) {
	ns, id := newSetWithAddOne(t)
	a, err := ns.CreateNode(id)
	require.NoError(t, err)
	require.NoError(t, ns.DestroyNode(a))

	err = ns.DestroyNode(a)
	require.Error(t, err)

	var engErr *engine.Error
	require.ErrorAs(t, err, &engErr)
	require.Equal(t, engine.CodeInvalidHandle, engErr.Code)
}

func TestConnectInvalidHandleFails(t *testing.T) {
	ns, id := newSetWithAddOne(t)
	a, err := ns.CreateNode(id)
	require.NoError(t, err)
	b, err := ns.CreateNode(id)
	require.NoError(t, err)
	require.NoError(t, ns.DestroyNode(b))

	_, err = ns.Connect(a, port.Scalar(1), b, port.Scalar(0), topology.DataFlow)
	var engErr *engine.Error
	require.ErrorAs(t, err, &engErr)
	require.Equal(t, engine.CodeInvalidHandle, engErr.Code)

	// A default (never-created) handle is just as invalid as a
	// destroyed one.
	_, err = ns.Connect(handle.Handle{}, port.Scalar(1), a, port.Scalar(0), topology.DataFlow)
	require.ErrorAs(t, err, &engErr)
	require.Equal(t, engine.CodeInvalidHandle, engErr.Code)

	err = ns.Disconnect(a, port.Scalar(1), b, port.Scalar(0), topology.DataFlow)
	require.ErrorAs(t, err, &engErr)
	require.Equal(t, engine.CodeInvalidHandle, engErr.Code)
}

func TestSetDataInvalidHandleFails(t *testing.T) {
	ns, id := newSetWithAddOne(t)
	a, err := ns.CreateNode(id)
	require.NoError(t, err)
	require.NoError(t, ns.DestroyNode(a))

	err = ns.SetData(a, port.Scalar(0), 7)
	var engErr *engine.Error
	require.ErrorAs(t, err, &engErr)
	require.Equal(t, engine.CodeInvalidHandle, engErr.Code)

	err = ns.SetData(handle.Handle{}, port.Scalar(0), 7)
	require.ErrorAs(t, err, &engErr)
	require.Equal(t, engine.CodeInvalidHandle, engErr.Code)
}

func TestConnectDisconnectRoundTrip(t *testing.T) {
	ns, id := newSetWithAddOne(t)
	a, err := ns.CreateNode(id)
	require.NoError(t, err)
	b, err := ns.CreateNode(id)
	require.NoError(t, err)

	eh, err := ns.Connect(a, port.Scalar(1), b, port.Scalar(0), topology.DataFlow)
	require.NoError(t, err)

	require.NoError(t, ns.DisconnectHandle(eh))
	require.Error(t, ns.DisconnectHandle(eh))
}

func TestSetDataRejectedWhenInputConnected(t *testing.T) {
	ns, id := newSetWithAddOne(t)
	a, err := ns.CreateNode(id)
	require.NoError(t, err)
	b, err := ns.CreateNode(id)
	require.NoError(t, err)
	_, err = ns.Connect(a, port.Scalar(1), b, port.Scalar(0), topology.DataFlow)
	require.NoError(t, err)

	err = ns.SetData(b, port.Scalar(0), 5)
	require.ErrorIs(t, err, engine.ErrDataInputConnected)
}

func TestUpdateChainPropagatesOneTickLater(t *testing.T) {
	// Two-node chain: A feeds B, A's input is set
	// directly, one Update is enough for B to see A's freshly produced
	// value (the render graph is patched before kernels run each tick).
	ns, id := newSetWithAddOne(t)
	a, err := ns.CreateNode(id)
	require.NoError(t, err)
	b, err := ns.CreateNode(id)
	require.NoError(t, err)
	_, err = ns.Connect(a, port.Scalar(1), b, port.Scalar(0), topology.DataFlow)
	require.NoError(t, err)

	gvA := subscribe(t, ns, a, port.Scalar(1))
	gvB := subscribe(t, ns, b, port.Scalar(1))

	require.NoError(t, ns.SetData(a, port.Scalar(0), 0))
	_, err = ns.Update(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, readInt(t, ns, gvA))
	require.Equal(t, 2, readInt(t, ns, gvB))
}

func TestResizePortArrayDisconnectsOutOfRangeEdges(t *testing.T) {
	reg := engine.NewDefinitionRegistry()
	arrDefID, err := reg.Register(&engine.NodeDefinition{
		Name:         "array-sink",
		Capabilities: engine.CapDataIn | engine.CapPortArrays,
		ArraySizes:   map[port.ID]int{0: 4},
		Ports: []engine.PortSpec{
			{ID: 0, Desc: port.Description{Category: port.Data, Direction: port.Input, ElementType: intType, IsArray: true}},
		},
	})
	require.NoError(t, err)
	srcID, err := reg.Register(addOneDef())
	require.NoError(t, err)

	ns := engine.NewNodeSet(reg)
	src, err := ns.CreateNode(srcID)
	require.NoError(t, err)
	sink, err := ns.CreateNode(arrDefID)
	require.NoError(t, err)

	eh, err := ns.Connect(src, port.Scalar(1), sink, port.Element(0, 3), topology.DataFlow)
	require.NoError(t, err)

	require.NoError(t, ns.ResizePortArray(sink, 0, 2))
	require.Error(t, ns.DisconnectHandle(eh), "shrinking the array past index 3 must have disconnected its edge already")
}

func TestGraphValueSurvivesNodeDestruction(t *testing.T) {
	ns, id := newSetWithAddOne(t)
	a, err := ns.CreateNode(id)
	require.NoError(t, err)
	require.NoError(t, ns.SetData(a, port.Scalar(0), 9))

	// Subscribe before the tick that produces the value under test, so
	// this tick's Refresh captures it into the side buffer while a is
	// still alive.
	gv := subscribe(t, ns, a, port.Scalar(1))
	_, err = ns.Update(context.Background())
	require.NoError(t, err)

	require.NoError(t, ns.DestroyNode(a))
	_, err = ns.Update(context.Background())
	require.NoError(t, err)

	v, exists, err := ns.ReadGraphValue(gv)
	require.NoError(t, err)
	require.False(t, exists)
	require.Equal(t, 10, v, "last-known value is retained after the target is destroyed")
}

func TestCreateGraphValueTypeMismatchFails(t *testing.T) {
	ns, id := newSetWithAddOne(t)
	a, err := ns.CreateNode(id)
	require.NoError(t, err)

	_, err = ns.CreateGraphValue(a, port.Scalar(1), reflect.TypeOf(""))
	require.Error(t, err)
}
