package rendergraph_test

import (
	"reflect"
	"testing"

	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/port"
	"github.com/arborix/dataflowgraph/rendergraph"
	"github.com/arborix/dataflowgraph/topology"
	"github.com/stretchr/testify/require"
)

var intType = reflect.TypeOf(int(0))

type stubResolver struct{}

func (stubResolver) Describe(node handle.Handle, ref port.Ref) (port.Description, bool) {
	if ref.Port == 0 {
		return port.Description{Category: port.Data, Direction: port.Output, ElementType: intType}, true
	}

	return port.Description{Category: port.Data, Direction: port.Input, ElementType: intType}, true
}

func node(i uint32) handle.Handle { return handle.Handle{Index: i, Version: 1} }

// TestPatchResolvesConnectedInputToProducerOutput is the central
// correctness property of the patching pass.
func TestPatchResolvesConnectedInputToProducerOutput(t *testing.T) {
	db := topology.NewDatabase(1, stubResolver{})
	g := rendergraph.NewGraph(port.NewBlankPages())

	a, b := node(1), node(2)
	_, err := db.Connect(a, port.Scalar(0), b, port.Scalar(1), topology.DataFlow)
	require.NoError(t, err)

	g.WriteOutput(a, port.Scalar(0), 42)
	g.Patch(db, []rendergraph.InputDescriptor{{Node: b, Ref: port.Scalar(1), ElementType: intType}})

	v, ok := g.ReadInput(b, port.Scalar(1))
	require.True(t, ok)
	require.Equal(t, 42, v)

	// A later WriteOutput is visible without re-patching: the source
	// indirection resolves at read time, not at patch time.
	g.WriteOutput(a, port.Scalar(0), 43)
	v, ok = g.ReadInput(b, port.Scalar(1))
	require.True(t, ok)
	require.Equal(t, 43, v)
}

// TestPatchUnconnectedInputResolvesToBlankPage.
func TestPatchUnconnectedInputResolvesToBlankPage(t *testing.T) {
	db := topology.NewDatabase(1, stubResolver{})
	g := rendergraph.NewGraph(port.NewBlankPages())

	b := node(2)
	g.Patch(db, []rendergraph.InputDescriptor{{Node: b, Ref: port.Scalar(1), ElementType: intType}})

	v, ok := g.ReadInput(b, port.Scalar(1))
	require.True(t, ok)
	require.Equal(t, 0, v)
}

// TestSetDataIsOneShot: a pending SetData write wins the next Patch, then
// is consumed, after which the input reverts to its edge/blank source.
func TestSetDataIsOneShot(t *testing.T) {
	db := topology.NewDatabase(1, stubResolver{})
	g := rendergraph.NewGraph(port.NewBlankPages())
	b := node(2)
	inputs := []rendergraph.InputDescriptor{{Node: b, Ref: port.Scalar(1), ElementType: intType}}

	g.SetData(b, port.Scalar(1), 7)
	g.Patch(db, inputs)
	v, ok := g.ReadInput(b, port.Scalar(1))
	require.True(t, ok)
	require.Equal(t, 7, v)

	g.Patch(db, inputs)
	v, ok = g.ReadInput(b, port.Scalar(1))
	require.True(t, ok)
	require.Equal(t, 0, v) // reverted to blank page, no producer connected
}

func TestAllocateBufferResizeArrayPreservesPrefix(t *testing.T) {
	g := rendergraph.NewGraph(port.NewBlankPages())
	a := node(1)
	desc := port.Description{Category: port.DataArray, Direction: port.Output, ElementType: intType, IsArray: true}

	g.AllocateBuffer(a, 0, desc, 3)
	g.WriteOutput(a, port.Element(0, 0), 10)
	g.WriteOutput(a, port.Element(0, 1), 20)
	g.WriteOutput(a, port.Element(0, 2), 30)

	g.AllocateBuffer(a, 0, desc, 5)
	v0, _ := g.ReadOutput(a, port.Element(0, 0))
	v2, _ := g.ReadOutput(a, port.Element(0, 2))
	v4, _ := g.ReadOutput(a, port.Element(0, 4))
	require.Equal(t, 10, v0)
	require.Equal(t, 30, v2)
	require.Equal(t, 0, v4)
}

func TestAllocateAggregateBuffer(t *testing.T) {
	g := rendergraph.NewGraph(port.NewBlankPages())
	a := node(1)
	desc := port.Description{
		Category: port.DataBuffer, Direction: port.Output, ElementType: intType,
		Buffers: []port.BufferDescriptor{{Name: "low", Offset: 0, ElementLen: 2}, {Name: "high", Offset: 2, ElementLen: 2}},
	}
	g.AllocateBuffer(a, 0, desc, 0)
	g.WriteAggregateOutput(a, 0, "low", 0, 5)
	g.WriteAggregateOutput(a, 0, "high", 1, 9)

	require.True(t, desc.IsAggregate())
}

func TestReleaseStorageDropsOutputs(t *testing.T) {
	db := topology.NewDatabase(1, stubResolver{})
	g := rendergraph.NewGraph(port.NewBlankPages())
	a, b := node(1), node(2)
	g.WriteOutput(a, port.Scalar(0), 1)
	g.ReleaseStorage(a)

	g.Patch(db, []rendergraph.InputDescriptor{{Node: b, Ref: port.Scalar(1), ElementType: intType}})
	v, ok := g.ReadInput(b, port.Scalar(1))
	require.True(t, ok)
	require.Equal(t, 0, v)

	_, ok = g.ReadOutput(a, port.Scalar(0))
	require.False(t, ok)
}
