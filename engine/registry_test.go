package engine_test

import (
	"reflect"
	"testing"

	"github.com/arborix/dataflowgraph/engine"
	"github.com/arborix/dataflowgraph/port"
	"github.com/stretchr/testify/require"
)

var intType = reflect.TypeOf(int(0))

func TestRegisterRejectsDuplicatePortID(t *testing.T) {
	r := engine.NewDefinitionRegistry()
	_, err := r.Register(&engine.NodeDefinition{
		Name:         "dup",
		Capabilities: engine.CapDataIn | engine.CapDataOut | engine.CapKernel,
		Ports: []engine.PortSpec{
			{ID: 0, Desc: port.Description{Category: port.Data, Direction: port.Input, ElementType: intType}},
			{ID: 0, Desc: port.Description{Category: port.Data, Direction: port.Output, ElementType: intType}},
		},
	})
	require.ErrorIs(t, err, engine.ErrInvalidNodeDefinition)
}

func TestRegisterRejectsPortWithoutCapability(t *testing.T) {
	r := engine.NewDefinitionRegistry()
	_, err := r.Register(&engine.NodeDefinition{
		Name:         "no-cap",
		Capabilities: engine.CapKernel,
		Ports: []engine.PortSpec{
			{ID: 0, Desc: port.Description{Category: port.Data, Direction: port.Input, ElementType: intType}},
		},
	})
	require.ErrorIs(t, err, engine.ErrInvalidNodeDefinition)
}

func TestRegisterRejectsArrayPortWithoutSize(t *testing.T) {
	r := engine.NewDefinitionRegistry()
	_, err := r.Register(&engine.NodeDefinition{
		Name:         "missing-size",
		Capabilities: engine.CapDataIn | engine.CapPortArrays,
		Ports: []engine.PortSpec{
			{ID: 0, Desc: port.Description{Category: port.Data, Direction: port.Input, ElementType: intType, IsArray: true}},
		},
	})
	require.ErrorIs(t, err, engine.ErrInvalidNodeDefinition)
}

func TestRegisterRejectsReferentialKernelData(t *testing.T) {
	r := engine.NewDefinitionRegistry()
	_, err := r.Register(&engine.NodeDefinition{
		Name:          "bad-kernel-data",
		Capabilities:  engine.CapKernel,
		NewKernelData: func() any { return make([]int, 0) },
	})
	require.ErrorIs(t, err, engine.ErrInvalidNodeDefinition)
}

func TestRegisterAllowsReferentialKernelDataWhenOptedIn(t *testing.T) {
	r := engine.NewDefinitionRegistry()
	_, err := r.Register(&engine.NodeDefinition{
		Name:                      "managed-kernel-data",
		Capabilities:              engine.CapKernel,
		NewKernelData:             func() any { return make([]int, 0) },
		AllowManagedKernelPayload: true,
	})
	require.NoError(t, err)
}

func TestRegisterRejectsEmptyName(t *testing.T) {
	r := engine.NewDefinitionRegistry()
	_, err := r.Register(&engine.NodeDefinition{Capabilities: engine.CapKernel})
	require.ErrorIs(t, err, engine.ErrInvalidNodeDefinition)
}

func TestRegisterAssignsSequentialIDs(t *testing.T) {
	r := engine.NewDefinitionRegistry()
	a, err := r.Register(&engine.NodeDefinition{Name: "a", Capabilities: engine.CapKernel})
	require.NoError(t, err)
	b, err := r.Register(&engine.NodeDefinition{Name: "b", Capabilities: engine.CapKernel})
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
