// File: definition.go
// Role: the external node-definition contract: a static port
// table, simulation/kernel-data/kernel-state payload constructors,
// lifecycle hooks, a message handler, and a pure kernel. Capability
// bitflags collapse the source's inheritance/mixin hierarchy into a
// single bitmask plus per-capability function pointers.
package engine

import (
	"context"
	"fmt"
	"reflect"

	"github.com/arborix/dataflowgraph/diff"
	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/port"
	"github.com/arborix/dataflowgraph/rendergraph"
	"github.com/go-playground/validator/v10"
)

// Capability is a bitflag set describing what a NodeDefinition
// participates in, replacing the inheritance/mixin hierarchy a
// reference implementation might use with a flat bitmask plus
// per-capability function pointers.
type Capability uint16

const (
	CapSimulation Capability = 1 << iota
	CapKernel
	CapMessagesIn
	CapMessagesOut
	CapDSL
	CapDataIn
	CapDataOut
	CapPortArrays
)

// Has reports whether c includes every bit set in want.
func (c Capability) Has(want Capability) bool { return c&want == want }

// PortSpec pairs a port's small integer ID with its static description.
type PortSpec struct {
	ID   port.ID
	Desc port.Description
}

// DefinitionID identifies a registered NodeDefinition.
type DefinitionID = diff.DefinitionID

// Ports is the per-invocation view a kernel or message handler uses to
// read its inputs and write its outputs; it never exposes any other
// node's storage directly, matching the "no direct references to other
// nodes' storage" external contract.
type Ports struct {
	node handle.Handle
	rg   *rendergraph.Graph
}

// Read returns the current value visible at input ref: the live
// producer output, a pending one-shot SetData write, or the element
// type's blank page if nothing is connected.
func (p *Ports) Read(ref port.Ref) (any, bool) { return p.rg.ReadInput(p.node, ref) }

// Write stores value as the current content of output ref.
func (p *Ports) Write(ref port.Ref, value any) { p.rg.WriteOutput(p.node, ref, value) }

// WriteAggregateBuffer stores value into one slot of an aggregate
// output's named sub-buffer.
func (p *Ports) WriteAggregateBuffer(portID port.ID, bufferName string, index int, value any) {
	p.rg.WriteAggregateOutput(p.node, portID, bufferName, index, value)
}

// Node returns the handle of the node this Ports view belongs to.
func (p *Ports) Node() handle.Handle { return p.node }

// KernelFunc is a node definition's per-tick compute function: pure with
// respect to graph structure, parallelizable, and free to run on any
// worker goroutine the scheduler chooses.
type KernelFunc func(ctx context.Context, kernelData any, ports *Ports) error

// MessageFunc handles one delivered message addressed to ref (a scalar
// port or one element of a port array).
type MessageFunc func(ctx *Context, ref port.Ref, value any) error

// LifecycleFunc is the node Init/Destroy hook shape.
type LifecycleFunc func(ctx *Context) error

// NodeDefinition is everything a node definition supplies: port layout,
// payload constructors, lifecycle hooks, message handling, and the
// kernel. Node definitions must never reference another node's storage
// directly; all I/O happens through Ports.
type NodeDefinition struct {
	// Name identifies the definition in logs and validation errors.
	Name string

	Capabilities Capability

	// Ports is the definition's static port table. Port IDs must be
	// unique within one definition.
	Ports []PortSpec

	// ArraySizes supplies each array port's initial size at node
	// creation (required for every port ID with Desc.IsArray == true).
	ArraySizes map[port.ID]int

	// NewSimulation, NewKernelData, and NewKernelState construct a
	// node's three payload regions. A nil constructor means that region
	// is simply unused (its storage stays nil). NewKernelData and
	// NewKernelState must construct trivially-copyable, non-referential
	// values (no pointer, map, slice, channel, function, or interface
	// kind) unless AllowManagedKernelPayload opts out of that check.
	NewSimulation  func() any
	NewKernelData  func() any
	NewKernelState func() any

	// AllowManagedKernelPayload opts a definition out of the
	// trivially-copyable check for kernel-data/kernel-state payloads.
	AllowManagedKernelPayload bool

	Init    LifecycleFunc
	Destroy LifecycleFunc
	OnMessage MessageFunc
	Execute KernelFunc
}

// compiledDefinition is the registry's internal, indexed form of a
// NodeDefinition: a fast by-port-ID lookup plus the original pointer.
type compiledDefinition struct {
	def    *NodeDefinition
	byPort map[port.ID]port.Description
}

// definitionDTO is the struct validator.Validate actually checks;
// NodeDefinition itself carries function-pointer fields validator
// cannot inspect, so registration validates this narrow projection
// instead: a plain config struct, not the richer domain type it
// produces.
type definitionDTO struct {
	Name     string `validate:"required"`
	PortIDs  []int  `validate:"dive,gte=0"`
}

// DefinitionRegistry is the table of node definitions a Node addresses
// by DefinitionID.
type DefinitionRegistry struct {
	validate *validator.Validate
	defs     []*compiledDefinition
}

// NewDefinitionRegistry creates an empty registry.
func NewDefinitionRegistry() *DefinitionRegistry {
	return &DefinitionRegistry{validate: validator.New()}
}

// Register validates def and appends it to the registry, returning the
// DefinitionID future CreateNode calls will reference. Validation
// failures never mutate the registry.
func (r *DefinitionRegistry) Register(def *NodeDefinition) (DefinitionID, error) {
	dto := definitionDTO{Name: def.Name}
	for _, p := range def.Ports {
		dto.PortIDs = append(dto.PortIDs, int(p.ID))
	}
	if err := r.validate.Struct(dto); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidNodeDefinition, err)
	}

	byPort := make(map[port.ID]port.Description, len(def.Ports))
	for _, p := range def.Ports {
		if _, dup := byPort[p.ID]; dup {
			return 0, fmt.Errorf("%w: %q: duplicate port id %d", ErrInvalidNodeDefinition, def.Name, p.ID)
		}
		if err := checkPortSlot(def, p); err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrInvalidNodeDefinition, def.Name, err)
		}
		byPort[p.ID] = p.Desc
	}

	if !def.AllowManagedKernelPayload {
		if err := checkTriviallyCopyable("kernel data", def.NewKernelData); err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrInvalidNodeDefinition, def.Name, err)
		}
		if err := checkTriviallyCopyable("kernel state", def.NewKernelState); err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrInvalidNodeDefinition, def.Name, err)
		}
	}

	id := DefinitionID(len(r.defs))
	r.defs = append(r.defs, &compiledDefinition{def: def, byPort: byPort})

	return id, nil
}

// checkPortSlot enforces that a port's category agrees with the
// capability bits the definition declared for it.
func checkPortSlot(def *NodeDefinition, p PortSpec) error {
	switch p.Desc.Category {
	case port.Message:
		if p.Desc.Direction == port.Input && !def.Capabilities.Has(CapMessagesIn) {
			return fmt.Errorf("message input port %d requires CapMessagesIn", p.ID)
		}
		if p.Desc.Direction == port.Output && !def.Capabilities.Has(CapMessagesOut) {
			return fmt.Errorf("message output port %d requires CapMessagesOut", p.ID)
		}
	case port.DomainSpecific:
		if !def.Capabilities.Has(CapDSL) {
			return fmt.Errorf("DSL port %d requires CapDSL", p.ID)
		}
	case port.Data, port.DataBuffer, port.DataArray:
		if p.Desc.Direction == port.Input && !def.Capabilities.Has(CapDataIn) {
			return fmt.Errorf("data input port %d requires CapDataIn", p.ID)
		}
		if p.Desc.Direction == port.Output && !def.Capabilities.Has(CapDataOut) {
			return fmt.Errorf("data output port %d requires CapDataOut", p.ID)
		}
	}
	if p.Desc.IsArray && !def.Capabilities.Has(CapPortArrays) {
		return fmt.Errorf("array port %d requires CapPortArrays", p.ID)
	}
	if p.Desc.IsArray {
		if _, ok := def.ArraySizes[p.ID]; !ok {
			return fmt.Errorf("array port %d has no initial ArraySizes entry", p.ID)
		}
	}

	return nil
}

// checkTriviallyCopyable rejects a payload constructor whose zero-call
// product has a referential kind (pointer, map, slice, channel,
// function, interface): kernel data and state must be trivially
// copyable and non-referential.
func checkTriviallyCopyable(label string, ctor func() any) error {
	if ctor == nil {
		return nil
	}
	v := ctor()
	if v == nil {
		return nil
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return fmt.Errorf("%s payload has referential kind %s; opt in with AllowManagedKernelPayload", label, reflect.TypeOf(v).Kind())
	default:
		return nil
	}
}

// describe looks up id's port description for ref.Port.
func (r *DefinitionRegistry) describe(id DefinitionID, p port.ID) (port.Description, bool) {
	if int(id) < 0 || int(id) >= len(r.defs) {
		return port.Description{}, false
	}
	d, ok := r.defs[id].byPort[p]

	return d, ok
}

func (r *DefinitionRegistry) definition(id DefinitionID) (*NodeDefinition, bool) {
	if int(id) < 0 || int(id) >= len(r.defs) {
		return nil, false
	}

	return r.defs[id].def, true
}
