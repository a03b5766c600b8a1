// File: errors.go
// Role: the unified error taxonomy external callers switch on, wrapping
// the lower-level packages' own sentinel errors under one Code.
package engine

import (
	"errors"
	"fmt"

	"github.com/arborix/dataflowgraph/graphvalue"
	"github.com/arborix/dataflowgraph/handle"
	"github.com/arborix/dataflowgraph/port"
	"github.com/arborix/dataflowgraph/safety"
	"github.com/arborix/dataflowgraph/topology"
)

// Code classifies an Error for callers that want to branch on failure
// kind rather than on a specific sentinel value.
type Code uint8

const (
	CodeUnknown Code = iota
	CodeInvalidHandle
	CodeInvalidForSet
	CodeInvalidCast
	CodeTypeMismatch
	CodeOutOfRange
	CodeCycles
	CodeMissingDependency
	CodeAlreadyDisposed
	CodeInvalidNodeDefinition
	CodeUndefinedBehavior
)

func (c Code) String() string {
	switch c {
	case CodeInvalidHandle:
		return "InvalidHandle"
	case CodeInvalidForSet:
		return "InvalidForSet"
	case CodeInvalidCast:
		return "InvalidCast"
	case CodeTypeMismatch:
		return "TypeMismatch"
	case CodeOutOfRange:
		return "OutOfRange"
	case CodeCycles:
		return "Cycles"
	case CodeMissingDependency:
		return "MissingDependency"
	case CodeAlreadyDisposed:
		return "AlreadyDisposed"
	case CodeInvalidNodeDefinition:
		return "InvalidNodeDefinition"
	case CodeUndefinedBehavior:
		return "UndefinedBehavior"
	default:
		return "Unknown"
	}
}

// Error is the single typed error every exported NodeSet method returns
// on failure, carrying a Code plus the wrapped underlying cause from
// whichever package actually detected it.
type Error struct {
	Code Code
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("engine: %s: %s: %v", e.Op, e.Code, e.Err)
	}

	return fmt.Sprintf("engine: %s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(code Code, op string, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}

// classify maps a lower-level package's sentinel error onto a Code, used
// by every NodeSet method so callers get one consistent taxonomy
// regardless of which internal package raised the failure.
func classify(err error) Code {
	switch {
	case err == nil:
		return CodeUnknown
	case errors.Is(err, handle.ErrInvalidHandle), errors.Is(err, topology.ErrInvalidHandle),
		errors.Is(err, topology.ErrEdgeNotFound), errors.Is(err, ErrNodeNotFound),
		errors.Is(err, graphvalue.ErrInvalidHandle):
		return CodeInvalidHandle
	case errors.Is(err, handle.ErrInvalidForSet):
		return CodeInvalidForSet
	case errors.Is(err, topology.ErrTypeMismatch), errors.Is(err, graphvalue.ErrElementTypeMismatch):
		return CodeTypeMismatch
	case errors.Is(err, topology.ErrCategoryMismatch), errors.Is(err, topology.ErrArrayIndexRequired),
		errors.Is(err, topology.ErrArrayIndexInvalid), errors.Is(err, topology.ErrUnknownPort):
		return CodeInvalidCast
	case errors.Is(err, port.ErrOutOfRange), errors.Is(err, ErrIndexOutOfRange):
		return CodeOutOfRange
	case errors.Is(err, topology.ErrDataInputOccupied):
		return CodeInvalidCast
	case errors.Is(err, safety.ErrMissingDependency):
		return CodeMissingDependency
	case errors.Is(err, ErrAlreadyDisposed):
		return CodeAlreadyDisposed
	case errors.Is(err, ErrInvalidNodeDefinition):
		return CodeInvalidNodeDefinition
	default:
		return CodeUnknown
	}
}

// Sentinel errors engine itself originates, for conditions none of the
// lower packages model (they have no concept of a definition registry or
// of message dispatch).
var (
	ErrNodeNotFound          = errors.New("engine: node not found")
	ErrIndexOutOfRange       = errors.New("engine: port-array index out of range")
	ErrAlreadyDisposed       = errors.New("engine: node set already disposed")
	ErrInvalidNodeDefinition = errors.New("engine: invalid node definition")
	ErrNotAMessagePort       = errors.New("engine: port is not a message port")
	ErrPoisoned              = errors.New("engine: node set is poisoned after a fatal error")
	ErrDataInputConnected    = errors.New("engine: data input already has a connected source")
)
