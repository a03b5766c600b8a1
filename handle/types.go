package handle

import (
	"errors"
	"fmt"
)

// Sentinel errors for handle validation, mirroring the sentinel-error
// convention used throughout the engine's ancestor graph library.
var (
	// ErrInvalidHandle indicates the handle's slot is empty, out of range,
	// or its version does not match the slot's current version.
	ErrInvalidHandle = errors.New("handle: invalid or destroyed handle")

	// ErrInvalidForSet indicates a handle minted by one NodeSet was used
	// against a different NodeSet.
	ErrInvalidForSet = errors.New("handle: invalid for this set")
)

// SetID is the process-wide unique identity of a NodeSet. Handles embed
// the SetID of the set that minted them so cross-set use is detected
// rather than silently aliasing unrelated slot tables.
type SetID uint64

// Handle is a versioned identity: Index selects a dense slot, Version
// distinguishes this occupant of the slot from any previous (destroyed)
// occupant, and Set ties the handle to the table that allocated it.
//
// The zero value Handle{} never denotes a live object (see doc.go) and is
// used throughout the engine as the "absent" sentinel (e.g. the handle
// returned alongside an error).
type Handle struct {
	Set     SetID
	Index   uint32
	Version uint32
}

// IsZero reports whether h is the zero Handle (never allocated).
func (h Handle) IsZero() bool { return h == Handle{} }

// String renders a handle as "set:index#version" for logs and error text.
func (h Handle) String() string {
	return fmt.Sprintf("%d:%d#%d", h.Set, h.Index, h.Version)
}

// Validated is a Handle that has been checked against its Table exactly
// once via Table.Validate. Code that threads a Validated handle through a
// hot path (e.g. kernel scheduling within a single tick) may dereference
// its slot without re-checking Table.Exists.
//
// A Validated value must not outlive the tick in which it was produced:
// nothing prevents the underlying slot from being freed by a later
// mutation, at which point the Validated handle is stale despite its
// type. Callers that need a longer-lived identity keep the plain Handle
// and re-validate.
type Validated struct {
	h Handle
}

// Handle returns the underlying Handle of a Validated value.
func (v Validated) Handle() Handle { return v.h }
