// File: blank.go
// Role: the shared, read-only zero-filled "blank page" used as the source
// for unconnected data inputs.
package port

import (
	"reflect"
	"sync"
)

// BlankPages hands out one lazily-built, shared zero-valued instance per
// element type, so every unconnected input of that type reads the same
// (read-only by convention) value rather than allocating its own.
type BlankPages struct {
	mu     sync.Mutex
	values map[reflect.Type]any
}

// NewBlankPages creates an empty registry.
func NewBlankPages() *BlankPages {
	return &BlankPages{values: make(map[reflect.Type]any)}
}

// For returns the blank value for t, building and caching it on first
// use. The returned value is always the zero value of t's Go
// representation and must never be mutated by callers.
func (b *BlankPages) For(t reflect.Type) any {
	b.mu.Lock()
	defer b.mu.Unlock()

	if v, ok := b.values[t]; ok {
		return v
	}
	v := reflect.Zero(t).Interface()
	b.values[t] = v

	return v
}
