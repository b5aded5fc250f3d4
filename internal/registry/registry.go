// Package registry keeps process-wide handles that must be built at most once,
// even when initialization code runs repeatedly in the same process.
package registry

import (
	"fmt"
	"sync"
)

// Registry maps names to handles. The zero value is not usable; call New.
type Registry struct {
	mu      sync.Mutex
	handles map[string]any
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{handles: make(map[string]any)}
}

var defaultRegistry = New()

// Default returns the registry shared by the whole process.
func Default() *Registry {
	return defaultRegistry
}

// Ensure returns the handle stored under name. On the first call for a name it
// runs build and stores the result; build runs under the registry lock, so
// concurrent callers wait and then receive the same handle.
func Ensure[T any](r *Registry, name string, build func() T) T {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.handles[name]; ok {
		handle, ok := existing.(T)
		if !ok {
			panic(fmt.Sprintf("registry: %q already holds a %T", name, existing))
		}

		return handle
	}

	handle := build()
	r.handles[name] = handle

	return handle
}

// Lookup returns the handle stored under name, if any.
func (r *Registry) Lookup(name string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.handles[name]

	return h, ok
}
