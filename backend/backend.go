// Package backend defines the uniform interface every agent backend
// implements and a name-keyed registry for looking them up.
package backend

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/agentbackplane/abp/contract"
)

// Identity names and versions a backend implementation.
type Identity struct {
	ID      string
	Version string
}

// Error wraps a failure a Backend.Run returns, naming which backend ID
// produced it so callers juggling several backends don't need to thread
// that context through separately.
type Error struct {
	BackendID string
	Err       error
}

func (e *Error) Error() string { return fmt.Sprintf("backend %q: %v", e.BackendID, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Backend executes work orders and streams events while doing so.
type Backend interface {
	Identity() Identity
	Capabilities() *contract.CapabilityManifest
	Run(ctx context.Context, runID string, workOrder contract.WorkOrder, events chan<- contract.AgentEvent) (contract.Receipt, error)
}

// Registry maps backend name to Backend, case-sensitively. Duplicate
// registration replaces the previous entry.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// Register adds or replaces the backend stored under name.
func (r *Registry) Register(name string, b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[name] = b
}

// Lookup returns the backend registered under name.
func (r *Registry) Lookup(name string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("backend: unknown backend %q", name)
	}
	return b, nil
}

// List returns every registered backend name in lexicographic order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
