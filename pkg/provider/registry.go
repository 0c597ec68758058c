package provider

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

const registryLogPrefix = "provider:registry"

// Registry maps API versions to handler-sets. It is populated at startup and
// read-only once frozen.
type Registry struct {
	mu     sync.RWMutex
	sets   map[int]*HandlerSet
	frozen bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sets: make(map[int]*HandlerSet)}
}

// Register adds the handler-set under its version.
func (r *Registry) Register(set *HandlerSet) error {
	if set == nil {
		return fmt.Errorf("%s - nil handler-set", registryLogPrefix)
	}
	v := set.Version()
	if v < 1 {
		return fmt.Errorf("%s - version %d must be positive", registryLogPrefix, v)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("%s - %w: version %d", registryLogPrefix, ErrFrozen, v)
	}
	if _, exists := r.sets[v]; exists {
		return fmt.Errorf("%s - version %d already registered", registryLogPrefix, v)
	}
	r.sets[v] = set
	slog.Info(fmt.Sprintf("%s - registered version %d with %d procedures", registryLogPrefix, v, len(set.Procedures())))
	return nil
}

// Freeze stops further registration on the registry and its handler-sets.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
	for _, set := range r.sets {
		set.freeze()
	}
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Resolve returns the handler-set for version. A miss is not an error.
func (r *Registry) Resolve(version int) (*HandlerSet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.sets[version]
	return set, ok
}

// Versions returns the registered versions in ascending order.
func (r *Registry) Versions() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]int, 0, len(r.sets))
	for v := range r.sets {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
