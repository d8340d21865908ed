package platform

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the registered platforms in explicit priority order.
// Lower priority values are consulted first; ties keep registration order.
type Registry struct {
	mu      sync.RWMutex
	entries []registryEntry
	byName  map[string]Platform
}

type registryEntry struct {
	platform Platform
	priority int
	sequence int
}

// NewRegistry creates an empty platform registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Platform),
	}
}

// Register adds a platform with the given priority.
func (r *Registry) Register(p Platform, priority int) error {
	if p == nil {
		return fmt.Errorf("cannot register nil platform")
	}
	name := p.Name()
	if name == "" {
		return fmt.Errorf("platform has empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("platform %s already registered", name)
	}

	r.byName[name] = p
	r.entries = append(r.entries, registryEntry{
		platform: p,
		priority: priority,
		sequence: len(r.entries),
	})
	sort.SliceStable(r.entries, func(i, j int) bool {
		if r.entries[i].priority != r.entries[j].priority {
			return r.entries[i].priority < r.entries[j].priority
		}
		return r.entries[i].sequence < r.entries[j].sequence
	})
	return nil
}

// Get returns a platform by name.
func (r *Registry) Get(name string) (Platform, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.byName[name]
	return p, exists
}

// InOrder returns all platforms in priority order.
func (r *Registry) InOrder() []Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()

	platforms := make([]Platform, len(r.entries))
	for i, entry := range r.entries {
		platforms[i] = entry.platform
	}
	return platforms
}

// Names returns the platform names in priority order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.entries))
	for i, entry := range r.entries {
		names[i] = entry.platform.Name()
	}
	return names
}
