package components

import (
	"sort"
	"sync"
)

// Registry is a thread-safe set of component definitions keyed by tag name.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]Definition
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[string]Definition)}
}

// NewBuiltInRegistry returns a registry holding BuiltInDefinitions.
func NewBuiltInRegistry() *Registry {
	registry := NewRegistry()
	for _, def := range BuiltInDefinitions() {
		// Built-ins are covered by tests; a failure here is a programming error.
		if err := registry.Register(def); err != nil {
			panic(err)
		}
	}
	return registry
}

// Register stores def if it validates and its name is not taken.
func (r *Registry) Register(def Definition) error {
	if err := ValidateDefinition(def); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.definitions[def.Name]; exists {
		return ErrDuplicateDefinition
	}
	r.definitions[def.Name] = def
	return nil
}

// Get returns the definition registered under name.
func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.definitions[name]
	return def, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// List returns all definitions in name order.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Definition, 0, len(r.definitions))
	for _, def := range r.definitions {
		result = append(result, def)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}
