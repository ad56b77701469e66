package migration

import "sync"

// Registry holds Go migrations grouped by namespace.
type Registry struct {
	mu      sync.RWMutex
	entries map[string][]source
}

var defaultRegistry = NewRegistry()

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: map[string][]source{}}
}

// Register adds a migration to the package-level registry.
func Register(namespace, name string, m Migration) {
	defaultRegistry.Register(namespace, name, m)
}

// Register adds a migration under namespace. name should be timestamp
// prefixed, e.g. "M260101000000_create_users".
func (r *Registry) Register(namespace, name string, m Migration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[namespace] = append(r.entries[namespace], source{name: name, source: namespace, m: m})
}

// Namespaces returns the number of migrations registered per namespace.
func (r *Registry) Namespaces() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]int, len(r.entries))
	for ns, list := range r.entries {
		out[ns] = len(list)
	}
	return out
}

func (r *Registry) namespace(ns string) []source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]source(nil), r.entries[ns]...)
}
