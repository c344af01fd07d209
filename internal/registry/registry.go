// Package registry maps component names to their constructors so run files
// can reference selectors and analysers by name.
package registry

import (
	"sort"
	"sync"

	"triage/internal/analyser"
	"triage/internal/faults"
	"triage/internal/selector"
)

// ProcessorFactory builds a fresh analyser processor per run.
type ProcessorFactory func() analyser.Processor

// RetrieverFactory builds a fresh selector retriever per run.
type RetrieverFactory func() selector.Retriever

// Registry holds the named component constructors.
type Registry struct {
	mu         sync.RWMutex
	processors map[string]ProcessorFactory
	retrievers map[string]RetrieverFactory
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		processors: map[string]ProcessorFactory{},
		retrievers: map[string]RetrieverFactory{},
	}
}

// RegisterProcessor makes an analyser processor available under name.
// Registering a duplicate name is a configuration error.
func (r *Registry) RegisterProcessor(name string, factory ProcessorFactory) error {
	if name == "" || factory == nil {
		return faults.Configf("processor registration requires a name and a factory")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.processors[name]; exists {
		return faults.Configf("an analyser named %q is already registered", name)
	}
	r.processors[name] = factory
	return nil
}

// RegisterRetriever makes a selector retriever available under name.
func (r *Registry) RegisterRetriever(name string, factory RetrieverFactory) error {
	if name == "" || factory == nil {
		return faults.Configf("retriever registration requires a name and a factory")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.retrievers[name]; exists {
		return faults.Configf("a selector named %q is already registered", name)
	}
	r.retrievers[name] = factory
	return nil
}

// Processor returns a new processor instance for name.
func (r *Registry) Processor(name string) (analyser.Processor, error) {
	r.mu.RLock()
	factory, ok := r.processors[name]
	r.mu.RUnlock()
	if !ok {
		return nil, faults.Configf("unknown analyser %q (available: %s)", name, joinNames(r.ProcessorNames()))
	}
	return factory(), nil
}

// Retriever returns a new retriever instance for name.
func (r *Registry) Retriever(name string) (selector.Retriever, error) {
	r.mu.RLock()
	factory, ok := r.retrievers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, faults.Configf("unknown selector %q (available: %s)", name, joinNames(r.RetrieverNames()))
	}
	return factory(), nil
}

// ProcessorNames lists the registered analyser names, sorted.
func (r *Registry) ProcessorNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.processors)
}

// RetrieverNames lists the registered selector names, sorted.
func (r *Registry) RetrieverNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.retrievers)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func joinNames(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	out := names[0]
	for _, name := range names[1:] {
		out += ", " + name
	}
	return out
}
