package format

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Registry manages available formats
type Registry struct {
	mu      sync.RWMutex
	formats map[string]Factory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		formats: make(map[string]Factory),
	}
}

// Register adds a format factory to the registry
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.formats[name]; exists {
		return fmt.Errorf("format %s already registered", name)
	}

	r.formats[name] = factory
	return nil
}

// Create instantiates a format by name
func (r *Registry) Create(name string) (Format, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.formats[name]
	if !exists {
		return nil, fmt.Errorf("unknown format %q (want one of: %s)", name, strings.Join(r.names(), ", "))
	}

	return factory(), nil
}

// List returns the registered format names in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.formats))
	for name := range r.formats {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

var defaultRegistry = NewRegistry()

// Register adds a format to the global registry
func Register(name string, factory Factory) error {
	return defaultRegistry.Register(name, factory)
}

// Create creates a format from the global registry
func Create(name string) (Format, error) {
	return defaultRegistry.Create(name)
}

// List returns every format name in the global registry
func List() []string {
	return defaultRegistry.List()
}
