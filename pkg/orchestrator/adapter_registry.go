package orchestrator

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-buildergen/pkg/schema"
)

// AdapterRegistry stores record adapters by name.
type AdapterRegistry struct {
	mu       sync.RWMutex
	adapters map[string]schema.RecordAdapter
}

// NewAdapterRegistry creates an empty adapter registry.
func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{
		adapters: make(map[string]schema.RecordAdapter),
	}
}

// Register adds an adapter by its Name(). Duplicate names return an error.
func (r *AdapterRegistry) Register(adapter schema.RecordAdapter) error {
	if adapter == nil {
		return fmt.Errorf("orchestrator: adapter is required")
	}
	name := normalizeAdapterName(adapter.Name())
	if name == "" {
		return fmt.Errorf("orchestrator: adapter name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("orchestrator: adapter %q already registered", name)
	}
	r.adapters[name] = adapter
	return nil
}

// MustRegister panics on registration failure.
func (r *AdapterRegistry) MustRegister(adapter schema.RecordAdapter) {
	if err := r.Register(adapter); err != nil {
		panic(err)
	}
}

// Get retrieves an adapter by name.
func (r *AdapterRegistry) Get(name string) (schema.RecordAdapter, error) {
	key := normalizeAdapterName(name)
	if key == "" {
		return nil, fmt.Errorf("orchestrator: adapter name is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, ok := r.adapters[key]
	if !ok {
		return nil, fmt.Errorf("orchestrator: adapter %q not found", key)
	}
	return adapter, nil
}

// List returns the registered adapter names, sorted.
func (r *AdapterRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Detect returns every adapter that claims the payload, in name order.
func (r *AdapterRegistry) Detect(src schema.Source, raw []byte) []schema.RecordAdapter {
	if r == nil {
		return nil
	}
	var matches []schema.RecordAdapter
	for _, name := range r.List() {
		r.mu.RLock()
		adapter := r.adapters[name]
		r.mu.RUnlock()
		if adapter != nil && adapter.Detect(src, raw) {
			matches = append(matches, adapter)
		}
	}
	return matches
}

func normalizeAdapterName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
