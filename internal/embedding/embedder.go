// Package embedding defines the capability that maps text to fixed-dimension
// vectors and a registry for selecting an implementation by name.
package embedding

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ragcore/internal/domain"
)

// Provider converts free text into numeric vectors of a constant dimension.
type Provider interface {
	Name() string
	Model() string
	Dimensions() int
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
	EmbedBatch(ctx context.Context, texts []string) ([]domain.EmbeddingResult, error)
}

// Config is the provider-independent part of a provider configuration.
// Options carries implementation specific settings.
type Config struct {
	Dimensions int
	Model      string
	Options    any
}

// Factory creates a Provider from configuration.
type Factory func(cfg Config) (Provider, error)

// Registry maps provider names to factories. There is no default instance;
// callers construct and pass their own.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Create builds the provider registered under name.
func (r *Registry) Create(name string, cfg Config) (Provider, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, domain.ConfigErrorf("unknown embedder: %s (available: %v)", name, r.Names())
	}
	p, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s embedder: %w", name, err)
	}
	return p, nil
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
