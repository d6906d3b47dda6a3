package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/JMJuarez/modulo-pln-vf/pkg/provider/embeddings"
)

// ErrProviderNotRegistered reports a config referencing a provider type no
// factory was registered for.
var ErrProviderNotRegistered = errors.New("config: provider type not registered")

// EmbeddingsFactory builds an embeddings provider from its config entry.
type EmbeddingsFactory func(entry ProviderEntry) (embeddings.Provider, error)

// Registry maps provider type names to factories. The main binary registers
// the built-in providers at startup; tests register fakes.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]EmbeddingsFactory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]EmbeddingsFactory)}
}

// RegisterEmbeddings registers a factory under the given type name,
// replacing any previous registration.
func (r *Registry) RegisterEmbeddings(typeName string, factory EmbeddingsFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[typeName] = factory
}

// Embeddings builds the provider described by entry.
func (r *Registry) Embeddings(entry ProviderEntry) (embeddings.Provider, error) {
	r.mu.RLock()
	factory, ok := r.factories[entry.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotRegistered, entry.Type)
	}
	return factory(entry)
}
