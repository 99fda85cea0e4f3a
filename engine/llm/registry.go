package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// Registry memoizes model handles by Config.Key. It is created once per
// process and injected wherever a Gateway is built.
type Registry struct {
	provider ProviderConfig
	factory  Factory

	mu      sync.Mutex
	handles map[string]llms.Model
}

// NewRegistry creates a registry that builds handles with factory.
// A nil factory defaults to NewModel.
func NewRegistry(provider ProviderConfig, factory Factory) *Registry {
	if factory == nil {
		factory = NewModel
	}
	return &Registry{
		provider: provider,
		factory:  factory,
		handles:  make(map[string]llms.Model),
	}
}

// Provider returns the backend configuration shared by all handles.
func (r *Registry) Provider() ProviderConfig {
	return r.provider
}

// Get returns the handle for cfg, creating it on first use. Construction runs
// outside the lock: two callers racing on a new key may both build a handle,
// and the last one stored wins.
func (r *Registry) Get(ctx context.Context, cfg Config) (llms.Model, error) {
	key := cfg.Key()
	r.mu.Lock()
	model, ok := r.handles[key]
	r.mu.Unlock()
	if ok {
		return model, nil
	}
	model, err := r.factory(ctx, r.provider, cfg)
	if err != nil {
		return nil, fmt.Errorf("llm: create model %s: %w", cfg.Model, err)
	}
	if model == nil {
		return nil, errors.New("llm: factory returned nil model")
	}
	r.mu.Lock()
	r.handles[key] = model
	r.mu.Unlock()
	return model, nil
}

// Len reports the number of cached handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}
