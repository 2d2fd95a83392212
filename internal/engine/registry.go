package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type Factory func(ctx context.Context, opts Options) (Engine, error)

type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry knows the built-in engines.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("http", func(ctx context.Context, opts Options) (Engine, error) {
		_ = ctx
		return NewHTTPEngine(opts), nil
	})
	r.Register("fixture", func(ctx context.Context, opts Options) (Engine, error) {
		_ = ctx
		return NewFixtureEngine(opts.StoragePath), nil
	})
	return r
}

func (r *Registry) Register(name string, f Factory) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

func (r *Registry) Get(ctx context.Context, name string, opts Options) (Engine, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown pneuma engine: %s", name)
	}
	return f(ctx, opts)
}
