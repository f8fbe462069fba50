package provider

import "strings"

// Registry holds adapter factories keyed by lowercase provider name.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry(factories ...Factory) *Registry {
	registry := &Registry{factories: map[string]Factory{}}
	for _, factory := range factories {
		if factory == nil {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(factory.Provider()))
		if name == "" {
			continue
		}
		registry.factories[name] = factory
	}
	return registry
}

func (r *Registry) ProviderExists(name string) bool {
	if r == nil {
		return false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	_, ok := r.factories[name]
	return ok
}

func (r *Registry) NewAdapter(name string, cfg Config) (Provider, error) {
	if r == nil {
		return nil, ErrProviderNotFound
	}
	name = strings.ToLower(strings.TrimSpace(name))
	factory, ok := r.factories[name]
	if !ok {
		return nil, ErrProviderNotFound
	}
	return factory.NewAdapter(cfg)
}
