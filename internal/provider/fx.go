package provider

import (
	"github.com/smallbiznis/qzpay/internal/config"
	"go.uber.org/fx"
)

// Module wires the adapter registry and the default adapter. Concrete
// processor factories register here; out of the box only the fake adapter
// ships with the engine.
var Module = fx.Module("provider",
	fx.Provide(provideRegistry),
	fx.Provide(provideDefault),
)

// factoryParams collects every Factory contributed to the graph.
type factoryParams struct {
	fx.In

	Factories []Factory `group:"provider_factories"`
}

func provideRegistry(p factoryParams) *Registry {
	return NewRegistry(p.Factories...)
}

func provideDefault(registry *Registry, cfg config.Config) (Provider, error) {
	return registry.NewAdapter("fake", Config{Livemode: cfg.Livemode, Config: map[string]any{}})
}
