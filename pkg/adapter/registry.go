package adapter

import (
	"fmt"
	"sort"

	"github.com/arnavsurve/ideflow/pkg/types"
)

type Factory func(settings Settings, logger types.Logger) (SystemAdapter, error)

// factories stores each built-in adapter's constructor. Adapter packages call
// RegisterFactory from init() so NewRegistryFromFactories can build them by name.
var factories = map[string]Factory{}

func RegisterFactory(system string, factory Factory) {
	factories[system] = factory
}

// FactoryNames lists the systems with a registered factory.
func FactoryNames() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Registry maps a system name to the adapter that serves it. It is filled
// before a run starts and only read afterwards.
type Registry struct {
	adapters map[string]SystemAdapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]SystemAdapter)}
}

// Register adds an adapter under name. Names must be unique.
func (r *Registry) Register(name string, a SystemAdapter) error {
	if name == "" {
		return fmt.Errorf("adapter name must not be empty")
	}
	if a == nil {
		return fmt.Errorf("adapter %q is nil", name)
	}
	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("adapter %q is already registered", name)
	}
	r.adapters[name] = a
	return nil
}

func (r *Registry) Get(name string) (SystemAdapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewRegistryFromFactories instantiates every registered factory.
func NewRegistryFromFactories(settings Settings, logger types.Logger) (*Registry, error) {
	reg := NewRegistry()
	for _, name := range FactoryNames() {
		a, err := factories[name](settings, logger.With().Str("system", name).Logger())
		if err != nil {
			return nil, fmt.Errorf("initializing %s adapter: %w", name, err)
		}
		if err := reg.Register(name, a); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
