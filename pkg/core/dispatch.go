package core

import (
	"fmt"

	"github.com/arnavsurve/ideflow/pkg/adapter"
	"github.com/arnavsurve/ideflow/pkg/types"
)

// Target is the adapter and action a step dispatches to.
type Target struct {
	System  string
	Action  string
	Adapter adapter.SystemAdapter
}

// Dispatcher picks the adapter for a step.
type Dispatcher interface {
	Resolve(step types.Step) (Target, error)
}

// RegistryDispatcher resolves a step's system from, in order, the step's own
// system, the catalog entry for its operation, then DefaultSystem.
type RegistryDispatcher struct {
	Registry      *adapter.Registry
	Catalog       Catalog
	DefaultSystem string
}

func NewRegistryDispatcher(registry *adapter.Registry, catalog Catalog, defaultSystem string) *RegistryDispatcher {
	return &RegistryDispatcher{Registry: registry, Catalog: catalog, DefaultSystem: defaultSystem}
}

func (d *RegistryDispatcher) Resolve(step types.Step) (Target, error) {
	op, hasOp := d.operation(step)

	action := step.Operation
	if hasOp {
		action = op.ActionName()
	}
	if action == "" {
		return Target{}, fmt.Errorf("operation for %q is unresolved", step.Description)
	}

	system := step.System
	if system == "" && hasOp {
		system = op.System
	}
	if system == "" {
		system = d.DefaultSystem
	}
	if system == "" {
		return Target{}, fmt.Errorf("no system configured for operation %q: %w", action, ErrUnknownSystem)
	}

	a, ok := d.Registry.Get(system)
	if !ok {
		return Target{}, fmt.Errorf("system %q is not registered: %w", system, ErrUnknownSystem)
	}
	return Target{System: system, Action: action, Adapter: a}, nil
}

func (d *RegistryDispatcher) operation(step types.Step) (Operation, bool) {
	if d.Catalog == nil {
		return Operation{}, false
	}
	if step.Operation != "" {
		return d.Catalog.Lookup(step.Operation)
	}
	return d.Catalog.Resolve(step.Description)
}
