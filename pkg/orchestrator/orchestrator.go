// Package orchestrator binds a recognized intent to a template and drives the
// workflow engine across the registered system adapters.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/arnavsurve/ideflow/pkg/adapter"
	"github.com/arnavsurve/ideflow/pkg/core"
	"github.com/arnavsurve/ideflow/pkg/intent"
	"github.com/arnavsurve/ideflow/pkg/template"
	"github.com/arnavsurve/ideflow/pkg/types"
)

const DefaultConfidenceThreshold = 0.85

// TemplateSource finds the template for an intent type.
type TemplateSource interface {
	Match(intentType string) (*template.Template, bool)
}

// Confirmer asks the user whether a planned run should go ahead.
type Confirmer interface {
	Confirm(ctx context.Context, in intent.Intent, plan *Plan) (bool, error)
}

type ConfirmFunc func(ctx context.Context, in intent.Intent, plan *Plan) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, in intent.Intent, plan *Plan) (bool, error) {
	return f(ctx, in, plan)
}

type Orchestrator struct {
	templates TemplateSource
	registry  *adapter.Registry
	engine    *core.WorkflowEngine
	logger    types.Logger
	threshold float64
	confirmer Confirmer
}

type Option func(*Orchestrator)

func WithConfidenceThreshold(threshold float64) Option {
	return func(o *Orchestrator) {
		o.threshold = threshold
	}
}

func WithConfirmer(c Confirmer) Option {
	return func(o *Orchestrator) {
		o.confirmer = c
	}
}

func New(templates TemplateSource, registry *adapter.Registry, engine *core.WorkflowEngine, logger types.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		templates: templates,
		registry:  registry,
		engine:    engine,
		logger:    logger,
		threshold: DefaultConfidenceThreshold,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Orchestrate runs the template matching in.Type. Every error returned is
// raised before any adapter is invoked; step failures are in the result.
// A nil execCtx gets a fresh context.
func (o *Orchestrator) Orchestrate(ctx context.Context, in intent.Intent, execCtx *core.ExecutionContext) (*core.WorkflowResult, error) {
	logger := o.logger.With().Str("intent", in.Type).Logger()

	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Confidence < o.threshold {
		return nil, &core.OrchestrationError{
			Code:       core.ErrLowConfidence,
			IntentType: in.Type,
			Message:    fmt.Sprintf("confidence %.2f is below %.2f", in.Confidence, o.threshold),
		}
	}

	tmpl, err := o.resolve(in)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Str("template", tmpl.Name).
		Int("steps", len(tmpl.Steps)).
		Interface("parameters", in.Parameters).
		Msg("Matched template for intent")

	if in.NeedsConfirmation {
		if err := o.confirm(ctx, in, tmpl); err != nil {
			return nil, err
		}
	}

	doc, err := tmpl.Compile()
	if err != nil {
		return nil, fmt.Errorf("compiling template %q: %w", tmpl.Name, err)
	}

	dispatcher := core.NewRegistryDispatcher(o.registry, nil, "")
	result, err := o.engine.ExecuteWorkflow(ctx, doc, dispatcher, execCtx, core.Bindings{Intent: in.Parameters})
	if err != nil {
		return nil, fmt.Errorf("running template %q: %w", tmpl.Name, err)
	}
	return result, nil
}

// resolve matches a template and checks that every system it names is registered.
func (o *Orchestrator) resolve(in intent.Intent) (*template.Template, error) {
	tmpl, ok := o.templates.Match(in.Type)
	if !ok {
		return nil, &core.OrchestrationError{Code: core.ErrNoTemplateMatch, IntentType: in.Type}
	}
	for i, step := range tmpl.Steps {
		if _, ok := o.registry.Get(step.System); !ok {
			return nil, &core.OrchestrationError{
				Code:       core.ErrUnknownSystem,
				IntentType: in.Type,
				System:     step.System,
				Message:    fmt.Sprintf("template %q step %d; registered systems: %v", tmpl.Name, i, o.registry.Names()),
			}
		}
	}
	return tmpl, nil
}

func (o *Orchestrator) confirm(ctx context.Context, in intent.Intent, tmpl *template.Template) error {
	if o.confirmer == nil {
		return &core.OrchestrationError{Code: core.ErrNotConfirmed, IntentType: in.Type, Message: "intent requires confirmation and no confirmer is configured"}
	}
	ok, err := o.confirmer.Confirm(ctx, in, buildPlan(in, tmpl))
	if err != nil {
		return fmt.Errorf("confirming intent %q: %w", in.Type, err)
	}
	if !ok {
		return &core.OrchestrationError{Code: core.ErrNotConfirmed, IntentType: in.Type}
	}
	return nil
}
