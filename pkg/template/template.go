// Package template holds reusable step sequences keyed by intent type.
package template

import (
	"fmt"
	"slices"
	"strings"

	"github.com/arnavsurve/ideflow/pkg/core"
	"github.com/arnavsurve/ideflow/pkg/types"
)

// TemplateStep is one step of a template. Parameters may carry
// {{intent.X}} and {{context.X}} placeholders.
type TemplateStep struct {
	Description     string                 `yaml:"description,omitempty"`
	System          string                 `yaml:"system"`
	Action          string                 `yaml:"action"`
	Parameters      map[string]any         `yaml:"parameters,omitempty"`
	Condition       string                 `yaml:"condition,omitempty"`
	InputFrom       string                 `yaml:"input_from,omitempty"`
	OutputTo        string                 `yaml:"output_to,omitempty"`
	ContinueOnError bool                   `yaml:"continue_on_error,omitempty"`
	RetryCount      int                    `yaml:"retry_count,omitempty"`
	RetryInterval   *float64               `yaml:"retry_interval,omitempty"`
	PostCheck       *types.PostCheckConfig `yaml:"post_check,omitempty"`
	Timeout         string                 `yaml:"timeout,omitempty"`
}

// Label is the step's description, or "system: action" when it has none.
func (s TemplateStep) Label() string {
	if s.Description != "" {
		return s.Description
	}
	return fmt.Sprintf("%s: %s", s.System, s.Action)
}

type Template struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	IntentTypes []string       `yaml:"intent_types"`
	Variables   map[string]any `yaml:"variables,omitempty"`
	Steps       []TemplateStep `yaml:"steps"`
}

// Matches reports whether the template declares intentType.
func (t *Template) Matches(intentType string) bool {
	return slices.Contains(t.IntentTypes, intentType)
}

// Validate checks the template's shape. System names are checked against the
// adapter registry by the orchestrator.
func (t *Template) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("template name is required")
	}
	if len(t.IntentTypes) == 0 {
		return fmt.Errorf("template %q must declare at least one intent type", t.Name)
	}
	if len(t.Steps) == 0 {
		return fmt.Errorf("template %q must have at least one step", t.Name)
	}
	for i, step := range t.Steps {
		if strings.TrimSpace(step.System) == "" {
			return fmt.Errorf("template %q step %d: system is required", t.Name, i)
		}
		if strings.TrimSpace(step.Action) == "" {
			return fmt.Errorf("template %q step %d: action is required", t.Name, i)
		}
		if _, err := types.ParseCondition(step.Condition); err != nil {
			return fmt.Errorf("template %q step %d: %w", t.Name, i, err)
		}
	}
	return nil
}

// Compile converts the template into a document the workflow engine can run.
// Placeholders are left in place and bound per step at run time.
func (t *Template) Compile() (*core.WorkflowDocument, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	doc := &core.WorkflowDocument{
		Name:        t.Name,
		Description: t.Description,
		Variables:   map[string]any{},
		Metadata:    map[string]any{"intent_types": slices.Clone(t.IntentTypes)},
		Steps:       make([]types.Step, 0, len(t.Steps)),
	}
	for k, v := range t.Variables {
		doc.Variables[k] = v
	}

	for _, ts := range t.Steps {
		step := types.NewStep(ts.Label())
		step.System = ts.System
		step.Operation = ts.Action
		for k, v := range ts.Parameters {
			step.Parameters[k] = v
		}
		step.Condition, _ = types.ParseCondition(ts.Condition)
		step.InputFrom = ts.InputFrom
		step.OutputTo = ts.OutputTo
		step.ContinueOnError = ts.ContinueOnError
		step.RetryCount = ts.RetryCount
		if ts.RetryInterval != nil {
			step.RetryInterval = *ts.RetryInterval
		}
		step.PostCheck = ts.PostCheck
		step.Timeout = ts.Timeout
		doc.Steps = append(doc.Steps, step)
	}
	return doc, nil
}
