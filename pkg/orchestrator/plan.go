package orchestrator

import (
	"github.com/arnavsurve/ideflow/pkg/intent"
	"github.com/arnavsurve/ideflow/pkg/template"
)

// Plan describes what Orchestrate would run for an intent.
type Plan struct {
	Intent      string        `json:"intent"`
	Template    string        `json:"template"`
	Description string        `json:"description,omitempty"`
	Steps       []PlannedStep `json:"steps"`
}

type PlannedStep struct {
	Index       int    `json:"index"`
	System      string `json:"system"`
	Action      string `json:"action"`
	Description string `json:"description"`
	Condition   string `json:"condition,omitempty"`
	InputFrom   string `json:"input_from,omitempty"`
	OutputTo    string `json:"output_to,omitempty"`
}

// Plan resolves the template for in without dispatching anything.
func (o *Orchestrator) Plan(in intent.Intent) (*Plan, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	tmpl, err := o.resolve(in)
	if err != nil {
		return nil, err
	}
	return buildPlan(in, tmpl), nil
}

func buildPlan(in intent.Intent, tmpl *template.Template) *Plan {
	plan := &Plan{
		Intent:      in.Type,
		Template:    tmpl.Name,
		Description: tmpl.Description,
		Steps:       make([]PlannedStep, 0, len(tmpl.Steps)),
	}
	for i, s := range tmpl.Steps {
		plan.Steps = append(plan.Steps, PlannedStep{
			Index:       i,
			System:      s.System,
			Action:      s.Action,
			Description: s.Label(),
			Condition:   s.Condition,
			InputFrom:   s.InputFrom,
			OutputTo:    s.OutputTo,
		})
	}
	return plan
}
