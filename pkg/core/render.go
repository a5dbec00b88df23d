package core

import (
	"fmt"
	"strings"

	"github.com/arnavsurve/ideflow/pkg/types"
	"gopkg.in/yaml.v3"
)

// Render serializes a document back to the markdown form ParseDocument reads.
// Defaults are omitted, so a step without configuration renders as a bare item.
func Render(doc *WorkflowDocument) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("rendering nil document")
	}

	front := make(map[string]any, len(doc.Metadata)+3)
	for k, v := range doc.Metadata {
		front[k] = v
	}
	front["name"] = doc.Name
	if doc.Description != "" {
		front["description"] = doc.Description
	}
	if len(doc.Variables) > 0 {
		front["variables"] = doc.Variables
	}
	meta, err := yaml.Marshal(front)
	if err != nil {
		return "", fmt.Errorf("encoding metadata: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(meta)
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s\n\n", doc.Name)
	b.WriteString("## Steps\n\n")

	for i, step := range doc.Steps {
		fmt.Fprintf(&b, "%d. ", i+1)
		if step.Condition != types.ConditionNone && step.Condition.Valid() {
			fmt.Fprintf(&b, "[%s] ", step.Condition)
		}
		b.WriteString(step.Description)
		b.WriteString("\n")

		cfg := configFor(step)
		if cfg == nil {
			continue
		}
		block, err := yaml.Marshal(cfg)
		if err != nil {
			return "", fmt.Errorf("encoding configuration for step %d: %w", i, err)
		}
		b.WriteString("```yaml\n")
		b.Write(block)
		b.WriteString("```\n")
	}
	return b.String(), nil
}

// configFor returns the non-default configuration of step, or nil when the
// step carries nothing beyond its description and condition.
func configFor(step types.Step) *stepConfig {
	cfg := stepConfig{
		Operation:       step.Operation,
		System:          step.System,
		ContinueOnError: step.ContinueOnError,
		InputFrom:       step.InputFrom,
		OutputTo:        step.OutputTo,
		PostCheck:       step.PostCheck,
		Timeout:         step.Timeout,
	}
	if len(step.Parameters) > 0 {
		cfg.Parameters = step.Parameters
	}
	if step.RetryCount != 0 {
		rc := step.RetryCount
		cfg.RetryCount = &rc
	}
	if step.RetryInterval != types.DefaultRetryInterval {
		ri := step.RetryInterval
		cfg.RetryInterval = &ri
	}
	// An invalid condition cannot be written as a marker, so keep it in the block.
	if !step.Condition.Valid() {
		cfg.Condition = string(step.Condition)
	}

	if cfg.Operation == "" && cfg.System == "" && cfg.Parameters == nil &&
		cfg.RetryCount == nil && cfg.RetryInterval == nil && cfg.Condition == "" &&
		!cfg.ContinueOnError && cfg.InputFrom == "" && cfg.OutputTo == "" &&
		cfg.PostCheck == nil && cfg.Timeout == "" {
		return nil
	}
	return &cfg
}
