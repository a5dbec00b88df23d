package core

import (
	"fmt"
	"time"

	"github.com/arnavsurve/ideflow/pkg/types"
)

// WorkflowDocument is a parsed step document. Step order is execution order.
type WorkflowDocument struct {
	Name        string
	Description string
	Variables   map[string]any
	// Metadata keeps front matter keys other than name, description and variables.
	Metadata map[string]any
	Steps    []types.Step

	// SourcePath is the file the document was loaded from, if any.
	SourcePath string
}

// WorkflowResult aggregates the results of one run.
type WorkflowResult struct {
	RunID           string             `json:"run_id"`
	Name            string             `json:"name"`
	OverallSuccess  bool               `json:"overall_success"`
	CompletedSteps  int                `json:"completed_steps"`
	TotalSteps      int                `json:"total_steps"`
	FailedStepIndex *int               `json:"failed_step_index,omitempty"`
	ErrorMessage    string             `json:"error_message,omitempty"`
	Cancelled       bool               `json:"cancelled,omitempty"`
	StepResults     []types.StepResult `json:"step_results"`
	TotalDuration   time.Duration      `json:"total_duration"`
}

// FailedSteps returns the results whose outcome is Failed.
func (r *WorkflowResult) FailedSteps() []types.StepResult {
	var failed []types.StepResult
	for _, sr := range r.StepResults {
		if sr.Failed() {
			failed = append(failed, sr)
		}
	}
	return failed
}

// Err converts an unsuccessful result into an error naming the first failing step.
func (r *WorkflowResult) Err() error {
	if r == nil || r.OverallSuccess {
		return nil
	}
	if r.FailedStepIndex != nil {
		for _, sr := range r.StepResults {
			if sr.Index == *r.FailedStepIndex {
				return &StepExecutionError{
					StepIndex:   sr.Index,
					Description: sr.Description,
					Attempts:    sr.RetryAttempts + 1,
					Message:     sr.ErrorMessage,
				}
			}
		}
	}
	if r.ErrorMessage != "" {
		return fmt.Errorf("workflow %q: %s", r.Name, r.ErrorMessage)
	}
	return fmt.Errorf("workflow %q did not succeed", r.Name)
}
