package types

import (
	"fmt"
	"time"
)

// Condition gates a step on the outcome of the step before it.
type Condition string

const (
	ConditionNone      Condition = ""
	ConditionIfSuccess Condition = "if_success"
	ConditionIfFailure Condition = "if_failure"
)

// Valid reports whether c is one of the supported conditions.
func (c Condition) Valid() bool {
	switch c {
	case ConditionNone, ConditionIfSuccess, ConditionIfFailure:
		return true
	default:
		return false
	}
}

// ParseCondition converts the textual form used in documents and templates.
// "none" and the empty string both mean unconditional.
func ParseCondition(s string) (Condition, error) {
	switch s {
	case "", "none":
		return ConditionNone, nil
	case string(ConditionIfSuccess):
		return ConditionIfSuccess, nil
	case string(ConditionIfFailure):
		return ConditionIfFailure, nil
	default:
		return Condition(s), fmt.Errorf("unsupported condition %q (expected if_success or if_failure)", s)
	}
}

// Outcome is the three-way result of a step.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// PostCheckConfig names a predicate evaluated against an adapter result.
type PostCheckConfig struct {
	Type       string         `yaml:"type" json:"type"`
	Parameters map[string]any `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// Step represents a single declared action within a workflow.
type Step struct {
	Description     string
	Operation       string
	System          string
	Parameters      map[string]any
	RetryCount      int
	RetryInterval   float64
	Condition       Condition
	ContinueOnError bool
	InputFrom       string
	OutputTo        string
	PostCheck       *PostCheckConfig
	Timeout         string
}

const DefaultRetryInterval = 1.0

// NewStep returns a step carrying the documented defaults.
func NewStep(description string) Step {
	return Step{
		Description:   description,
		Parameters:    map[string]any{},
		RetryInterval: DefaultRetryInterval,
	}
}

// RetryDelay converts RetryInterval (seconds) into a duration.
func (s Step) RetryDelay() time.Duration {
	return time.Duration(s.RetryInterval * float64(time.Second))
}

// StepResult is the record produced for every processed step.
type StepResult struct {
	Index         int           `json:"index"`
	Description   string        `json:"description"`
	System        string        `json:"system,omitempty"`
	Action        string        `json:"action,omitempty"`
	Outcome       Outcome       `json:"outcome"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	RetryAttempts int           `json:"retry_attempts"`
	Duration      time.Duration `json:"duration"`
	Output        any           `json:"output,omitempty"`
}

// Succeeded reports whether the step ran and succeeded.
func (r StepResult) Succeeded() bool { return r.Outcome == OutcomeSucceeded }

// Failed reports whether the step ran and failed.
func (r StepResult) Failed() bool { return r.Outcome == OutcomeFailed }

// ActionResult is what a system adapter reports for one dispatched action.
type ActionResult struct {
	Success  bool          `json:"success"`
	Output   any           `json:"output,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Failure builds a failed ActionResult from a formatted message.
func Failure(format string, args ...any) ActionResult {
	return ActionResult{Success: false, Error: fmt.Sprintf(format, args...)}
}
