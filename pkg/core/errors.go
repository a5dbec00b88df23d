package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoTemplateMatch = errors.New("no template matches intent")
	ErrUnknownSystem   = errors.New("unknown system")
	ErrLowConfidence   = errors.New("intent confidence below threshold")
	ErrNotConfirmed    = errors.New("intent not confirmed")
	ErrContextInUse    = errors.New("execution context is owned by another run")
	ErrContextUsed     = errors.New("execution context already belongs to a finished run")
)

// ParseError reports a malformed document. Nothing has run when it is returned.
type ParseError struct {
	Section string
	Line    int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse error in ")
	b.WriteString(e.Section)
	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationIssue is one problem found by static validation. StepIndex is -1
// for document-level issues.
type ValidationIssue struct {
	StepIndex int
	Message   string
}

func (i ValidationIssue) String() string {
	if i.StepIndex < 0 {
		return i.Message
	}
	return fmt.Sprintf("step %d: %s", i.StepIndex, i.Message)
}

// ValidationError collects every issue found in a well-formed but invalid document.
type ValidationError struct {
	Issues []ValidationIssue
	Err    error
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return fmt.Sprintf("validation failed with %d issue(s): %s", len(e.Issues), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) add(step int, format string, args ...any) {
	e.Issues = append(e.Issues, ValidationIssue{StepIndex: step, Message: fmt.Sprintf(format, args...)})
}

// BindingError is raised when a placeholder cannot be resolved.
type BindingError struct {
	Placeholder string
	Reason      string
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("unresolved placeholder %q: %s", e.Placeholder, e.Reason)
}

// StepExecutionError describes a step that failed after exhausting its attempts.
type StepExecutionError struct {
	StepIndex   int
	Description string
	Attempts    int
	Message     string
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step %d (%s) failed after %d attempt(s): %s", e.StepIndex, e.Description, e.Attempts, e.Message)
}

// OrchestrationError is fatal and always returned before any step is dispatched.
type OrchestrationError struct {
	Code       error
	IntentType string
	System     string
	Message    string
}

func (e *OrchestrationError) Error() string {
	msg := e.Code.Error()
	if e.IntentType != "" {
		msg += fmt.Sprintf(" (intent %q)", e.IntentType)
	}
	if e.System != "" {
		msg += fmt.Sprintf(" (system %q)", e.System)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *OrchestrationError) Unwrap() error { return e.Code }
