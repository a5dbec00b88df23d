package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/arnavsurve/ideflow/pkg/core"
	"github.com/arnavsurve/ideflow/pkg/orchestrator"
	"github.com/arnavsurve/ideflow/pkg/types"
	"github.com/fatih/color"
)

var (
	okColor      = color.New(color.FgGreen)
	failColor    = color.New(color.FgRed)
	skipColor    = color.New(color.FgYellow)
	headingColor = color.New(color.Bold)
	dimColor     = color.New(color.Faint)
)

// PrintReport writes the per-step outcome of a run followed by a one-line verdict.
func PrintReport(w io.Writer, result *core.WorkflowResult, summary core.Summary) {
	headingColor.Fprintf(w, "\nWorkflow %q (run %s)\n", result.Name, result.RunID)

	for _, sr := range result.StepResults {
		target := ""
		if sr.System != "" {
			target = fmt.Sprintf(" %s/%s", sr.System, sr.Action)
		}
		switch sr.Outcome {
		case types.OutcomeSucceeded:
			okColor.Fprintf(w, "  ✔ [%d]%s %s", sr.Index, target, sr.Description)
		case types.OutcomeSkipped:
			skipColor.Fprintf(w, "  ↷ [%d]%s %s", sr.Index, target, sr.Description)
		default:
			failColor.Fprintf(w, "  ✖ [%d]%s %s", sr.Index, target, sr.Description)
		}
		if sr.RetryAttempts > 0 {
			dimColor.Fprintf(w, " (%d retries)", sr.RetryAttempts)
		}
		if sr.Outcome != types.OutcomeSkipped {
			dimColor.Fprintf(w, " %s", sr.Duration.Round(time.Millisecond))
		}
		fmt.Fprintln(w)
		if sr.Failed() && sr.ErrorMessage != "" {
			failColor.Fprintf(w, "      %s\n", sr.ErrorMessage)
		}
	}

	if pending := result.TotalSteps - result.CompletedSteps; pending > 0 {
		dimColor.Fprintf(w, "  %d step(s) not run\n", pending)
	}

	fmt.Fprintf(w, "\n%d succeeded, %d failed, %d skipped in %s\n",
		summary.Succeeded, summary.Failed, summary.Skipped, result.TotalDuration.Round(time.Millisecond))

	switch {
	case result.OverallSuccess:
		okColor.Fprintln(w, "Workflow completed successfully")
	case result.FailedStepIndex != nil:
		failColor.Fprintf(w, "Workflow failed at step %d: %s\n", *result.FailedStepIndex, result.ErrorMessage)
	default:
		failColor.Fprintf(w, "Workflow did not complete: %s\n", result.ErrorMessage)
	}
}

// PrintPlan lists what an intent would run.
func PrintPlan(w io.Writer, plan *orchestrator.Plan) {
	headingColor.Fprintf(w, "Intent %q → template %q\n", plan.Intent, plan.Template)
	if plan.Description != "" {
		dimColor.Fprintf(w, "  %s\n", plan.Description)
	}
	for _, s := range plan.Steps {
		fmt.Fprintf(w, "  %d. %s/%s  %s", s.Index+1, s.System, s.Action, s.Description)
		if s.Condition != "" {
			skipColor.Fprintf(w, " [%s]", s.Condition)
		}
		if s.InputFrom != "" {
			dimColor.Fprintf(w, " <- %s", s.InputFrom)
		}
		if s.OutputTo != "" {
			dimColor.Fprintf(w, " -> %s", s.OutputTo)
		}
		fmt.Fprintln(w)
	}
}

// PrintValidation lists every issue when err is a ValidationError.
func PrintValidation(w io.Writer, err error) {
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		failColor.Fprintf(w, "✖ %v\n", err)
		return
	}
	failColor.Fprintf(w, "✖ %d validation issue(s)\n", len(verr.Issues))
	for _, issue := range verr.Issues {
		fmt.Fprintf(w, "  - %s\n", issue)
	}
}
