package core

import (
	"context"
	"fmt"
	"time"

	"github.com/arnavsurve/ideflow/pkg/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/arnavsurve/ideflow/pkg/core"

type WorkflowEngine struct {
	Logger types.Logger
	tracer trace.Tracer
}

type Option func(*WorkflowEngine)

// WithTracer sets the tracer used for run and step spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *WorkflowEngine) {
		e.tracer = tracer
	}
}

func NewWorkflowEngine(logger types.Logger, opts ...Option) *WorkflowEngine {
	e := &WorkflowEngine{
		Logger: logger,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecuteWorkflow runs doc's steps in order. The returned error is reserved
// for problems found before any step runs (validation, unknown systems, a
// context owned by another run or left over from a finished one); step
// failures are reported in the result. A nil execCtx gets a fresh context.
func (e *WorkflowEngine) ExecuteWorkflow(
	ctx context.Context,
	doc *WorkflowDocument,
	dispatcher Dispatcher,
	execCtx *ExecutionContext,
	bindings Bindings,
) (*WorkflowResult, error) {
	if err := ValidateDocument(doc, nil, dispatcher); err != nil {
		return nil, err
	}

	if execCtx == nil {
		execCtx = NewExecutionContext()
	}
	if err := execCtx.acquire(); err != nil {
		return nil, err
	}
	defer execCtx.release()
	if execCtx.Status() != StatusPending {
		return nil, ErrContextUsed
	}

	vars := make(map[string]any, len(doc.Variables)+len(bindings.Vars))
	for k, v := range doc.Variables {
		vars[k] = v
	}
	for k, v := range bindings.Vars {
		vars[k] = v
	}
	binder := NewBinder(Bindings{Intent: bindings.Intent, Vars: vars}, execCtx)

	logger := e.Logger.With().Str("run_id", execCtx.RunID).Str("workflow", doc.Name).Logger()
	executor := NewStepExecutor(dispatcher, logger, e.tracer)

	ctx, span := e.tracer.Start(ctx, "ideflow.workflow",
		trace.WithAttributes(
			attribute.String("ideflow.workflow.name", doc.Name),
			attribute.String("ideflow.run_id", execCtx.RunID),
			attribute.Int("ideflow.workflow.total_steps", len(doc.Steps)),
		))
	defer span.End()

	result := &WorkflowResult{
		RunID:      execCtx.RunID,
		Name:       doc.Name,
		TotalSteps: len(doc.Steps),
	}

	start := time.Now()
	execCtx.start(start)
	logger.Info().Int("total_steps", len(doc.Steps)).Msgf("Starting workflow %q", doc.Name)

	var previous types.Outcome
	failed := false
	for i, step := range doc.Steps {
		if ctx.Err() != nil {
			result.Cancelled = true
			logger.Warn().Int("completed_steps", result.CompletedSteps).Msg("Workflow cancelled")
			break
		}

		sr := executor.ExecuteStep(ctx, i, step, previous, execCtx, binder)
		execCtx.Append(sr)
		result.StepResults = append(result.StepResults, sr)
		result.CompletedSteps++
		// conditions look at the last step that actually ran
		if sr.Outcome != types.OutcomeSkipped {
			previous = sr.Outcome
		}

		if !sr.Failed() {
			continue
		}
		if !failed {
			failed = true
			idx := i
			result.FailedStepIndex = &idx
			result.ErrorMessage = fmt.Sprintf("step %d (%s) failed: %s", i, step.Description, sr.ErrorMessage)
		}
		if !step.ContinueOnError {
			logger.Error().Int("step_index", i).Msg("Halting workflow: step failed and continue_on_error is false")
			break
		}
		logger.Warn().Int("step_index", i).Msg("Step failed; continuing because continue_on_error is set")
	}

	if result.Cancelled && result.ErrorMessage == "" {
		result.ErrorMessage = fmt.Sprintf("cancelled after %d of %d steps", result.CompletedSteps, result.TotalSteps)
	}
	result.OverallSuccess = !failed && !result.Cancelled
	result.TotalDuration = time.Since(start)

	status := StatusSucceeded
	if !result.OverallSuccess {
		status = StatusFailed
		span.SetStatus(codes.Error, result.ErrorMessage)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	execCtx.finish(status, time.Now())
	span.SetAttributes(
		attribute.Int("ideflow.workflow.completed_steps", result.CompletedSteps),
		attribute.Bool("ideflow.workflow.success", result.OverallSuccess),
	)

	logger.Info().
		Bool("success", result.OverallSuccess).
		Int("completed_steps", result.CompletedSteps).
		Dur("duration", result.TotalDuration).
		Msgf("Workflow %q finished", doc.Name)
	return result, nil
}
