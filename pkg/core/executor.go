package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arnavsurve/ideflow/pkg/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StepExecutor runs one step: condition check, retry-wrapped dispatch and
// post-check.
type StepExecutor struct {
	dispatcher Dispatcher
	logger     types.Logger
	tracer     trace.Tracer
}

func NewStepExecutor(dispatcher Dispatcher, logger types.Logger, tracer trace.Tracer) *StepExecutor {
	return &StepExecutor{dispatcher: dispatcher, logger: logger, tracer: tracer}
}

// ExecuteStep runs step and returns its result. previous is the outcome of the
// step before it in the same run, empty for the first step. Successful output
// is written to execCtx under step.OutputTo and "step_<index>_output".
func (x *StepExecutor) ExecuteStep(
	ctx context.Context,
	index int,
	step types.Step,
	previous types.Outcome,
	execCtx *ExecutionContext,
	binder *Binder,
) types.StepResult {
	result := types.StepResult{Index: index, Description: step.Description}

	if EvaluateCondition(step.Condition, previous) == DecisionSkip {
		result.Outcome = types.OutcomeSkipped
		x.logger.Info().
			Int("step_index", index).
			Str("condition", string(step.Condition)).
			Str("previous", string(previous)).
			Msgf("Skipping step %q", step.Description)
		return result
	}

	target, err := x.dispatcher.Resolve(step)
	if err != nil {
		result.Outcome = types.OutcomeFailed
		result.ErrorMessage = err.Error()
		return result
	}
	result.System = target.System
	result.Action = target.Action

	logger := x.logger.With().
		Int("step_index", index).
		Str("system", target.System).
		Str("action", target.Action).
		Logger()

	ctx, span := x.tracer.Start(ctx, "ideflow.step",
		trace.WithAttributes(
			attribute.Int("ideflow.step.index", index),
			attribute.String("ideflow.step.system", target.System),
			attribute.String("ideflow.step.action", target.Action),
			attribute.Int("ideflow.step.retry_count", step.RetryCount),
		))
	defer span.End()

	var timeout time.Duration
	if step.Timeout != "" {
		if timeout, err = time.ParseDuration(step.Timeout); err != nil {
			logger.Warn().Err(err).Str("timeout", step.Timeout).Msg("Failed to parse timeout duration, running without one")
			timeout = 0
		}
	}

	logger.Info().Msgf("Running step %q", step.Description)
	start := time.Now()

	var lastOutput any
	attempts, runErr := Retry(ctx, step.RetryCount, step.RetryDelay(), func(n int) error {
		if n > 0 {
			logger.Warn().Int("attempt", n+1).Msg("Retrying step")
		}
		output, err := x.attempt(ctx, step, target, timeout, execCtx, binder)
		lastOutput = output
		if err != nil {
			logger.Warn().Err(err).Int("attempt", n+1).Msg("Step attempt failed")
		}
		return err
	})

	result.Duration = time.Since(start)
	result.RetryAttempts = attempts - 1
	if result.RetryAttempts < 0 {
		result.RetryAttempts = 0
	}
	result.Output = lastOutput
	span.SetAttributes(attribute.Int("ideflow.step.attempts", attempts))

	if runErr != nil {
		result.Outcome = types.OutcomeFailed
		result.ErrorMessage = runErr.Error()
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
		logger.Error().Err(runErr).Int("attempts", attempts).Dur("duration", result.Duration).Msg("Step failed")
		return result
	}

	result.Outcome = types.OutcomeSucceeded
	span.SetStatus(codes.Ok, "")
	if lastOutput != nil {
		execCtx.Set(fmt.Sprintf("step_%d_output", index), lastOutput)
		if step.OutputTo != "" {
			execCtx.Set(step.OutputTo, lastOutput)
			logger.Debug().Str("output_to", step.OutputTo).Msg("Stored step output in context")
		}
	}
	logger.Info().Int("retry_attempts", result.RetryAttempts).Dur("duration", result.Duration).Msg("Step succeeded")
	return result
}

// attempt binds parameters, dispatches once and applies the post-check.
func (x *StepExecutor) attempt(
	ctx context.Context,
	step types.Step,
	target Target,
	timeout time.Duration,
	execCtx *ExecutionContext,
	binder *Binder,
) (any, error) {
	params, err := binder.BindParameters(step.Parameters)
	if err != nil {
		return nil, fmt.Errorf("binding parameters: %w", err)
	}
	if step.InputFrom != "" {
		input, ok := execCtx.Get(step.InputFrom)
		if !ok {
			return nil, &BindingError{Placeholder: "input_from:" + step.InputFrom, Reason: "no such key in execution context"}
		}
		params["input_data"] = input
	}

	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res := target.Adapter.Execute(callCtx, target.Action, params)
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = "adapter reported failure"
		}
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			msg = fmt.Sprintf("%s (timed out after %s)", msg, timeout)
		}
		return res.Output, errors.New(msg)
	}

	if err := RunPostCheck(step.PostCheck, res); err != nil {
		return res.Output, err
	}
	return res.Output, nil
}
