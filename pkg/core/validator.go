package core

import (
	"errors"
	"time"

	"github.com/arnavsurve/ideflow/pkg/adapter"
	"github.com/arnavsurve/ideflow/pkg/types"
)

// ValidateDocument statically checks doc without dispatching anything. The
// catalog and dispatcher are optional; checks needing them are skipped when nil.
func ValidateDocument(doc *WorkflowDocument, catalog Catalog, dispatcher Dispatcher) error {
	verr := &ValidationError{}
	if doc == nil {
		verr.add(-1, "document is nil")
		return verr
	}
	if doc.Name == "" {
		verr.add(-1, "workflow is missing 'name'")
	}
	if len(doc.Steps) == 0 {
		verr.add(-1, "workflow has no steps")
	}

	for i, step := range doc.Steps {
		validateStructure(verr, i, step)

		if catalog != nil {
			validateAgainstCatalog(verr, i, step, catalog)
		}
		if dispatcher == nil {
			continue
		}

		target, err := dispatcher.Resolve(step)
		if err != nil {
			verr.add(i, "%v", err)
			if errors.Is(err, ErrUnknownSystem) && verr.Err == nil {
				verr.Err = ErrUnknownSystem
			}
			continue
		}
		validateAgainstAdapter(verr, i, step, target)
	}

	if len(verr.Issues) > 0 {
		return verr
	}
	return nil
}

func validateStructure(verr *ValidationError, i int, step types.Step) {
	if step.Description == "" {
		verr.add(i, "step is missing a description")
	}
	if step.RetryCount < 0 {
		verr.add(i, "retry_count must be >= 0, got %d", step.RetryCount)
	}
	if step.RetryInterval <= 0 {
		verr.add(i, "retry_interval must be > 0, got %v", step.RetryInterval)
	}
	if !step.Condition.Valid() {
		verr.add(i, "unsupported condition %q (expected if_success or if_failure)", step.Condition)
	}
	if step.PostCheck != nil && !knownPostCheck(step.PostCheck.Type) {
		verr.add(i, "unknown post_check type %q", step.PostCheck.Type)
	}
	if step.Timeout != "" {
		if d, err := time.ParseDuration(step.Timeout); err != nil || d <= 0 {
			verr.add(i, "invalid timeout %q", step.Timeout)
		}
	}
}

func validateAgainstCatalog(verr *ValidationError, i int, step types.Step, catalog Catalog) {
	var (
		op Operation
		ok bool
	)
	if step.Operation != "" {
		op, ok = catalog.Lookup(step.Operation)
		if !ok {
			verr.add(i, "unknown operation %q", step.Operation)
			return
		}
	} else if op, ok = catalog.Resolve(step.Description); !ok {
		verr.add(i, "no operation matches description %q", step.Description)
		return
	}

	for _, required := range op.RequiredParameters {
		if _, present := step.Parameters[required]; present {
			continue
		}
		if required == "input_data" && step.InputFrom != "" {
			continue
		}
		verr.add(i, "operation %q requires parameter %q", op.Name, required)
	}
}

func validateAgainstAdapter(verr *ValidationError, i int, step types.Step, target Target) {
	if checker, ok := target.Adapter.(adapter.ActionChecker); ok && !checker.Supports(target.Action) {
		verr.add(i, "system %q does not support action %q (known: %v)", target.System, target.Action, checker.Actions())
		return
	}

	v, ok := target.Adapter.(adapter.Validator)
	if !ok || HasPlaceholder(step.Parameters) {
		// Placeholder values are only known at run time.
		return
	}
	params := make(map[string]any, len(step.Parameters)+1)
	for k, val := range step.Parameters {
		params[k] = val
	}
	if step.InputFrom != "" {
		params["input_data"] = map[string]any{}
	}
	if err := v.Validate(target.Action, params); err != nil {
		verr.add(i, "%v", err)
	}
}
