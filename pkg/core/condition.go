package core

import "github.com/arnavsurve/ideflow/pkg/types"

type Decision int

const (
	DecisionRun Decision = iota
	DecisionSkip
)

func (d Decision) String() string {
	if d == DecisionSkip {
		return "skip"
	}
	return "run"
}

// EvaluateCondition decides whether a step runs given the outcome of the step
// that last ran. An empty previous outcome (first step) counts as Succeeded.
// The runner never passes Skipped; if it is passed, both conditionals skip.
func EvaluateCondition(cond types.Condition, previous types.Outcome) Decision {
	if previous == "" {
		previous = types.OutcomeSucceeded
	}
	switch cond {
	case types.ConditionNone:
		return DecisionRun
	case types.ConditionIfSuccess:
		if previous == types.OutcomeSucceeded {
			return DecisionRun
		}
	case types.ConditionIfFailure:
		if previous == types.OutcomeFailed {
			return DecisionRun
		}
	}
	return DecisionSkip
}
