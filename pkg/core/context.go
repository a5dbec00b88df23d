package core

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arnavsurve/ideflow/pkg/types"
	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// ExecutionContext carries shared data and step history across the steps of
// one run. It may only be owned by one run at a time.
type ExecutionContext struct {
	RunID string

	mu         sync.RWMutex
	status     Status
	sharedData map[string]any
	history    []types.StepResult
	startedAt  time.Time
	finishedAt time.Time

	owned atomic.Bool
}

func NewExecutionContext() *ExecutionContext {
	return &ExecutionContext{
		RunID:      uuid.NewString(),
		status:     StatusPending,
		sharedData: make(map[string]any),
	}
}

// acquire claims the context for a run.
func (c *ExecutionContext) acquire() error {
	if !c.owned.CompareAndSwap(false, true) {
		return ErrContextInUse
	}
	return nil
}

func (c *ExecutionContext) release() {
	c.owned.Store(false)
}

func (c *ExecutionContext) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.sharedData[key]
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (c *ExecutionContext) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sharedData[key] = value
}

// Data returns a shallow copy of the shared data.
func (c *ExecutionContext) Data() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.sharedData))
	for k, v := range c.sharedData {
		out[k] = v
	}
	return out
}

func (c *ExecutionContext) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.sharedData))
	for k := range c.sharedData {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Append records a step result. History is never rewritten.
func (c *ExecutionContext) Append(result types.StepResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, result)
}

func (c *ExecutionContext) History() []types.StepResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.StepResult, len(c.history))
	copy(out, c.history)
	return out
}

// LastOutcome reports the outcome of the most recent step, if any.
func (c *ExecutionContext) LastOutcome() (types.Outcome, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.history) == 0 {
		return "", false
	}
	return c.history[len(c.history)-1].Outcome, true
}

func (c *ExecutionContext) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

func (c *ExecutionContext) start(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = StatusRunning
	c.startedAt = now
	c.finishedAt = time.Time{}
}

func (c *ExecutionContext) finish(status Status, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
	c.finishedAt = now
}

// Summary is a point-in-time report over the context's history.
type Summary struct {
	RunID      string        `json:"run_id"`
	Status     Status        `json:"status"`
	TotalSteps int           `json:"total_steps"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Duration   time.Duration `json:"duration"`
	DataKeys   []string      `json:"data_keys"`
}

func (c *ExecutionContext) Summary() Summary {
	keys := c.Keys()

	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Summary{
		RunID:      c.RunID,
		Status:     c.status,
		TotalSteps: len(c.history),
		DataKeys:   keys,
	}
	for _, r := range c.history {
		switch r.Outcome {
		case types.OutcomeSucceeded:
			s.Succeeded++
		case types.OutcomeFailed:
			s.Failed++
		case types.OutcomeSkipped:
			s.Skipped++
		}
	}
	switch {
	case c.startedAt.IsZero():
	case c.finishedAt.IsZero():
		s.Duration = time.Since(c.startedAt)
	default:
		s.Duration = c.finishedAt.Sub(c.startedAt)
	}
	return s
}
