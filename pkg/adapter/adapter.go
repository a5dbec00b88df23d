// Package adapter defines the dispatch contract between the workflow engine and
// the backend systems (IDE, browser, terminal, ...) that carry out step actions.
package adapter

import (
	"context"
	"time"

	"github.com/arnavsurve/ideflow/pkg/types"
)

// SystemAdapter turns an action name plus parameters into a real-world effect.
// Backend-specific detail stays behind this single method.
type SystemAdapter interface {
	Execute(ctx context.Context, action string, params map[string]any) types.ActionResult
}

// ActionChecker is implemented by adapters with a closed set of known actions.
type ActionChecker interface {
	Supports(action string) bool
	Actions() []string
}

// Validator is implemented by adapters that can statically check parameters
// without dispatching anything.
type Validator interface {
	Validate(action string, params map[string]any) error
}

// Settings carries the configuration built-in adapters are constructed with.
type Settings struct {
	WorkDir        string
	Shell          string
	HTTPTimeout    time.Duration
	IDECommand     string
	BrowserCommand string
	FetchTimeout   time.Duration
}
