package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/arnavsurve/ideflow/pkg/adapter"
	"github.com/arnavsurve/ideflow/pkg/fileutil"
	"github.com/arnavsurve/ideflow/pkg/types"
)

type TerminalAction int

const (
	TerminalActionUnknown TerminalAction = iota
	TerminalActionRun
)

func ParseTerminalAction(name string) TerminalAction {
	if name == "run" {
		return TerminalActionRun
	}
	return TerminalActionUnknown
}

const defaultShell = "/bin/bash"

type TerminalAdapter struct {
	settings adapter.Settings
	logger   types.Logger
}

func init() {
	adapter.RegisterFactory("terminal", func(settings adapter.Settings, logger types.Logger) (adapter.SystemAdapter, error) {
		return NewTerminalAdapter(settings, logger), nil
	})
}

func NewTerminalAdapter(settings adapter.Settings, logger types.Logger) *TerminalAdapter {
	if settings.Shell == "" {
		settings.Shell = defaultShell
	}
	return &TerminalAdapter{settings: settings, logger: logger}
}

func (ta *TerminalAdapter) Supports(action string) bool {
	return ParseTerminalAction(action) != TerminalActionUnknown
}

func (ta *TerminalAdapter) Actions() []string { return []string{"run"} }

func (ta *TerminalAdapter) Validate(action string, params map[string]any) error {
	if ParseTerminalAction(action) == TerminalActionUnknown {
		return fmt.Errorf("unknown terminal action %q", action)
	}
	inline, hasInline := adapter.StringParam(params, "command")
	_, hasPath := adapter.StringParam(params, "path")
	if hasInline && hasPath {
		return fmt.Errorf("terminal step must only define either 'command' or 'path'")
	}
	if !hasInline && !hasPath {
		return fmt.Errorf("terminal step must define either 'command' or 'path'")
	}
	if len(inline) > 1000 {
		ta.logger.Warn().Msg("Long script in 'command' - consider passing a script file as 'path' for maintainability.")
	}
	return nil
}

func (ta *TerminalAdapter) Execute(ctx context.Context, action string, params map[string]any) types.ActionResult {
	start := time.Now()
	result := ta.execute(ctx, action, params)
	result.Duration = time.Since(start)
	return result
}

func (ta *TerminalAdapter) execute(ctx context.Context, action string, params map[string]any) types.ActionResult {
	if err := ta.Validate(action, params); err != nil {
		return types.Failure("%v", err)
	}

	interpreter := ta.settings.Shell
	if custom, ok := adapter.StringParam(params, "interpreter"); ok {
		interpreter = custom
	}

	var cmd *exec.Cmd
	if inline, ok := adapter.StringParam(params, "command"); ok {
		cmd = inlineCommand(ctx, interpreter, inline)
	} else {
		path, _ := adapter.StringParam(params, "path")
		resolvedPath, err := fileutil.Resolve(ta.settings.WorkDir, path)
		if err != nil {
			return types.Failure("resolving script path: %v", err)
		}
		if _, err := os.Stat(resolvedPath); err != nil {
			return types.Failure("script file not found at %q: %v", resolvedPath, err)
		}
		// #nosec G204
		cmd = exec.CommandContext(ctx, interpreter, resolvedPath)
	}
	cmd.Dir = ta.settings.WorkDir

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	ta.logger.Info().Str("shell", interpreter).Msg("Starting shell script execution")

	waitErr := cmd.Run()

	logBuffer(strings.NewReader(stderrBuf.String()), "STDERR", ta.logger, "shell_line")
	logBuffer(strings.NewReader(stdoutBuf.String()), "STDOUT", ta.logger, "shell_line")

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			ta.logger.Error().Int("exit_code", exitErr.ExitCode()).Msg("Script exited with non-zero code")
			return types.ActionResult{
				Success: false,
				Output:  map[string]any{"exit_code": exitErr.ExitCode(), "stderr": strings.TrimSpace(stderrBuf.String())},
				Error:   fmt.Sprintf("shell script failed with exit code %d", exitErr.ExitCode()),
			}
		}
		return types.Failure("shell script failed: %v", waitErr)
	}

	ta.logger.Info().Msg("Shell script executed successfully")

	stdout := strings.TrimSpace(stdoutBuf.String())
	var structuredOutput map[string]any
	if err := json.Unmarshal([]byte(stdout), &structuredOutput); err == nil {
		ta.logger.Debug().Msg("Shell output was valid JSON, promoting to structured output.")
		return types.ActionResult{Success: true, Output: structuredOutput}
	}

	ta.logger.Debug().Msg("Shell output was not JSON, treating as raw string output.")
	return types.ActionResult{Success: true, Output: stdout}
}

func inlineCommand(ctx context.Context, interpreter, script string) *exec.Cmd {
	switch filepath.Base(interpreter) {
	case "bash", "zsh":
		script = "set -euo pipefail\n" + script
	}
	// #nosec G204
	return exec.CommandContext(ctx, interpreter, "-c", script)
}
