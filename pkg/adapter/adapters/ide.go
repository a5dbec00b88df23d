package adapters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/arnavsurve/ideflow/pkg/adapter"
	"github.com/arnavsurve/ideflow/pkg/fileutil"
	"github.com/arnavsurve/ideflow/pkg/types"
)

type IDEAction int

const (
	IDEActionUnknown IDEAction = iota
	IDEActionActivateWindow
	IDEActionOpenFile
	IDEActionGotoLine
	IDEActionDevelop
)

func ParseIDEAction(name string) IDEAction {
	switch name {
	case "activate_window":
		return IDEActionActivateWindow
	case "open_file":
		return IDEActionOpenFile
	case "goto_line":
		return IDEActionGotoLine
	case "develop":
		return IDEActionDevelop
	default:
		return IDEActionUnknown
	}
}

const (
	defaultIDECommand = "code"
	requirementsDir   = ".ideflow/requirements"
)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// IDEAdapter drives an editor through its command line launcher.
type IDEAdapter struct {
	command string
	workDir string
	runner  CommandRunner
	logger  types.Logger
}

func init() {
	adapter.RegisterFactory("ide", func(settings adapter.Settings, logger types.Logger) (adapter.SystemAdapter, error) {
		return NewIDEAdapter(settings, logger, ExecRunner{}), nil
	})
}

func NewIDEAdapter(settings adapter.Settings, logger types.Logger, runner CommandRunner) *IDEAdapter {
	command := settings.IDECommand
	if command == "" {
		command = defaultIDECommand
	}
	return &IDEAdapter{command: command, workDir: settings.WorkDir, runner: runner, logger: logger}
}

func (ia *IDEAdapter) Supports(action string) bool {
	return ParseIDEAction(action) != IDEActionUnknown
}

func (ia *IDEAdapter) Actions() []string {
	return []string{"activate_window", "open_file", "goto_line", "develop"}
}

func (ia *IDEAdapter) Validate(action string, params map[string]any) error {
	switch ParseIDEAction(action) {
	case IDEActionActivateWindow:
	case IDEActionOpenFile:
		if _, ok := adapter.StringParam(params, "path"); !ok {
			return fmt.Errorf("ide open_file: 'path' is required")
		}
		if _, _, err := adapter.IntParam(params, "line"); err != nil {
			return err
		}
	case IDEActionGotoLine:
		if _, ok := adapter.StringParam(params, "path"); !ok {
			return fmt.Errorf("ide goto_line: 'path' is required")
		}
		line, ok, err := adapter.IntParam(params, "line")
		if err != nil {
			return err
		}
		if !ok || line < 1 {
			return fmt.Errorf("ide goto_line: 'line' must be a positive integer")
		}
	case IDEActionDevelop:
		if _, ok := adapter.StringParam(params, "requirement"); !ok {
			if _, hasInput := params["input_data"]; !hasInput {
				return fmt.Errorf("ide develop: 'requirement' is required")
			}
		}
	default:
		return fmt.Errorf("unknown ide action %q", action)
	}
	return nil
}

func (ia *IDEAdapter) Execute(ctx context.Context, action string, params map[string]any) types.ActionResult {
	start := time.Now()
	var result types.ActionResult
	if err := ia.Validate(action, params); err != nil {
		result = types.Failure("%v", err)
	} else {
		switch ParseIDEAction(action) {
		case IDEActionActivateWindow:
			result = ia.launch(ctx, map[string]any{"workspace": ia.workspace(params)}, "--reuse-window", ia.workspace(params))
		case IDEActionOpenFile, IDEActionGotoLine:
			result = ia.openFile(ctx, params)
		case IDEActionDevelop:
			result = ia.develop(ctx, params)
		}
	}
	result.Duration = time.Since(start)
	return result
}

func (ia *IDEAdapter) workspace(params map[string]any) string {
	if ws, ok := adapter.StringParam(params, "workspace"); ok {
		return ws
	}
	if ia.workDir != "" {
		return ia.workDir
	}
	return "."
}

func (ia *IDEAdapter) openFile(ctx context.Context, params map[string]any) types.ActionResult {
	path, _ := adapter.StringParam(params, "path")
	resolved, err := fileutil.Resolve(ia.workDir, path)
	if err != nil {
		return types.Failure("resolving %q: %v", path, err)
	}
	line, hasLine, _ := adapter.IntParam(params, "line")
	target := resolved
	if hasLine {
		target = resolved + ":" + strconv.Itoa(line)
	}
	output := map[string]any{"path": resolved}
	if hasLine {
		output["line"] = line
	}
	return ia.launch(ctx, output, "--reuse-window", "--goto", target)
}

// develop records a requirement as a markdown note in the workspace and opens it for editing.
func (ia *IDEAdapter) develop(ctx context.Context, params map[string]any) types.ActionResult {
	requirement, ok := adapter.StringParam(params, "requirement")
	if !ok {
		requirement = describeInput(params["input_data"])
	}
	if strings.TrimSpace(requirement) == "" {
		return types.Failure("ide develop: empty requirement")
	}
	title := firstLine(requirement)
	if t, ok := adapter.StringParam(params, "title"); ok {
		title = t
	}

	dir := filepath.Join(ia.workspace(params), requirementsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.Failure("creating requirements dir: %v", err)
	}
	notePath := filepath.Join(dir, slugify(title)+".md")
	note := fmt.Sprintf("# %s\n\n%s\n", title, requirement)
	if err := os.WriteFile(notePath, []byte(note), 0o644); err != nil {
		return types.Failure("writing requirement note: %v", err)
	}
	ia.logger.Info().Str("note", notePath).Msg("Recorded development requirement")

	return ia.launch(ctx, map[string]any{"path": notePath, "title": title}, "--reuse-window", notePath)
}

func (ia *IDEAdapter) launch(ctx context.Context, output map[string]any, args ...string) types.ActionResult {
	name, base := splitCommand(ia.command)
	if name == "" {
		return types.Failure("no IDE command configured")
	}
	args = append(base, args...)
	ia.logger.Debug().Str("command", name).Interface("args", args).Msg("Invoking IDE")
	stdout, stderr, err := ia.runner.Run(ctx, ia.workDir, name, args...)
	if err != nil {
		return types.Failure("%s failed: %v %s", name, err, stderr)
	}
	if stdout != "" {
		output["stdout"] = stdout
	}
	return types.ActionResult{Success: true, Output: output}
}

func describeInput(v any) string {
	switch in := v.(type) {
	case nil:
		return ""
	case string:
		return in
	case map[string]any:
		if c, ok := adapter.StringParam(in, "content"); ok {
			if t, hasTitle := adapter.StringParam(in, "title"); hasTitle {
				return t + "\n\n" + c
			}
			return c
		}
	}
	return fmt.Sprintf("%v", v)
}

func firstLine(s string) string {
	line := strings.TrimSpace(strings.SplitN(strings.TrimSpace(s), "\n", 2)[0])
	if len(line) > 60 {
		line = line[:60]
	}
	return line
}

func slugify(s string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if slug == "" {
		return "requirement"
	}
	return slug
}
