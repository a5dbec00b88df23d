package cli_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/arnavsurve/ideflow/cmd/cli"
	"github.com/arnavsurve/ideflow/pkg/core"
	"github.com/arnavsurve/ideflow/pkg/intent"
	"github.com/arnavsurve/ideflow/pkg/orchestrator"
	"github.com/arnavsurve/ideflow/pkg/types"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func globals(t *testing.T, dir string) *cli.Globals {
	t.Helper()
	cfg := writeFile(t, dir, "ideflow.yml", "log_dir: "+filepath.Join(dir, "logs")+"\nlog_level: error\n")
	return &cli.Globals{Config: cfg, EnvFile: filepath.Join(dir, ".env")}
}

const smokeDoc = "---\nname: smoke\n---\n## Steps\n" +
	"1. say hello\n" +
	"```yaml\n" +
	"operation: run\n" +
	"system: terminal\n" +
	"parameters:\n" +
	"  command: echo '{\"greeting\":\"hi\"}'\n" +
	"output_to: hello\n" +
	"```\n" +
	"2. [if_success] check greeting\n" +
	"```yaml\n" +
	"operation: run\n" +
	"system: terminal\n" +
	"parameters:\n" +
	"  command: \"test '{{context.hello.greeting}}' = hi\"\n" +
	"```\n"

func TestRunCmd_RunsDocument(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "smoke.md", smokeDoc)

	cmd := &cli.RunCmd{Document: doc}
	require.NoError(t, cmd.Run(globals(t, dir)))

	logs, err := os.ReadDir(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.True(t, strings.HasSuffix(logs[0].Name(), ".json"))
}

func TestRunCmd_FailingStepReturnsStepError(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "fail.md", "---\nname: fail\n---\n1. break\n```yaml\noperation: run\nsystem: terminal\nparameters:\n  command: exit 3\n```\n")

	err := (&cli.RunCmd{Document: doc}).Run(globals(t, dir))
	var stepErr *core.StepExecutionError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 0, stepErr.StepIndex)
	assert.Contains(t, stepErr.Message, "exit code 3")
}

func TestRunCmd_ValidateOnly(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "bad.md", "---\nname: bad\n---\n1. file a ticket\n```yaml\noperation: create_issue\nsystem: jira\n```\n")

	err := (&cli.RunCmd{Document: doc, Validate: true}).Run(globals(t, dir))
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, core.ErrUnknownSystem)

	_, statErr := os.Stat(filepath.Join(dir, "logs"))
	assert.True(t, os.IsNotExist(statErr), "validate-only runs keep no log file")
}

func TestLintCmd(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "smoke.md", smokeDoc)
	assert.NoError(t, (&cli.LintCmd{Document: doc}).Run(globals(t, dir)))

	bad := writeFile(t, dir, "bad.md", "---\nname: bad\n---\n1. [if_tuesday] deploy\n```yaml\noperation: run\nsystem: terminal\nparameters:\n  command: true\n```\n")
	assert.Error(t, (&cli.LintCmd{Document: bad}).Run(globals(t, dir)))
}

func TestIntentFlags(t *testing.T) {
	t.Run("type and params", func(t *testing.T) {
		in, err := cli.IntentFlags{Type: "open-file", Param: []string{"path=main.go", "line=12"}, Confidence: 1}.Intent()
		require.NoError(t, err)
		assert.Equal(t, "open-file", in.Type)
		assert.Equal(t, map[string]any{"path": "main.go", "line": "12"}, in.Parameters)
	})

	t.Run("file with override", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "intent.yml", "type: goto-line\nconfidence: 0.9\nparameters:\n  path: a.go\n  line: 3\n")
		in, err := cli.IntentFlags{IntentFile: path, Param: []string{"line=7"}}.Intent()
		require.NoError(t, err)
		assert.Equal(t, "goto-line", in.Type)
		assert.Equal(t, "a.go", in.Parameters["path"])
		assert.Equal(t, "7", in.Parameters["line"])
	})

	t.Run("no source", func(t *testing.T) {
		_, err := cli.IntentFlags{}.Intent()
		assert.Error(t, err)
	})

	t.Run("bad param", func(t *testing.T) {
		_, err := cli.IntentFlags{Type: "x", Param: []string{"novalue"}, Confidence: 1}.Intent()
		assert.Error(t, err)
	})
}

func TestPromptConfirmer(t *testing.T) {
	plan := &orchestrator.Plan{
		Intent:   "open-file",
		Template: "open-file-at-line",
		Steps:    []orchestrator.PlannedStep{{Index: 0, System: "ide", Action: "open_file", Description: "ide: open_file"}},
	}

	tests := []struct {
		answer string
		want   bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		ok, err := cli.NewPromptConfirmer(strings.NewReader(tt.answer), &out).Confirm(context.Background(), intent.Intent{Type: "open-file"}, plan)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ok, "answer %q", tt.answer)
		assert.Contains(t, out.String(), "ide/open_file")
		assert.Contains(t, out.String(), "Proceed? [y/N]")
	}
}

func TestPrintReport(t *testing.T) {
	failed := 1
	result := &core.WorkflowResult{
		RunID:           "run-1",
		Name:            "jump",
		TotalSteps:      3,
		CompletedSteps:  2,
		FailedStepIndex: &failed,
		ErrorMessage:    "step 1 (open file) failed: no such file",
		StepResults: []types.StepResult{
			{Index: 0, Description: "activate", System: "ide", Action: "activate_window", Outcome: types.OutcomeSucceeded, Duration: time.Millisecond},
			{Index: 1, Description: "open file", System: "ide", Action: "open_file", Outcome: types.OutcomeFailed, ErrorMessage: "no such file", RetryAttempts: 2},
		},
	}

	var out bytes.Buffer
	cli.PrintReport(&out, result, core.Summary{Succeeded: 1, Failed: 1})
	text := out.String()

	assert.Contains(t, text, "✔ [0] ide/activate_window activate")
	assert.Contains(t, text, "✖ [1] ide/open_file open file (2 retries)")
	assert.Contains(t, text, "1 step(s) not run")
	assert.Contains(t, text, "Workflow failed at step 1: step 1 (open file) failed: no such file")
}

func TestPrintValidation(t *testing.T) {
	var out bytes.Buffer
	cli.PrintValidation(&out, &core.ValidationError{Issues: []core.ValidationIssue{{StepIndex: 2, Message: "unknown operation"}}})
	assert.Contains(t, out.String(), "1 validation issue(s)")
	assert.Contains(t, out.String(), "step 2: unknown operation")

	out.Reset()
	cli.PrintValidation(&out, errors.New("boom"))
	assert.Contains(t, out.String(), "boom")
}
