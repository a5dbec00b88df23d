package core_test

import (
	"errors"
	"testing"

	"github.com/arnavsurve/ideflow/pkg/adapter"
	"github.com/arnavsurve/ideflow/pkg/adapter/adapters"
	"github.com/arnavsurve/ideflow/pkg/core"
	"github.com/arnavsurve/ideflow/pkg/log"
	"github.com/arnavsurve/ideflow/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validationSetup(t *testing.T) (*core.OperationCatalog, core.Dispatcher) {
	t.Helper()
	reg := adapter.NewRegistry()
	require.NoError(t, reg.Register("ide", adapters.NewIDEAdapter(adapter.Settings{}, log.Nop(), nil)))
	require.NoError(t, reg.Register("browser", adapters.NewBrowserAdapter(adapter.Settings{}, log.Nop(), nil)))
	catalog := loadTestCatalog(t)
	return catalog, core.NewRegistryDispatcher(reg, catalog, "ide")
}

func TestValidateDocument_Valid(t *testing.T) {
	catalog, dispatcher := validationSetup(t)
	doc, err := core.ParseDocument("---\nname: ok\n---\n" +
		"1. activate window\n" +
		"2. open file\n```yaml\nparameters:\n  path: main.go\nretry_count: 2\n```\n" +
		"3. [if_success] goto line\n```yaml\nparameters:\n  path: main.go\n  line: \"{{intent.line}}\"\n```\n")
	require.NoError(t, err)

	assert.NoError(t, core.ValidateDocument(doc, catalog, dispatcher))
}

func TestValidateDocument_Issues(t *testing.T) {
	catalog, dispatcher := validationSetup(t)

	tests := []struct {
		name   string
		mutate func(*types.Step)
		issue  string
	}{
		{"unknown operation", func(s *types.Step) { s.Operation = "teleport" }, `unknown operation "teleport"`},
		{"unresolvable description", func(s *types.Step) { s.Description = "make coffee" }, "no operation matches"},
		{"missing required parameter", func(s *types.Step) { delete(s.Parameters, "path") }, `requires parameter "path"`},
		{"negative retry count", func(s *types.Step) { s.RetryCount = -1 }, "retry_count must be >= 0"},
		{"zero retry interval", func(s *types.Step) { s.RetryInterval = 0 }, "retry_interval must be > 0"},
		{"malformed condition", func(s *types.Step) { s.Condition = "if_tuesday" }, "unsupported condition"},
		{"unknown post check", func(s *types.Step) { s.PostCheck = &types.PostCheckConfig{Type: "vibes"} }, "unknown post_check"},
		{"bad timeout", func(s *types.Step) { s.Timeout = "soon" }, "invalid timeout"},
		{"unsupported action", func(s *types.Step) { s.System = "browser" }, `does not support action "open_file"`},
		{"adapter parameter check", func(s *types.Step) { s.Parameters["line"] = "abc" }, "must be an integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := types.NewStep("open file")
			s.Parameters["path"] = "main.go"
			tt.mutate(&s)
			doc := document(s)

			err := core.ValidateDocument(doc, catalog, dispatcher)
			require.Error(t, err)
			var verr *core.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, err.Error(), tt.issue)
			assert.Equal(t, 0, verr.Issues[0].StepIndex)
		})
	}
}

func TestValidateDocument_DocumentLevel(t *testing.T) {
	err := core.ValidateDocument(&core.WorkflowDocument{}, nil, nil)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Issues, 2)
	assert.Equal(t, -1, verr.Issues[0].StepIndex)

	assert.Error(t, core.ValidateDocument(nil, nil, nil))
}

func TestValidateDocument_InputFromSatisfiesInputData(t *testing.T) {
	catalog, err := core.NewCatalog(core.Operation{Name: "develop", System: "ide", RequiredParameters: []string{"input_data"}})
	require.NoError(t, err)
	_, dispatcher := validationSetup(t)

	s := types.NewStep("develop")
	s.Operation = "develop"
	s.InputFrom = "req"
	assert.NoError(t, core.ValidateDocument(document(s), catalog, dispatcher))

	s.InputFrom = ""
	assert.ErrorContains(t, core.ValidateDocument(document(s), catalog, dispatcher), `requires parameter "input_data"`)
}

func TestValidateDocument_BundledExample(t *testing.T) {
	doc, err := core.LoadWorkflowFromFile("../../examples/jump-to-line.md")
	require.NoError(t, err)
	catalog, err := core.LoadCatalog("../../examples/catalog.yml")
	require.NoError(t, err)

	reg, err := adapter.NewRegistryFromFactories(adapter.Settings{}, log.Nop())
	require.NoError(t, err)
	dispatcher := core.NewRegistryDispatcher(reg, catalog, "ide")

	require.NoError(t, core.ValidateDocument(doc, catalog, dispatcher))

	target, err := dispatcher.Resolve(doc.Steps[3])
	require.NoError(t, err)
	assert.Equal(t, "terminal", target.System)
}
