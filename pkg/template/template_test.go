package template_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arnavsurve/ideflow/pkg/template"
	"github.com/arnavsurve/ideflow/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTemplate() *template.Template {
	interval := 0.5
	return &template.Template{
		Name:        "develop-feature",
		Description: "requirement development",
		IntentTypes: []string{"develop-feature", "requirement-to-development"},
		Steps: []template.TemplateStep{
			{System: "browser", Action: "extract_content", Parameters: map[string]any{"url": "{{intent.url}}"}, OutputTo: "req", RetryCount: 1, RetryInterval: &interval},
			{System: "ide", Action: "develop", InputFrom: "req", Condition: "if_success", Description: "develop it"},
		},
	}
}

func TestTemplate_Compile(t *testing.T) {
	doc, err := sampleTemplate().Compile()
	require.NoError(t, err)

	assert.Equal(t, "develop-feature", doc.Name)
	assert.Equal(t, []string{"develop-feature", "requirement-to-development"}, doc.Metadata["intent_types"])
	require.Len(t, doc.Steps, 2)

	first := doc.Steps[0]
	assert.Equal(t, "browser: extract_content", first.Description)
	assert.Equal(t, "browser", first.System)
	assert.Equal(t, "extract_content", first.Operation)
	assert.Equal(t, "{{intent.url}}", first.Parameters["url"])
	assert.Equal(t, "req", first.OutputTo)
	assert.Equal(t, 1, first.RetryCount)
	assert.Equal(t, 0.5, first.RetryInterval)

	second := doc.Steps[1]
	assert.Equal(t, "develop it", second.Description)
	assert.Equal(t, types.ConditionIfSuccess, second.Condition)
	assert.Equal(t, "req", second.InputFrom)
	assert.Equal(t, types.DefaultRetryInterval, second.RetryInterval)
}

func TestTemplate_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*template.Template)
		errorMsg string
	}{
		{"missing name", func(tp *template.Template) { tp.Name = "" }, "name is required"},
		{"no intent types", func(tp *template.Template) { tp.IntentTypes = nil }, "at least one intent type"},
		{"no steps", func(tp *template.Template) { tp.Steps = nil }, "at least one step"},
		{"missing system", func(tp *template.Template) { tp.Steps[0].System = "" }, "system is required"},
		{"missing action", func(tp *template.Template) { tp.Steps[1].Action = " " }, "action is required"},
		{"bad condition", func(tp *template.Template) { tp.Steps[1].Condition = "when_ready" }, "unsupported condition"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp := sampleTemplate()
			tt.mutate(tp)
			assert.ErrorContains(t, tp.Validate(), tt.errorMsg)
			_, err := tp.Compile()
			assert.Error(t, err)
		})
	}
}

func TestStore(t *testing.T) {
	store := template.NewStore()
	require.NoError(t, store.Register(sampleTemplate()))

	second := sampleTemplate()
	second.Name = "fallback"
	second.IntentTypes = []string{"develop-feature", "other"}
	require.NoError(t, store.Register(second))

	assert.ErrorContains(t, store.Register(sampleTemplate()), "duplicate template name")
	assert.Error(t, store.Register(nil))

	tp, ok := store.Match("develop-feature")
	require.True(t, ok)
	assert.Equal(t, "develop-feature", tp.Name, "first registered template wins")

	tp, ok = store.Match("other")
	require.True(t, ok)
	assert.Equal(t, "fallback", tp.Name)

	_, ok = store.Match("make-coffee")
	assert.False(t, ok)

	_, ok = store.Get("fallback")
	assert.True(t, ok)
	assert.Len(t, store.List(), 2)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yml"), []byte(`
name: open-file-at-line
intent_types: [open-file]
steps:
  - system: ide
    action: open_file
    parameters:
      path: "{{intent.path}}"
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	store, err := template.LoadDir(dir)
	require.NoError(t, err)
	tp, ok := store.Match("open-file")
	require.True(t, ok)
	assert.Equal(t, "{{intent.path}}", tp.Steps[0].Parameters["path"])

	empty, err := template.LoadDir(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, empty.List())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("name: broken\nsteps: []\nintent_types: [x]\n"), 0o644))
	_, err = template.LoadDir(dir)
	assert.ErrorContains(t, err, "at least one step")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("name: [\n"), 0o644))
	_, err = template.LoadDir(dir)
	assert.ErrorContains(t, err, "failed to parse YAML")
}

func TestLoadDir_BundledTemplates(t *testing.T) {
	store, err := template.LoadDir(filepath.Join("..", "..", "templates"))
	require.NoError(t, err)

	tp, ok := store.Match("requirement-to-development")
	require.True(t, ok)
	_, err = tp.Compile()
	assert.NoError(t, err)

	_, ok = store.Match("goto-line")
	assert.True(t, ok)
}
