package adapter_test

import (
	"context"
	"testing"

	"github.com/arnavsurve/ideflow/pkg/adapter"
	"github.com/arnavsurve/ideflow/pkg/log"
	"github.com/arnavsurve/ideflow/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticAdapter struct{ name string }

func (s staticAdapter) Execute(_ context.Context, action string, _ map[string]any) types.ActionResult {
	return types.ActionResult{Success: true, Output: s.name + ":" + action}
}

func TestRegistry(t *testing.T) {
	reg := adapter.NewRegistry()
	require.NoError(t, reg.Register("ide", staticAdapter{name: "ide"}))
	require.NoError(t, reg.Register("browser", staticAdapter{name: "browser"}))

	err := reg.Register("ide", staticAdapter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	require.Error(t, reg.Register("", staticAdapter{}))
	require.Error(t, reg.Register("nil", nil))

	a, ok := reg.Get("browser")
	require.True(t, ok)
	assert.Equal(t, "browser:open", a.Execute(context.Background(), "open", nil).Output)

	_, ok = reg.Get("terminal")
	assert.False(t, ok)
	assert.Equal(t, []string{"browser", "ide"}, reg.Names())
}

func TestNewRegistryFromFactories(t *testing.T) {
	adapter.RegisterFactory("static-test", func(settings adapter.Settings, logger types.Logger) (adapter.SystemAdapter, error) {
		return staticAdapter{name: settings.WorkDir}, nil
	})

	reg, err := adapter.NewRegistryFromFactories(adapter.Settings{WorkDir: "wd"}, log.Nop())
	require.NoError(t, err)

	a, ok := reg.Get("static-test")
	require.True(t, ok)
	assert.Equal(t, "wd:x", a.Execute(context.Background(), "x", nil).Output)
	assert.Contains(t, adapter.FactoryNames(), "static-test")
}

func TestParams(t *testing.T) {
	params := map[string]any{
		"s":     "value",
		"n":     42,
		"f":     float64(7),
		"frac":  1.5,
		"str":   "12",
		"bad":   "x",
		"m":     map[string]any{"k": "v"},
		"empty": "",
	}

	s, ok := adapter.StringParam(params, "s")
	assert.True(t, ok)
	assert.Equal(t, "value", s)

	s, ok = adapter.StringParam(params, "n")
	assert.True(t, ok)
	assert.Equal(t, "42", s)

	_, ok = adapter.StringParam(params, "empty")
	assert.False(t, ok)

	for key, want := range map[string]int{"n": 42, "f": 7, "str": 12} {
		got, present, err := adapter.IntParam(params, key)
		require.NoError(t, err, key)
		assert.True(t, present)
		assert.Equal(t, want, got)
	}

	_, present, err := adapter.IntParam(params, "frac")
	assert.True(t, present)
	assert.Error(t, err)

	_, _, err = adapter.IntParam(params, "bad")
	assert.Error(t, err)

	_, present, err = adapter.IntParam(params, "missing")
	assert.False(t, present)
	assert.NoError(t, err)

	m, ok := adapter.MapParam(params, "m")
	assert.True(t, ok)
	assert.Equal(t, "v", m["k"])
}
