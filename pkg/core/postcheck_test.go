package core_test

import (
	"errors"
	"testing"

	"github.com/arnavsurve/ideflow/pkg/core"
	"github.com/arnavsurve/ideflow/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestRunPostCheck(t *testing.T) {
	jsonOutput := types.ActionResult{Success: true, Output: map[string]any{
		"status_code": 200,
		"body":        map[string]any{"state": "open"},
	}}
	textOutput := types.ActionResult{Success: true, Output: "build PASS in 3s"}

	tests := []struct {
		name     string
		cfg      *types.PostCheckConfig
		result   types.ActionResult
		errorMsg string
	}{
		{name: "nil config passes", cfg: nil, result: textOutput},
		{name: "contains text", cfg: &types.PostCheckConfig{Type: "output_contains", Parameters: map[string]any{"value": "PASS"}}, result: textOutput},
		{name: "contains in structured output", cfg: &types.PostCheckConfig{Type: "output_contains", Parameters: map[string]any{"value": "open"}}, result: jsonOutput},
		{name: "contains misses", cfg: &types.PostCheckConfig{Type: "output_contains", Parameters: map[string]any{"value": "FAIL"}}, result: textOutput, errorMsg: `does not contain "FAIL"`},
		{name: "contains without value", cfg: &types.PostCheckConfig{Type: "output_contains"}, result: textOutput, errorMsg: "missing 'value'"},
		{name: "has nested key", cfg: &types.PostCheckConfig{Type: "output_has_key", Parameters: map[string]any{"key": "body.state"}}, result: jsonOutput},
		{name: "has key misses", cfg: &types.PostCheckConfig{Type: "output_has_key", Parameters: map[string]any{"key": "body.owner"}}, result: jsonOutput, errorMsg: `no key "body.owner"`},
		{name: "equals", cfg: &types.PostCheckConfig{Type: "output_equals", Parameters: map[string]any{"key": "status_code", "value": 200}}, result: jsonOutput},
		{name: "equals mismatch", cfg: &types.PostCheckConfig{Type: "output_equals", Parameters: map[string]any{"key": "body.state", "value": "closed"}}, result: jsonOutput, errorMsg: "expected closed, got open"},
		{name: "unknown type", cfg: &types.PostCheckConfig{Type: "vibes"}, result: textOutput, errorMsg: "unknown post-check"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := core.RunPostCheck(tt.cfg, tt.result)
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errorMsg)
		})
	}
}

func TestRegisterPostCheck(t *testing.T) {
	core.RegisterPostCheck("always_fails_test", func(types.ActionResult, map[string]any) error {
		return errors.New("nope")
	})
	assert.Contains(t, core.PostCheckTypes(), "always_fails_test")
	assert.ErrorContains(t, core.RunPostCheck(&types.PostCheckConfig{Type: "always_fails_test"}, types.ActionResult{}), "nope")
}
