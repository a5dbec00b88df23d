package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arnavsurve/ideflow/pkg/types"
)

// PostCheck is a predicate over an adapter result. A non-nil error fails the
// attempt even if the adapter reported success.
type PostCheck func(result types.ActionResult, params map[string]any) error

var postChecks = map[string]PostCheck{
	"output_contains": checkOutputContains,
	"output_has_key":  checkOutputHasKey,
	"output_equals":   checkOutputEquals,
}

// RegisterPostCheck makes a post-check available to documents under name.
func RegisterPostCheck(name string, check PostCheck) {
	postChecks[name] = check
}

// PostCheckTypes lists the registered post-check names.
func PostCheckTypes() []string {
	names := make([]string, 0, len(postChecks))
	for name := range postChecks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func knownPostCheck(name string) bool {
	_, ok := postChecks[name]
	return ok
}

// RunPostCheck evaluates cfg against result. A nil cfg always passes.
func RunPostCheck(cfg *types.PostCheckConfig, result types.ActionResult) error {
	if cfg == nil {
		return nil
	}
	check, ok := postChecks[cfg.Type]
	if !ok {
		return fmt.Errorf("unknown post-check %q", cfg.Type)
	}
	if err := check(result, cfg.Parameters); err != nil {
		return fmt.Errorf("post-check %s failed: %w", cfg.Type, err)
	}
	return nil
}

func checkOutputContains(result types.ActionResult, params map[string]any) error {
	want, ok := params["value"]
	if !ok {
		return fmt.Errorf("missing 'value' parameter")
	}
	got := stringify(result.Output)
	if !strings.Contains(got, stringify(want)) {
		return fmt.Errorf("output does not contain %q", stringify(want))
	}
	return nil
}

func checkOutputHasKey(result types.ActionResult, params map[string]any) error {
	key, ok := params["key"].(string)
	if !ok || key == "" {
		return fmt.Errorf("missing 'key' parameter")
	}
	if _, found := GetNestedValue(result.Output, strings.Split(key, ".")); !found {
		return fmt.Errorf("output has no key %q", key)
	}
	return nil
}

func checkOutputEquals(result types.ActionResult, params map[string]any) error {
	key, _ := params["key"].(string)
	want, ok := params["value"]
	if !ok {
		return fmt.Errorf("missing 'value' parameter")
	}

	got := result.Output
	if key != "" {
		var found bool
		if got, found = GetNestedValue(result.Output, strings.Split(key, ".")); !found {
			return fmt.Errorf("output has no key %q", key)
		}
	}
	if stringify(got) != stringify(want) {
		return fmt.Errorf("expected %v, got %v", stringify(want), stringify(got))
	}
	return nil
}
