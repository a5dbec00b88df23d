package core

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/arnavsurve/ideflow/pkg/types"
	"gopkg.in/yaml.v3"
)

// varRegex is a package-level compiled regular expression for matching {{ namespace.key }} placeholders.
var varRegex = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9\._-]+)\s*\}\}`)

var envRe = regexp.MustCompile(`^\s*\{\{\s*env\.([A-Za-z0-9_]+)\s*}}\s*$`)

// ResolveVarfile loads a YAML varfile and resolves "{{ env.X }}" values from the environment.
func ResolveVarfile(path string, logger types.Logger) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading varfile %q: %w", path, err)
	}

	rawVars := map[string]any{}
	if err := yaml.Unmarshal(data, &rawVars); err != nil {
		return nil, fmt.Errorf("parsing varfile YAML from %q: %w", path, err)
	}

	resolved := make(map[string]any, len(rawVars))
	for key, val := range rawVars {
		s, isStr := val.(string)
		if !isStr || !envRe.MatchString(s) {
			resolved[key] = val
			continue
		}
		envKey := envRe.FindStringSubmatch(s)[1]
		envVal, exists := os.LookupEnv(envKey)
		if !exists && logger != nil {
			logger.Warn().Str("env", envKey).Str("var", key).Msg("Environment variable not found for varfile key")
		}
		resolved[key] = envVal
	}
	return resolved, nil
}

// Bindings are the values a run's placeholders may reference besides the
// execution context.
type Bindings struct {
	Intent map[string]any
	Vars   map[string]any
}

// Binder resolves {{intent.X}}, {{context.X}}, {{vars.X}} and {{env.X}}
// placeholders in step parameters.
type Binder struct {
	bindings  Bindings
	ctx       *ExecutionContext
	lookupEnv func(string) (string, bool)
}

func NewBinder(bindings Bindings, ctx *ExecutionContext) *Binder {
	return &Binder{bindings: bindings, ctx: ctx, lookupEnv: os.LookupEnv}
}

// BindParameters returns a resolved deep copy of params. The input is never mutated.
func (b *Binder) BindParameters(params map[string]any) (map[string]any, error) {
	resolved, err := ResolveValue(params, b.ResolveString)
	if err != nil {
		return nil, err
	}
	out, _ := resolved.(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// ResolveString resolves every placeholder in input. A string that consists of
// exactly one placeholder resolves to the referenced value with its type intact.
func (b *Binder) ResolveString(input string) (any, error) {
	if m := varRegex.FindStringSubmatchIndex(input); m != nil && m[0] == 0 && m[1] == len(input) {
		key := input[m[2]:m[3]]
		val, err := b.lookup(key)
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(key, "intent.") {
			if s, ok := val.(string); ok {
				return coerceScalar(s), nil
			}
		}
		return val, nil
	}

	var firstErr error
	output := varRegex.ReplaceAllStringFunc(input, func(match string) string {
		if firstErr != nil {
			return match // Stop processing if an error has occurred
		}
		key := varRegex.FindStringSubmatch(match)[1]
		val, err := b.lookup(key)
		if err != nil {
			firstErr = err
			return match
		}
		return stringify(val)
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return output, nil
}

// lookup resolves a dotted key such as "context.req.url" or "intent.url.json".
func (b *Binder) lookup(key string) (any, error) {
	wantsJSON := strings.HasSuffix(key, ".json")
	if wantsJSON {
		key = strings.TrimSuffix(key, ".json")
	}

	parts := strings.Split(key, ".")
	placeholder := "{{" + key + "}}"
	if len(parts) < 2 {
		return nil, &BindingError{Placeholder: placeholder, Reason: "placeholder must be namespaced as intent., context., vars. or env."}
	}

	var (
		value any
		found bool
	)
	switch parts[0] {
	case "intent":
		value, found = GetNestedValue(b.bindings.Intent, parts[1:])
	case "vars":
		value, found = GetNestedValue(b.bindings.Vars, parts[1:])
	case "context":
		if b.ctx != nil {
			var root any
			if root, found = b.ctx.Get(parts[1]); found {
				value, found = GetNestedValue(root, parts[2:])
			}
		}
	case "env":
		if len(parts) == 2 {
			value, found = b.lookupEnv(parts[1])
		}
	default:
		return nil, &BindingError{Placeholder: placeholder, Reason: fmt.Sprintf("unknown namespace %q", parts[0])}
	}

	if !found {
		return nil, &BindingError{Placeholder: placeholder, Reason: fmt.Sprintf("no value for %q in %s", strings.Join(parts[1:], "."), parts[0])}
	}

	if wantsJSON {
		jsonBytes, err := json.Marshal(value)
		if err != nil {
			return nil, &BindingError{Placeholder: placeholder, Reason: fmt.Sprintf("failed to marshal to json: %v", err)}
		}
		return string(jsonBytes), nil
	}
	return value, nil
}

// ResolveValue recursively resolves placeholders in strings nested in maps and slices.
func ResolveValue(value any, resolver func(string) (any, error)) (any, error) {
	switch v := value.(type) {
	case string:
		return resolver(v)
	case map[string]any:
		resolvedMap := make(map[string]any, len(v))
		for key, val := range v {
			resolvedVal, err := ResolveValue(val, resolver)
			if err != nil {
				return nil, fmt.Errorf("resolving map key %q: %w", key, err)
			}
			resolvedMap[key] = resolvedVal
		}
		return resolvedMap, nil
	case []any:
		resolvedSlice := make([]any, len(v))
		for i, item := range v {
			resolvedItem, err := ResolveValue(item, resolver)
			if err != nil {
				return nil, fmt.Errorf("resolving slice item at index %d: %w", i, err)
			}
			resolvedSlice[i] = resolvedItem
		}
		return resolvedSlice, nil
	default:
		// For other types (int, bool, etc.), return as is
		return v, nil
	}
}

// GetNestedValue traverses a data structure (map or string) using a path slice.
func GetNestedValue(data any, path []string) (any, bool) {
	if len(path) == 0 {
		return data, data != nil
	}
	if data == nil {
		return nil, false
	}

	current := data
	for _, keyInPath := range path {
		switch typedCurrent := current.(type) {
		case map[string]any:
			val, exists := typedCurrent[keyInPath]
			if !exists {
				return nil, false
			}
			current = val
		case map[string]string:
			val, exists := typedCurrent[keyInPath]
			if !exists {
				return nil, false
			}
			current = val
		case []any:
			idx, err := strconv.Atoi(keyInPath)
			if err != nil || idx < 0 || idx >= len(typedCurrent) {
				return nil, false
			}
			current = typedCurrent[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// HasPlaceholder reports whether any string inside value contains a placeholder.
func HasPlaceholder(value any) bool {
	switch v := value.(type) {
	case string:
		return varRegex.MatchString(v)
	case map[string]any:
		for _, item := range v {
			if HasPlaceholder(item) {
				return true
			}
		}
	case []any:
		for _, item := range v {
			if HasPlaceholder(item) {
				return true
			}
		}
	}
	return false
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any, []any, map[string]string:
		if b, err := json.Marshal(val); err == nil {
			return string(b)
		}
	}
	return fmt.Sprintf("%v", v)
}

// coerceScalar turns intent strings that are the canonical spelling of a
// number or boolean into that type. "007", "1e3" and "TRUE" stay strings so
// nothing is lost when the value is written back out.
func coerceScalar(s string) any {
	if i, err := strconv.Atoi(s); err == nil && strconv.Itoa(i) == s {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && strings.Contains(s, ".") &&
		strconv.FormatFloat(f, 'f', -1, 64) == s {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil && strconv.FormatBool(b) == s {
		return b
	}
	return s
}
