package adapter

import (
	"fmt"
	"strconv"
)

// StringParam returns params[key] rendered as a string, if present and non-empty.
func StringParam(params map[string]any, key string) (string, bool) {
	v, ok := params[key]
	if !ok || v == nil {
		return "", false
	}
	s, isStr := v.(string)
	if !isStr {
		s = fmt.Sprintf("%v", v)
	}
	return s, s != ""
}

// IntParam accepts ints, floats with no fraction and numeric strings.
func IntParam(params map[string]any, key string) (int, bool, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch n := v.(type) {
	case int:
		return n, true, nil
	case int64:
		return int(n), true, nil
	case float64:
		if n != float64(int(n)) {
			return 0, true, fmt.Errorf("parameter %q must be an integer, got %v", key, n)
		}
		return int(n), true, nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, true, fmt.Errorf("parameter %q must be an integer, got %q", key, n)
		}
		return i, true, nil
	default:
		return 0, true, fmt.Errorf("parameter %q must be an integer, got %T", key, v)
	}
}

// MapParam returns params[key] when it is a string-keyed map.
func MapParam(params map[string]any, key string) (map[string]any, bool) {
	v, ok := params[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}
