package security

import (
	"os"
	"sort"
	"strings"
)

const mask = "********"

type Redactor struct {
	Secrets []string
}

// NewRedactor masks every non-empty secret value. Longer secrets are replaced
// first so that overlapping values never leak a suffix.
func NewRedactor(secrets ...string) *Redactor {
	var values []string
	for _, s := range secrets {
		if s != "" {
			values = append(values, s)
		}
	}
	sort.SliceStable(values, func(i, j int) bool {
		return len(values[i]) > len(values[j])
	})
	return &Redactor{Secrets: values}
}

// SecretsFromEnv returns the current values of the named environment variables.
func SecretsFromEnv(names []string) []string {
	var values []string
	for _, name := range names {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			values = append(values, v)
		}
	}
	return values
}

func (r *Redactor) Redact(s string) string {
	if r == nil || len(r.Secrets) == 0 {
		return s
	}
	for _, secret := range r.Secrets {
		if secret == "" {
			continue
		}
		s = strings.ReplaceAll(s, secret, mask)
	}
	return s
}

// RedactValue walks decoded JSON values (strings, maps, slices) and masks secrets in place.
func (r *Redactor) RedactValue(v any) any {
	if r == nil || len(r.Secrets) == 0 {
		return v
	}
	switch typed := v.(type) {
	case string:
		return r.Redact(typed)
	case map[string]any:
		for k, vv := range typed {
			typed[k] = r.RedactValue(vv)
		}
		return typed
	case []any:
		for i, vv := range typed {
			typed[i] = r.RedactValue(vv)
		}
		return typed
	default:
		return v
	}
}
