// Package intent holds the recognized-intent value handed to the orchestrator
// by an external recognizer.
package intent

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Intent is a recognized user goal with extracted parameters.
type Intent struct {
	Type              string         `yaml:"type" json:"type"`
	Parameters        map[string]any `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	Confidence        float64        `yaml:"confidence" json:"confidence"`
	NeedsConfirmation bool           `yaml:"needs_confirmation,omitempty" json:"needs_confirmation,omitempty"`
	RawText           string         `yaml:"raw_text,omitempty" json:"raw_text,omitempty"`
}

// Validate checks the fields every intent must carry.
func (i Intent) Validate() error {
	if strings.TrimSpace(i.Type) == "" {
		return fmt.Errorf("intent is missing 'type'")
	}
	if i.Confidence < 0 || i.Confidence > 1 {
		return fmt.Errorf("intent confidence must be between 0 and 1, got %v", i.Confidence)
	}
	return nil
}

// Load reads an intent from a YAML or JSON file. JSON is chosen by extension.
func Load(path string) (Intent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Intent{}, fmt.Errorf("reading intent file %q: %w", path, err)
	}

	unmarshal := yaml.Unmarshal
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		unmarshal = json.Unmarshal
	}

	var in Intent
	if err := unmarshal(data, &in); err != nil {
		return Intent{}, fmt.Errorf("parsing intent file %q: %w", path, err)
	}
	// a zero confidence is legal, an absent one is a recognizer bug
	var present struct {
		Confidence *float64 `yaml:"confidence" json:"confidence"`
	}
	if err := unmarshal(data, &present); err != nil {
		return Intent{}, fmt.Errorf("parsing intent file %q: %w", path, err)
	}
	if present.Confidence == nil {
		return Intent{}, fmt.Errorf("invalid intent in %q: intent is missing 'confidence'", path)
	}
	if in.Parameters == nil {
		in.Parameters = map[string]any{}
	}
	if err := in.Validate(); err != nil {
		return Intent{}, fmt.Errorf("invalid intent in %q: %w", path, err)
	}
	return in, nil
}

// ParseParams turns "key=value" pairs into a parameter map. Later pairs win.
func ParseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q (expected key=value)", pair)
		}
		params[key] = value
	}
	return params, nil
}

// ParameterNames returns the intent's parameter keys in sorted order.
func (i Intent) ParameterNames() []string {
	names := make([]string, 0, len(i.Parameters))
	for k := range i.Parameters {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
