package core

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/arnavsurve/ideflow/pkg/types"
	"gopkg.in/yaml.v3"
)

var (
	headingRe   = regexp.MustCompile(`^(#{1,6})\s+(.*?)\s*#*\s*$`)
	listItemRe  = regexp.MustCompile(`^ {0,3}(\d+)[.)]\s*(.*)$`)
	markerRe    = regexp.MustCompile(`^\[([A-Za-z_]+)\]\s*(.*)$`)
	fenceOpenRe = regexp.MustCompile("^(\\s*)```\\s*([A-Za-z0-9_-]*)\\s*$")
)

// stepConfig is the fenced YAML block that may follow a step item.
type stepConfig struct {
	Operation       string                 `yaml:"operation,omitempty"`
	System          string                 `yaml:"system,omitempty"`
	Parameters      map[string]any         `yaml:"parameters,omitempty"`
	RetryCount      *int                   `yaml:"retry_count,omitempty"`
	RetryInterval   *float64               `yaml:"retry_interval,omitempty"`
	Condition       string                 `yaml:"condition,omitempty"`
	ContinueOnError bool                   `yaml:"continue_on_error,omitempty"`
	InputFrom       string                 `yaml:"input_from,omitempty"`
	OutputTo        string                 `yaml:"output_to,omitempty"`
	PostCheck       *types.PostCheckConfig `yaml:"post_check,omitempty"`
	Timeout         string                 `yaml:"timeout,omitempty"`
}

// LoadWorkflowFromFile reads and parses a step document from disk.
func LoadWorkflowFromFile(path string) (*WorkflowDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		msg := fmt.Sprintf("reading workflow file %q", path)
		if errors.Is(err, fs.ErrNotExist) {
			msg = fmt.Sprintf("workflow file %q does not exist", path)
		}
		return nil, &ParseError{Section: "file", Message: msg, Err: err}
	}

	doc, err := ParseDocument(string(data))
	if err != nil {
		return nil, err
	}
	if abs, absErr := filepath.Abs(path); absErr == nil {
		doc.SourcePath = abs
	} else {
		doc.SourcePath = path
	}
	return doc, nil
}

// ParseDocument converts document text into a WorkflowDocument.
func ParseDocument(text string) (*WorkflowDocument, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	doc := &WorkflowDocument{
		Variables: map[string]any{},
		Metadata:  map[string]any{},
	}

	bodyStart, err := parseFrontMatter(lines, doc)
	if err != nil {
		return nil, err
	}

	start, end := stepsSection(lines, bodyStart)
	steps, err := parseSteps(lines, start, end)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, &ParseError{Section: "steps", Message: "no ordered step list found"}
	}
	doc.Steps = steps
	return doc, nil
}

// parseFrontMatter decodes the leading "---" block and returns the index of
// the first body line.
func parseFrontMatter(lines []string, doc *WorkflowDocument) (int, error) {
	first := 0
	for first < len(lines) && strings.TrimSpace(lines[first]) == "" {
		first++
	}
	if first == len(lines) || strings.TrimSpace(lines[first]) != "---" {
		return 0, &ParseError{Section: "metadata", Message: "missing metadata block with required 'name'"}
	}

	closing := -1
	for i := first + 1; i < len(lines); i++ {
		if t := strings.TrimSpace(lines[i]); t == "---" || t == "..." {
			closing = i
			break
		}
	}
	if closing < 0 {
		return 0, &ParseError{Section: "metadata", Line: first + 1, Message: "metadata block is not terminated"}
	}

	raw := map[string]any{}
	block := strings.Join(lines[first+1:closing], "\n")
	if err := yaml.Unmarshal([]byte(block), &raw); err != nil {
		return 0, &ParseError{Section: "metadata", Line: first + 1, Message: "malformed metadata block", Err: err}
	}

	name, ok := raw["name"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return 0, &ParseError{Section: "metadata", Line: first + 1, Message: "'name' is required"}
	}
	doc.Name = strings.TrimSpace(name)
	delete(raw, "name")

	if d, present := raw["description"]; present {
		desc, isStr := d.(string)
		if !isStr {
			return 0, &ParseError{Section: "metadata", Line: first + 1, Message: "'description' must be a string"}
		}
		doc.Description = desc
		delete(raw, "description")
	}

	if v, present := raw["variables"]; present {
		vars, isMap := v.(map[string]any)
		if !isMap && v != nil {
			return 0, &ParseError{Section: "metadata", Line: first + 1, Message: "'variables' must be a mapping"}
		}
		for k, val := range vars {
			doc.Variables[k] = val
		}
		delete(raw, "variables")
	}

	for k, v := range raw {
		doc.Metadata[k] = v
	}
	return closing + 1, nil
}

// stepsSection returns the line range under a "Steps" heading, or the whole
// body when the document has no such heading.
func stepsSection(lines []string, bodyStart int) (int, int) {
	inFence := false
	for i := bodyStart; i < len(lines); i++ {
		if fenceOpenRe.MatchString(lines[i]) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		m := headingRe.FindStringSubmatch(lines[i])
		if m == nil || !strings.EqualFold(m[2], "steps") {
			continue
		}
		level := len(m[1])
		end := len(lines)
		nested := false
		for j := i + 1; j < len(lines); j++ {
			if fenceOpenRe.MatchString(lines[j]) {
				nested = !nested
				continue
			}
			if nested {
				continue
			}
			if h := headingRe.FindStringSubmatch(lines[j]); h != nil && len(h[1]) <= level {
				end = j
				break
			}
		}
		return i + 1, end
	}
	return bodyStart, len(lines)
}

func parseSteps(lines []string, start, end int) ([]types.Step, error) {
	var steps []types.Step

	for i := start; i < end; i++ {
		line := lines[i]

		if m := fenceOpenRe.FindStringSubmatch(line); m != nil {
			// A fenced block not attached to an item is prose; skip it whole.
			closeAt, err := findFenceEnd(lines, i, end)
			if err != nil {
				return nil, err
			}
			i = closeAt
			continue
		}

		m := listItemRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		itemLine := i + 1
		text := strings.TrimSpace(m[2])

		// Indented continuation lines belong to the item text.
		for i+1 < end && isContinuation(lines[i+1]) {
			i++
			text += " " + strings.TrimSpace(lines[i])
		}

		step, err := parseItem(text, itemLine)
		if err != nil {
			return nil, err
		}

		next := i + 1
		for next < end && strings.TrimSpace(lines[next]) == "" {
			next++
		}
		if next < end {
			if fm := fenceOpenRe.FindStringSubmatch(lines[next]); fm != nil {
				closeAt, err := findFenceEnd(lines, next, end)
				if err != nil {
					return nil, err
				}
				if err := applyConfigBlock(&step, fm, lines[next+1:closeAt], next+1); err != nil {
					return nil, err
				}
				i = closeAt
			}
		}

		steps = append(steps, step)
	}
	return steps, nil
}

func isContinuation(line string) bool {
	if strings.TrimSpace(line) == "" || fenceOpenRe.MatchString(line) || listItemRe.MatchString(line) {
		return false
	}
	return line[0] == ' ' || line[0] == '\t'
}

func findFenceEnd(lines []string, open, end int) (int, error) {
	for j := open + 1; j < end; j++ {
		if strings.TrimSpace(lines[j]) == "```" {
			return j, nil
		}
	}
	return 0, &ParseError{Section: "steps", Line: open + 1, Message: "fenced block is not terminated"}
}

func parseItem(text string, line int) (types.Step, error) {
	var cond types.Condition
	if m := markerRe.FindStringSubmatch(text); m != nil && strings.HasPrefix(m[1], "if_") {
		// Unknown markers are kept verbatim and rejected by validation.
		cond, _ = types.ParseCondition(m[1])
		text = strings.TrimSpace(m[2])
	}
	if text == "" {
		return types.Step{}, &ParseError{Section: "steps", Line: line, Message: "step item has no description"}
	}
	step := types.NewStep(text)
	step.Condition = cond
	return step, nil
}

func applyConfigBlock(step *types.Step, fence []string, body []string, line int) error {
	switch strings.ToLower(fence[2]) {
	case "", "yaml", "yml", "json":
	default:
		return &ParseError{Section: "steps", Line: line, Message: fmt.Sprintf("unsupported step configuration language %q", fence[2])}
	}

	indent := fence[1]
	dedented := make([]string, len(body))
	for k, l := range body {
		dedented[k] = strings.TrimPrefix(l, indent)
	}

	var cfg stepConfig
	dec := yaml.NewDecoder(bytes.NewReader([]byte(strings.Join(dedented, "\n"))))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return &ParseError{Section: "steps", Line: line, Message: fmt.Sprintf("malformed configuration for step %q", step.Description), Err: err}
	}

	step.Operation = cfg.Operation
	step.System = cfg.System
	for k, v := range cfg.Parameters {
		step.Parameters[k] = v
	}
	if cfg.RetryCount != nil {
		step.RetryCount = *cfg.RetryCount
	}
	if cfg.RetryInterval != nil {
		step.RetryInterval = *cfg.RetryInterval
	}
	if cfg.Condition != "" {
		cond, _ := types.ParseCondition(cfg.Condition)
		step.Condition = cond
	}
	step.ContinueOnError = cfg.ContinueOnError
	step.InputFrom = cfg.InputFrom
	step.OutputTo = cfg.OutputTo
	step.PostCheck = cfg.PostCheck
	step.Timeout = cfg.Timeout
	return nil
}
