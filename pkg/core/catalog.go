package core

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Operation is one entry of the operation catalog.
type Operation struct {
	Name               string   `yaml:"name"`
	System             string   `yaml:"system,omitempty"`
	Action             string   `yaml:"action,omitempty"`
	Aliases            []string `yaml:"aliases,omitempty"`
	RequiredParameters []string `yaml:"required_parameters,omitempty"`
	Description        string   `yaml:"description,omitempty"`
}

// ActionName is the adapter action the operation dispatches to.
func (o Operation) ActionName() string {
	if o.Action != "" {
		return o.Action
	}
	return o.Name
}

// Catalog is the read-only dictionary of known operations.
type Catalog interface {
	Lookup(name string) (Operation, bool)
	// Resolve finds the operation a free-text step description refers to.
	Resolve(description string) (Operation, bool)
}

type catalogFile struct {
	Operations []Operation `yaml:"operations"`
}

type OperationCatalog struct {
	ops     map[string]Operation
	aliases map[string]string
	names   []string
}

// NewCatalog indexes ops by name and alias. Names and aliases must be unique.
func NewCatalog(ops ...Operation) (*OperationCatalog, error) {
	c := &OperationCatalog{
		ops:     make(map[string]Operation, len(ops)),
		aliases: make(map[string]string),
	}
	for i, op := range ops {
		if op.Name == "" {
			return nil, fmt.Errorf("operation %d is missing 'name'", i)
		}
		if _, dup := c.ops[op.Name]; dup {
			return nil, fmt.Errorf("duplicate operation name: %q", op.Name)
		}
		c.ops[op.Name] = op
		c.names = append(c.names, op.Name)

		for _, alias := range append([]string{op.Name}, op.Aliases...) {
			norm := normalize(alias)
			if norm == "" {
				continue
			}
			if owner, dup := c.aliases[norm]; dup && owner != op.Name {
				return nil, fmt.Errorf("alias %q is used by both %q and %q", alias, owner, op.Name)
			}
			c.aliases[norm] = op.Name
		}
	}
	sort.Strings(c.names)
	return c, nil
}

// LoadCatalog reads an operation catalog from a YAML file.
func LoadCatalog(path string) (*OperationCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %q: %w", path, err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog YAML from %q: %w", path, err)
	}
	c, err := NewCatalog(f.Operations...)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog %q: %w", path, err)
	}
	return c, nil
}

func (c *OperationCatalog) Lookup(name string) (Operation, bool) {
	op, ok := c.ops[name]
	return op, ok
}

func (c *OperationCatalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Resolve matches the description against names and aliases: an exact match
// wins, otherwise the longest alias the description starts with.
func (c *OperationCatalog) Resolve(description string) (Operation, bool) {
	norm := normalize(description)
	if name, ok := c.aliases[norm]; ok {
		return c.ops[name], true
	}

	best := ""
	for alias := range c.aliases {
		if len(alias) <= len(best) {
			continue
		}
		if norm == alias || strings.HasPrefix(norm, alias+" ") {
			best = alias
		}
	}
	if best == "" {
		return Operation{}, false
	}
	return c.ops[c.aliases[best]], true
}

func normalize(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, "_", " "))
	return strings.Join(strings.Fields(s), " ")
}
