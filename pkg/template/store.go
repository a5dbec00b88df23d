package template

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store keeps templates in registration order. Match returns the first
// template declaring the requested intent type.
type Store struct {
	templates []*Template
	byName    map[string]*Template
}

func NewStore() *Store {
	return &Store{byName: make(map[string]*Template)}
}

// Register validates t and adds it. Template names must be unique.
func (s *Store) Register(t *Template) error {
	if t == nil {
		return fmt.Errorf("registering nil template")
	}
	if err := t.Validate(); err != nil {
		return err
	}
	if _, dup := s.byName[t.Name]; dup {
		return fmt.Errorf("duplicate template name: %q", t.Name)
	}
	s.templates = append(s.templates, t)
	s.byName[t.Name] = t
	return nil
}

func (s *Store) Get(name string) (*Template, bool) {
	t, ok := s.byName[name]
	return t, ok
}

func (s *Store) Match(intentType string) (*Template, bool) {
	for _, t := range s.templates {
		if t.Matches(intentType) {
			return t, true
		}
	}
	return nil, false
}

func (s *Store) List() []*Template {
	return append([]*Template(nil), s.templates...)
}

// LoadDir reads every YAML file under dir into a new store. A missing
// directory yields an empty store.
func LoadDir(dir string) (*Store, error) {
	store := NewStore()

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return store, nil
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !isYAMLFile(path) {
			return nil
		}

		t, err := parseTemplateFile(path)
		if err != nil {
			return fmt.Errorf("failed to parse template file %s: %w", path, err)
		}
		if err := store.Register(t); err != nil {
			return fmt.Errorf("template file %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read templates directory: %w", err)
	}
	return store, nil
}

func parseTemplateFile(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &t, nil
}

func isYAMLFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".yaml" || ext == ".yml"
}
