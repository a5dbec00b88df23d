package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/arnavsurve/ideflow/pkg/core"
)

type LintCmd struct {
	Document string `arg:"" help:"The markdown workflow document to check." type:"existingfile"`
	Format   bool   `help:"Print the document in normalized form once it passes."`
}

func (l *LintCmd) Run(g *Globals) error {
	s, err := newSession(g, false)
	if err != nil {
		return err
	}
	defer s.Close()

	s.logger.Info().Msgf("Validating %s", l.Document)

	doc, err := core.LoadWorkflowFromFile(l.Document)
	if err != nil {
		s.logger.Error().Err(err).Msgf("Failed to load workflow document %s", l.Document)
		return fmt.Errorf("loading workflow document %q: %w", l.Document, err)
	}

	registry, err := s.registry(filepath.Dir(doc.SourcePath))
	if err != nil {
		return err
	}
	catalog, err := s.catalog()
	if err != nil {
		return err
	}

	dispatcher := core.NewRegistryDispatcher(registry, catalog, s.cfg.DefaultSystem)
	if err := core.ValidateDocument(doc, catalog, dispatcher); err != nil {
		PrintValidation(os.Stdout, err)
		return fmt.Errorf("validating %q: %w", l.Document, err)
	}

	if l.Format {
		rendered, err := core.Render(doc)
		if err != nil {
			return fmt.Errorf("rendering %q: %w", l.Document, err)
		}
		fmt.Fprint(os.Stdout, rendered)
		return nil
	}

	s.logger.Info().Int("steps", len(doc.Steps)).Msg("Successfully validated workflow document ✅")
	return nil
}
