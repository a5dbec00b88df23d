package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/arnavsurve/ideflow/pkg/core"
	"github.com/arnavsurve/ideflow/pkg/types"
)

type RunCmd struct {
	Document string `arg:"" help:"The markdown workflow document to run." type:"existingfile"`
	Varfile  string `help:"YAML varfile whose values override the document variables." default:"ideflow.vars.yml"`
	Validate bool   `help:"Validate the document without running any step."`
}

func (r *RunCmd) Run(g *Globals) error {
	s, err := newSession(g, !r.Validate)
	if err != nil {
		return err
	}
	defer s.Close()

	doc, err := core.LoadWorkflowFromFile(r.Document)
	if err != nil {
		s.logger.Error().Err(err).Msgf("Failed to load workflow document %s", r.Document)
		return fmt.Errorf("loading workflow document %q: %w", r.Document, err)
	}
	s.logger.Info().Int("steps", len(doc.Steps)).Msgf("Successfully loaded workflow: %q", doc.Name)

	vars := loadVarfile(r.Varfile, s.logger)

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
		return fmt.Errorf("validating %q: %w", r.Document, err)
	}
	s.logger.Info().Msg("Workflow validation passed")
	if r.Validate {
		okColor.Fprintf(os.Stdout, "✔ %s is valid (%d steps)\n", r.Document, len(doc.Steps))
		return nil
	}

	ctx, stop := interruptContext()
	defer stop()

	execCtx := core.NewExecutionContext()
	execCtx.RunID = s.runID

	engine := core.NewWorkflowEngine(s.logger)
	result, err := engine.ExecuteWorkflow(ctx, doc, dispatcher, execCtx, core.Bindings{Vars: vars})
	if err != nil {
		return err
	}

	PrintReport(os.Stdout, result, execCtx.Summary())
	if s.logFile != "" {
		s.logger.Info().Msgf("Logs can be found at %q", s.logFile)
	}
	return result.Err()
}

// loadVarfile returns an empty map when the varfile is absent or unreadable.
func loadVarfile(path string, logger types.Logger) map[string]any {
	if path == "" {
		return map[string]any{}
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Debug().Msgf("Varfile %s not found. Proceeding with document variables only", path)
		return map[string]any{}
	}
	vars, err := core.ResolveVarfile(path, logger)
	if err != nil {
		logger.Warn().Err(err).Msgf("Could not resolve varfile %q. Proceeding with document variables only", path)
		return map[string]any{}
	}
	logger.Info().Int("vars", len(vars)).Msgf("Successfully loaded and resolved varfile: %s", path)
	return vars
}
