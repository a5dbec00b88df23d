package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/arnavsurve/ideflow/pkg/core"
	"github.com/arnavsurve/ideflow/pkg/intent"
	"github.com/arnavsurve/ideflow/pkg/orchestrator"
	"github.com/arnavsurve/ideflow/pkg/template"
)

// IntentFlags select the intent either from a file or from --type/--param.
type IntentFlags struct {
	IntentFile string   `help:"YAML or JSON file holding the recognized intent." type:"existingfile" xor:"source"`
	Type       string   `help:"Intent type, when no intent file is given." xor:"source"`
	Param      []string `help:"Intent parameter as key=value. Repeatable; overrides the intent file." short:"p"`
	Confidence float64  `help:"Confidence reported for an intent given with --type." default:"1.0"`
}

// Intent builds the intent the flags describe.
func (f IntentFlags) Intent() (intent.Intent, error) {
	params, err := intent.ParseParams(f.Param)
	if err != nil {
		return intent.Intent{}, err
	}

	var in intent.Intent
	switch {
	case f.IntentFile != "":
		if in, err = intent.Load(f.IntentFile); err != nil {
			return intent.Intent{}, err
		}
		for k, v := range params {
			in.Parameters[k] = v
		}
	case f.Type != "":
		in = intent.Intent{Type: f.Type, Parameters: params, Confidence: f.Confidence}
	default:
		return intent.Intent{}, fmt.Errorf("either --intent-file or --type is required")
	}
	return in, in.Validate()
}

type OrchestrateCmd struct {
	IntentFlags `embed:""`
	Yes         bool `help:"Run without asking for confirmation." short:"y"`
}

func (o *OrchestrateCmd) Run(g *Globals) error {
	in, err := o.Intent()
	if err != nil {
		return err
	}

	s, err := newSession(g, true)
	if err != nil {
		return err
	}
	defer s.Close()

	orch, err := s.orchestrator(o.confirmer())
	if err != nil {
		return err
	}

	ctx, stop := interruptContext()
	defer stop()

	execCtx := core.NewExecutionContext()
	execCtx.RunID = s.runID

	result, err := orch.Orchestrate(ctx, in, execCtx)
	if err != nil {
		s.logger.Error().Err(err).Str("intent", in.Type).Msg("Orchestration rejected")
		return err
	}

	PrintReport(os.Stdout, result, execCtx.Summary())
	return result.Err()
}

func (o *OrchestrateCmd) confirmer() orchestrator.Confirmer {
	if o.Yes {
		return orchestrator.ConfirmFunc(func(context.Context, intent.Intent, *orchestrator.Plan) (bool, error) {
			return true, nil
		})
	}
	return NewPromptConfirmer(os.Stdin, os.Stdout)
}

// orchestrator wires the template store, adapters and engine. Relative
// paths in template parameters resolve against the working directory.
func (s *session) orchestrator(confirmer orchestrator.Confirmer) (*orchestrator.Orchestrator, error) {
	store, err := template.LoadDir(s.cfg.TemplatesDir)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Int("templates", len(store.List())).Msgf("Loaded templates from %q", s.cfg.TemplatesDir)

	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("determining working directory: %w", err)
	}
	registry, err := s.registry(workDir)
	if err != nil {
		return nil, err
	}

	opts := []orchestrator.Option{orchestrator.WithConfidenceThreshold(s.cfg.Intent.ConfidenceThreshold)}
	if confirmer != nil {
		opts = append(opts, orchestrator.WithConfirmer(confirmer))
	}
	return orchestrator.New(store, registry, core.NewWorkflowEngine(s.logger), s.logger, opts...), nil
}

// PromptConfirmer shows the plan and reads a yes/no answer.
type PromptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{in: bufio.NewReader(in), out: out}
}

func (p *PromptConfirmer) Confirm(_ context.Context, in intent.Intent, plan *orchestrator.Plan) (bool, error) {
	PrintPlan(p.out, plan)
	if in.RawText != "" {
		dimColor.Fprintf(p.out, "  from: %q\n", in.RawText)
	}
	fmt.Fprint(p.out, "Proceed? [y/N] ")

	answer, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
