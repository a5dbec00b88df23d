package cli

import (
	"encoding/json"
	"os"
)

type PlanCmd struct {
	IntentFlags `embed:""`
	JSON        bool `help:"Print the plan as JSON." name:"json"`
}

func (p *PlanCmd) Run(g *Globals) error {
	in, err := p.Intent()
	if err != nil {
		return err
	}

	s, err := newSession(g, false)
	if err != nil {
		return err
	}
	defer s.Close()

	orch, err := s.orchestrator(nil)
	if err != nil {
		return err
	}
	plan, err := orch.Plan(in)
	if err != nil {
		return err
	}

	if p.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}
	PrintPlan(os.Stdout, plan)
	return nil
}
