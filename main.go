package main

import (
	"github.com/alecthomas/kong"
	"github.com/arnavsurve/ideflow/cmd/cli"
)

var CLI struct {
	cli.Globals

	Run         cli.RunCmd         `cmd:"" help:"Run a markdown workflow document."`
	Lint        cli.LintCmd        `cmd:"" help:"Validate a workflow document without running it."`
	Orchestrate cli.OrchestrateCmd `cmd:"" help:"Run the template matching a recognized intent."`
	Plan        cli.PlanCmd        `cmd:"" help:"Show the steps an intent would run."`
	Version     cli.VersionCmd     `cmd:"" help:"Print version information."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("ideflow"),
		kong.Description("Run markdown workflows and recognized intents against the registered system adapters."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&CLI.Globals)
	ctx.FatalIfErrorf(err)
}
