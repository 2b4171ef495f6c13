package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/dynlinks/cmd/dynlinks/commands"
	"git.home.luguber.info/inful/dynlinks/internal/foundation/errors"
	"git.home.luguber.info/inful/dynlinks/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("dynlinks"),
		kong.Description("Rewrite Sphinx navigation links to point into a dynamic web application."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	global := &commands.Global{Logger: slog.Default(), Out: os.Stdout}
	if err := parser.Run(global, cli); err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
