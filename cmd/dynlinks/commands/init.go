package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/dynlinks/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force  bool   `help:"Overwrite existing configuration file"`
	Output string `short:"o" name:"output" help:"Output directory for generated config file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	// If the user specified an output directory, place the config there as "dynlinks.yaml".
	path := root.Config
	if i.Output != "" {
		path = filepath.Join(i.Output, "dynlinks.yaml")
	}
	out := output(g)
	_, _ = fmt.Fprintf(out, "Writing configuration to %s\n", path)
	if err := config.Init(path, i.Force); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, "initialized successfully")
	return nil
}
