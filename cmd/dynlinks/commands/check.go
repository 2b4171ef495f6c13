package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"git.home.luguber.info/inful/dynlinks/internal/config"
	"git.home.luguber.info/inful/dynlinks/internal/foundation/errors"
	"git.home.luguber.info/inful/dynlinks/internal/items"
	"git.home.luguber.info/inful/dynlinks/internal/pages"
	"git.home.luguber.info/inful/dynlinks/internal/rewrite"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Page     string `arg:"" optional:"" help:"HTML page to trace, relative to --base or absolute"`
	Base     string `help:"Directory the page's document name is derived from (defaults to output.source)"`
	Document string `help:"Override the derived document name"`
	Dynamic  bool   `help:"Trace as served dynamically rather than rewritten statically"`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	out := output(g)
	printSummary(out, root.Config, cfg)
	if c.Page == "" {
		return nil
	}

	path, document, err := c.resolvePage(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	source, stop, err := items.FromConfig(ctx, cfg.Items, nil)
	if err != nil {
		return err
	}
	defer stop()

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to open page").
			WithContext("path", path).Build()
	}
	defer func() { _ = f.Close() }()

	res, err := pages.NewProcessor(cfg.RewriteOptions, source, nil).
		ProcessPage(ctx, f, io.Discard, pages.Page{Document: document, Dynamic: c.Dynamic})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "\nDocument %s (%d links, %d clones)\n", document, len(res.Changes), res.Clones())
	printChanges(out, res)
	return nil
}

func (c *CheckCmd) resolvePage(cfg *config.Config) (string, string, error) {
	base := firstNonEmpty(c.Base, cfg.Output.Source)
	path := c.Page
	if !filepath.IsAbs(path) && base != "" {
		if _, err := os.Stat(path); err != nil {
			path = filepath.Join(base, path)
		}
	}
	if c.Document != "" {
		return path, c.Document, nil
	}
	rel := path
	if base != "" {
		if r, err := filepath.Rel(base, path); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		}
	}
	return path, pages.DocumentName(filepath.ToSlash(rel)), nil
}

func printSummary(out io.Writer, path string, cfg *config.Config) {
	_, _ = fmt.Fprintf(out, "Configuration %s is valid\n", path)
	_, _ = fmt.Fprintf(out, "  docs_base:    %s\n", cfg.DocsBase)
	_, _ = fmt.Fprintf(out, "  dyn_base:     %s\n", cfg.DynBase)
	_, _ = fmt.Fprintf(out, "  item_pattern: %s\n", cfg.ItemPattern)
	_, _ = fmt.Fprintf(out, "  items:        %s\n", cfg.Items.Source)
	_, _ = fmt.Fprintf(out, "  selectors:    %d\n", len(cfg.Selectors))
	_, _ = fmt.Fprintf(out, "  rules:        %d\n", len(cfg.Rules))
	for i, r := range cfg.Rules {
		_, _ = fmt.Fprintf(out, "    %d. %s -> %s\n", i+1, r.SearchPattern, r.ReplacementURL)
	}
}

func printChanges(out io.Writer, res rewrite.Result) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "OUTCOME\tORIGINAL\tFINAL\tRULE\tCLONES")
	for _, ch := range res.Changes {
		final := ch.Final
		if ch.Outcome == rewrite.OutcomeRemoved {
			final = "(list removed)"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", ch.Outcome, ch.Original, final, ch.Rule, ch.Clones)
	}
	_ = tw.Flush()
}
