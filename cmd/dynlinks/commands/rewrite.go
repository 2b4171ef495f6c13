package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"git.home.luguber.info/inful/dynlinks/internal/foundation/errors"
	"git.home.luguber.info/inful/dynlinks/internal/items"
	"git.home.luguber.info/inful/dynlinks/internal/logfields"
	"git.home.luguber.info/inful/dynlinks/internal/pages"
	"git.home.luguber.info/inful/dynlinks/internal/rewrite"
)

// RewriteCmd implements the 'rewrite' command.
type RewriteCmd struct {
	Source string `arg:"" optional:"" help:"Sphinx HTML output directory (defaults to output.source)"`
	Output string `short:"o" help:"Destination directory (defaults to output.directory)"`
	Clean  bool   `help:"Remove the destination directory first"`
	DryRun bool   `name:"dry-run" help:"Rewrite in memory and report without writing"`
}

func (c *RewriteCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}

	src := firstNonEmpty(c.Source, cfg.Output.Source)
	dst := firstNonEmpty(c.Output, cfg.Output.Directory)
	if src == "" {
		return errors.ValidationError("no source directory given and output.source is not configured").Build()
	}
	if overlap, err := overlapping(src, dst); err != nil || overlap {
		return errors.ValidationError("source and destination must not contain one another").
			WithContext("source", src).WithContext("destination", dst).Build()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	source, stop, err := items.FromConfig(ctx, cfg.Items, nil)
	if err != nil {
		return err
	}
	defer stop()

	if (c.Clean || cfg.Output.Clean) && !c.DryRun {
		slog.Info("Cleaning output directory", logfields.Path(dst))
		if err := os.RemoveAll(dst); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to clean output directory").
				WithContext("path", dst).Build()
		}
	}

	processor := pages.NewProcessor(cfg.RewriteOptions, source, nil)
	report, err := processor.RewriteTree(ctx, src, dst, c.DryRun)
	if err != nil {
		return err
	}

	out := output(g)
	verb := "Rewrote"
	if c.DryRun {
		verb = "Would rewrite"
	}
	_, _ = fmt.Fprintf(out, "%s %d pages into %s (%d other files copied)\n", verb, report.Pages, dst, report.Copied)
	for _, o := range []rewrite.Outcome{rewrite.OutcomeRule, rewrite.OutcomeExpanded, rewrite.OutcomeRemoved, rewrite.OutcomeFallback, rewrite.OutcomeFragment} {
		_, _ = fmt.Fprintf(out, "  %-9s %d\n", o, report.Links[o])
	}
	_, _ = fmt.Fprintf(out, "  %-9s %d\n", "clones", report.Clones)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// overlapping reports whether a and b are the same directory or one contains the other.
func overlapping(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return pages.Nested(absA, absB) || pages.Nested(absB, absA), nil
}
