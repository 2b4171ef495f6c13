// Package pages runs the link rewriter over rendered documentation pages.
package pages

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"git.home.luguber.info/inful/dynlinks/internal/htmldom"
	"git.home.luguber.info/inful/dynlinks/internal/items"
	"git.home.luguber.info/inful/dynlinks/internal/logfields"
	"git.home.luguber.info/inful/dynlinks/internal/metrics"
	"git.home.luguber.info/inful/dynlinks/internal/observability"
	"git.home.luguber.info/inful/dynlinks/internal/rewrite"
)

// DocumentName returns the Sphinx document name for a page path relative to the
// documentation root, e.g. "raspi/index.html" becomes "raspi/index".
func DocumentName(relPath string) string {
	p := strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(relPath, "\\", "/")), "/")
	return strings.TrimSuffix(p, ".html")
}

// Processor rewrites single pages.
type Processor struct {
	options  func() rewrite.Options
	source   items.Source
	recorder metrics.Recorder
}

// NewProcessor creates a processor. options is called once per page, so it may
// return settings that change between pages (e.g. after a config reload).
func NewProcessor(options func() rewrite.Options, source items.Source, recorder metrics.Recorder) *Processor {
	if source == nil {
		source = items.NewStaticSource(nil)
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Processor{options: options, source: source, recorder: recorder}
}

// Page identifies the page being processed.
type Page struct {
	Document string
	URL      string // Absolute page URL used to resolve hrefs in diagnostics; may be empty
	Dynamic  bool
}

// ProcessPage parses r, rewrites its menu links once and renders the result to w.
// An item source failure is logged and the page is rewritten without items.
func (p *Processor) ProcessPage(ctx context.Context, r io.Reader, w io.Writer, page Page) (rewrite.Result, error) {
	start := time.Now()
	mode := metrics.ModeStatic
	if page.Dynamic {
		mode = metrics.ModeDynamic
	}

	ctx = observability.WithMode(observability.WithDocument(ctx, page.Document), string(mode))
	res, err := p.process(ctx, r, w, page)
	p.recorder.ObservePageRewrite(mode, time.Since(start), err == nil)
	if err != nil {
		return res, err
	}
	for _, outcome := range []rewrite.Outcome{rewrite.OutcomeRule, rewrite.OutcomeExpanded, rewrite.OutcomeRemoved, rewrite.OutcomeFallback, rewrite.OutcomeFragment} {
		p.recorder.AddLinkOutcome(string(outcome), res.Count(outcome))
	}
	p.recorder.AddClones(res.Clones())

	observability.DebugContext(ctx, "Rewrote page",
		logfields.Count(len(res.Changes)),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return res, nil
}

func (p *Processor) process(ctx context.Context, r io.Reader, w io.Writer, page Page) (rewrite.Result, error) {
	doc, err := htmldom.Parse(r, page.URL)
	if err != nil {
		return rewrite.Result{}, err
	}

	opts := p.options()
	opts.DocumentName = page.Document
	opts.IsDynamic = page.Dynamic
	opts.Items = nil
	// The rewriter attaches the document itself.
	opts.Logger = observability.Logger(observability.WithDocument(ctx, ""))
	list, ok, err := p.source.Items(ctx, page.Document)
	if err != nil {
		observability.WarnContext(ctx, "Item lookup failed; rewriting without items", logfields.Error(err))
	} else if ok {
		opts.Items = list
	}

	res := rewrite.ApplyDynamicLinks(doc, opts)
	if err := doc.Render(w); err != nil {
		return res, err
	}
	return res, nil
}
