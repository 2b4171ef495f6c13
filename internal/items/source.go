// Package items supplies the substitution items that expand item-parameterized
// rewrite rules, keyed by Sphinx document name.
package items

import (
	"bytes"
	"context"
	"strings"

	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/dynlinks/internal/config"
	"git.home.luguber.info/inful/dynlinks/internal/rewrite"
)

// Source looks up the items of a document. ok is false when the source has no
// list for the document, which leaves parameterized rules unexpanded.
type Source interface {
	Items(ctx context.Context, document string) (items []rewrite.Item, ok bool, err error)
}

// Catalog is the on-disk and on-wire item format.
type Catalog struct {
	Documents map[string][]config.ItemEntry `yaml:"documents" json:"documents"`
}

// index converts catalog entries into rewrite items. Empty lists stay non-nil.
func (c Catalog) index() map[string][]rewrite.Item {
	out := make(map[string][]rewrite.Item, len(c.Documents))
	for doc, entries := range c.Documents {
		out[doc] = ToItems(entries)
	}
	return out
}

// ToItems converts entries, rendering markdown labels where no inner HTML is given.
func ToItems(entries []config.ItemEntry) []rewrite.Item {
	items := make([]rewrite.Item, 0, len(entries))
	for _, e := range entries {
		inner := e.InnerHTML
		if inner == "" && e.Label != "" {
			inner = RenderLabel(e.Label)
		}
		items = append(items, rewrite.Item{Value: e.Value, InnerHTML: inner})
	}
	return items
}

// RenderLabel renders a one-line markdown label to inline HTML.
func RenderLabel(md string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return md
	}
	out := strings.TrimSpace(buf.String())
	if strings.HasPrefix(out, "<p>") && strings.HasSuffix(out, "</p>") && strings.Count(out, "<p>") == 1 {
		out = strings.TrimSuffix(strings.TrimPrefix(out, "<p>"), "</p>")
	}
	return out
}

// StaticSource serves a fixed item map.
type StaticSource struct {
	documents map[string][]rewrite.Item
}

// NewStaticSource builds a source from inline configuration entries.
func NewStaticSource(documents map[string][]config.ItemEntry) *StaticSource {
	return &StaticSource{documents: Catalog{Documents: documents}.index()}
}

// Items implements Source.
func (s *StaticSource) Items(_ context.Context, document string) ([]rewrite.Item, bool, error) {
	items, ok := s.documents[document]
	return items, ok, nil
}

// ConfigSource serves the inline items of whichever configuration current returns,
// so hot-reloaded configuration takes effect without rebuilding the source.
type ConfigSource struct {
	current func() *config.Config
}

// NewConfigSource creates a source over the inline items of current().
func NewConfigSource(current func() *config.Config) *ConfigSource {
	return &ConfigSource{current: current}
}

// Items implements Source.
func (s *ConfigSource) Items(_ context.Context, document string) ([]rewrite.Item, bool, error) {
	cfg := s.current()
	if cfg == nil {
		return nil, false, nil
	}
	entries, ok := cfg.Items.Documents[document]
	if !ok {
		return nil, false, nil
	}
	return ToItems(entries), true, nil
}
