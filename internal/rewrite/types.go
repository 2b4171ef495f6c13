package rewrite

import "log/slog"

// DefaultItemPattern is the placeholder token searched for in replacement URLs.
const DefaultItemPattern = "<idx>"

// Default menu-link collections, visited in this order.
const (
	SelectorTOCTree      = "div.toctree-wrapper ul li a"
	SelectorMenuVertical = "div.wy-menu-vertical ul li a"
)

// DefaultSelectors returns the menu-link collections rewritten when Options.Selectors is empty.
func DefaultSelectors() []string {
	return []string{SelectorTOCTree, SelectorMenuVertical}
}

// Rule maps a href substring to a replacement URL.
type Rule struct {
	SearchPattern  string `yaml:"search_pattern" json:"search_pattern"`
	ReplacementURL string `yaml:"replacement_url" json:"replacement_url"`
	// ReplacementText, when set, replaces the label of a plain (non-expanded) match.
	ReplacementText string `yaml:"replacement_text,omitempty" json:"replacement_text,omitempty"`
}

// Item is one instantiation of an item-parameterized rule.
type Item struct {
	Value     string `yaml:"value" json:"value"`
	InnerHTML string `yaml:"inner_html,omitempty" json:"innerHTML,omitempty"`
}

// Options configures a single rewrite pass over one page.
type Options struct {
	// DocumentName qualifies same-page fragment links ("#x" becomes DocumentName+"#x").
	DocumentName string
	Rules        []Rule
	DocsBase     string
	// DynBase is informational: the pass never reads it. It travels with the
	// options for diagnostics and names the prefix dynamic pages are served under.
	DynBase   string
	IsDynamic bool
	// Items nil means no item list was supplied; parameterized rules then apply
	// as plain replacements. A non-nil empty slice removes parameterized menus.
	Items       []Item
	ItemPattern string
	// ReplaceInnerHTML defaults to true when nil.
	ReplaceInnerHTML *bool
	Selectors        []string
	Logger           *slog.Logger
}

func (o *Options) itemPattern() string {
	if o.ItemPattern == "" {
		return DefaultItemPattern
	}
	return o.ItemPattern
}

func (o *Options) replaceInnerHTML() bool {
	return o.ReplaceInnerHTML == nil || *o.ReplaceInnerHTML
}

func (o *Options) selectors() []string {
	if len(o.Selectors) == 0 {
		return DefaultSelectors()
	}
	return o.Selectors
}

func (o *Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Outcome classifies what happened to a visited link.
type Outcome string

const (
	OutcomeRule     Outcome = "rule"     // replaced by a plain rule
	OutcomeExpanded Outcome = "expanded" // expanded over the item list
	OutcomeRemoved  Outcome = "removed"  // enclosing list removed (empty item list)
	OutcomeFallback Outcome = "fallback" // re-based onto DocsBase
	OutcomeFragment Outcome = "fragment" // same-page anchor left as is
)

// LinkChange records the rewrite of one visited anchor.
type LinkChange struct {
	Selector string
	Original string
	Resolved string
	Final    string
	Rule     string
	Outcome  Outcome
	// Clones is the number of list items appended for an expanded link.
	Clones int
}

// Result summarizes one pass.
type Result struct {
	Changes []LinkChange
}

// Count returns the number of visited links with the given outcome.
func (r Result) Count(outcome Outcome) int {
	n := 0
	for _, c := range r.Changes {
		if c.Outcome == outcome {
			n++
		}
	}
	return n
}

// Clones returns the total number of list items appended during the pass.
func (r Result) Clones() int {
	n := 0
	for _, c := range r.Changes {
		n += c.Clones
	}
	return n
}
