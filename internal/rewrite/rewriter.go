package rewrite

import (
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/dynlinks/internal/logfields"
)

// ApplyDynamicLinks rewrites the menu links of doc in place and reports what it did.
//
// Collections are visited in selector order and anchors in document order. Each
// collection is snapshotted before it is mutated, so list items appended while
// expanding an item-parameterized rule are never revisited. The pass never fails:
// anything it cannot rewrite is left as it was.
//
// When a rule expands over items, every clone is copied from the list item as it
// was before the first item touched it, and clones are appended after the existing
// siblings in item order. An item without inner HTML therefore keeps the page's
// original label, never the label of the item before it.
//
// Calling it twice on the same document expands item lists twice.
func ApplyDynamicLinks(doc Document, opts Options) Result {
	var res Result
	for _, sel := range opts.selectors() {
		for _, a := range doc.QueryAnchors(sel) {
			change := rewriteAnchor(a, &opts)
			change.Selector = sel
			res.Changes = append(res.Changes, change)
			opts.logger().Debug("Rewrote menu link",
				logfields.Document(opts.DocumentName),
				logfields.Selector(sel),
				logfields.OriginalHref(change.Original),
				logfields.ResolvedHref(change.Resolved),
				logfields.Href(change.Final),
				slog.String("outcome", string(change.Outcome)))
		}
	}
	return res
}

func rewriteAnchor(a Anchor, opts *Options) LinkChange {
	raw := a.RawHref()
	change := LinkChange{Original: raw, Resolved: a.ResolvedHref(), Final: raw}

	qualified := raw
	sameDocument := strings.HasPrefix(raw, "#")
	if sameDocument {
		qualified = opts.DocumentName + raw
	}
	fragment := fragmentOf(qualified)

	rule, ok := matchRule(opts.Rules, qualified)
	if !ok {
		if sameDocument {
			change.Outcome = OutcomeFragment
			return change
		}
		change.Final = fallbackHref(raw, opts.DocsBase, opts.IsDynamic)
		change.Outcome = OutcomeFallback
		a.SetHref(change.Final)
		return change
	}
	change.Rule = rule.SearchPattern

	pattern := opts.itemPattern()
	if opts.Items == nil || !strings.Contains(rule.ReplacementURL, pattern) {
		change.Final = rule.ReplacementURL + fragment
		change.Outcome = OutcomeRule
		a.SetHref(change.Final)
		if rule.ReplacementText != "" {
			a.SetInnerHTML(rule.ReplacementText)
		}
		return change
	}

	if len(opts.Items) == 0 {
		a.RemoveEnclosingList()
		change.Final = ""
		change.Outcome = OutcomeRemoved
		return change
	}

	replaceLabel := opts.replaceInnerHTML() && strings.HasSuffix(rule.ReplacementURL, pattern)
	apply := func(target Anchor, item Item) string {
		href := substituteItem(rule.ReplacementURL, pattern, item.Value) + fragment
		target.SetHref(href)
		if replaceLabel && item.InnerHTML != "" {
			target.SetInnerHTML(item.InnerHTML)
		}
		return href
	}

	// Clones are taken before the original is mutated so none inherits the first item's label.
	for _, item := range opts.Items[1:] {
		clone, ok := a.CloneListItem()
		if !ok {
			break
		}
		apply(clone, item)
		change.Clones++
	}
	change.Final = apply(a, opts.Items[0])
	change.Outcome = OutcomeExpanded
	return change
}

// matchRule returns the first rule whose search pattern occurs in href.
func matchRule(rules []Rule, href string) (Rule, bool) {
	for _, r := range rules {
		if r.SearchPattern == "" {
			continue
		}
		if strings.Contains(href, r.SearchPattern) {
			return r, true
		}
	}
	return Rule{}, false
}

// fragmentOf returns the "#..." suffix of href, or "".
func fragmentOf(href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		return href[i:]
	}
	return ""
}

// fallbackHref re-bases an unmatched link onto docsBase. Pages served dynamically
// live below the static tree, so their leading "../" segments are dropped first.
func fallbackHref(raw, docsBase string, dynamic bool) string {
	rest := raw
	if dynamic {
		for strings.HasPrefix(rest, "../") {
			rest = rest[len("../"):]
		}
	}
	return strings.TrimRight(docsBase, "/") + "/" + strings.TrimPrefix(rest, "/")
}

// substituteItem fills every occurrence of pattern in template with value.
func substituteItem(template, pattern, value string) string {
	return strings.ReplaceAll(template, pattern, value)
}
