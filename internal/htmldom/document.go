// Package htmldom adapts parsed HTML pages to the rewrite.Document interface.
package htmldom

import (
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/dynlinks/internal/foundation/errors"
	"git.home.luguber.info/inful/dynlinks/internal/logfields"
	"git.home.luguber.info/inful/dynlinks/internal/rewrite"
)

// Document is a parsed HTML page.
type Document struct {
	root *html.Node
	base *url.URL
}

// Parse reads an HTML page. pageURL resolves relative hrefs for diagnostics and may be empty.
func Parse(r io.Reader, pageURL string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRender, "failed to parse HTML").Build()
	}
	doc := &Document{root: root}
	if pageURL != "" {
		base, err := url.Parse(pageURL)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryValidation, "invalid page URL").
				WithContext("url", pageURL).Build()
		}
		doc.base = base
	}
	return doc, nil
}

// Render writes the page back out.
func (d *Document) Render(w io.Writer) error {
	if err := html.Render(w, d.root); err != nil {
		return errors.WrapError(err, errors.CategoryRender, "failed to render HTML").Build()
	}
	return nil
}

// ValidateSelector reports whether sel is a CSS selector the adapter can evaluate.
func ValidateSelector(sel string) error {
	if _, err := cascadia.Compile(sel); err != nil {
		return errors.WrapError(err, errors.CategoryValidation, "invalid selector").
			WithContext("selector", sel).Build()
	}
	return nil
}

// QueryAnchors implements rewrite.Document. Only <a> elements are returned.
func (d *Document) QueryAnchors(selector string) []rewrite.Anchor {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		slog.Warn("Skipping invalid selector", logfields.Selector(selector), logfields.Error(err))
		return nil
	}
	var out []rewrite.Anchor
	for _, n := range sel.MatchAll(d.root) {
		if n.DataAtom == atom.A {
			out = append(out, &Anchor{node: n, doc: d})
		}
	}
	return out
}

// Anchor is an <a> element of a Document.
type Anchor struct {
	node *html.Node
	doc  *Document
}

// RawHref implements rewrite.Anchor.
func (a *Anchor) RawHref() string {
	return attr(a.node, "href")
}

// ResolvedHref implements rewrite.Anchor.
func (a *Anchor) ResolvedHref() string {
	raw := a.RawHref()
	if a.doc.base == nil {
		return raw
	}
	u, err := a.doc.base.Parse(raw)
	if err != nil {
		return raw
	}
	return u.String()
}

// SetHref implements rewrite.Anchor.
func (a *Anchor) SetHref(href string) {
	setAttr(a.node, "href", href)
}

// SetInnerHTML replaces the anchor's children with the parsed fragment.
// Content that does not parse is inserted as text.
func (a *Anchor) SetInnerHTML(fragment string) {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), a.node)
	if err != nil {
		nodes = []*html.Node{{Type: html.TextNode, Data: fragment}}
	}
	for c := a.node.FirstChild; c != nil; {
		next := c.NextSibling
		a.node.RemoveChild(c)
		c = next
	}
	for _, n := range nodes {
		a.node.AppendChild(n)
	}
}

// RemoveEnclosingList implements rewrite.Anchor.
func (a *Anchor) RemoveEnclosingList() bool {
	ul := ancestor(a.node, atom.Ul)
	if ul == nil || ul.Parent == nil {
		return false
	}
	ul.Parent.RemoveChild(ul)
	return true
}

// CloneListItem implements rewrite.Anchor.
func (a *Anchor) CloneListItem() (rewrite.Anchor, bool) {
	li := ancestor(a.node, atom.Li)
	if li == nil || li.Parent == nil {
		return nil, false
	}
	path := childPath(li, a.node)
	clone := cloneNode(li)
	li.Parent.AppendChild(clone)

	n := clone
	for _, idx := range path {
		n = nthChild(n, idx)
		if n == nil {
			return nil, false
		}
	}
	return &Anchor{node: n, doc: a.doc}, true
}

func ancestor(n *html.Node, a atom.Atom) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.DataAtom == a {
			return p
		}
	}
	return nil
}

// childPath returns the child indexes leading from top down to n.
func childPath(top, n *html.Node) []int {
	var path []int
	for cur := n; cur != top && cur != nil; cur = cur.Parent {
		idx := 0
		for s := cur.PrevSibling; s != nil; s = s.PrevSibling {
			idx++
		}
		path = append([]int{idx}, path...)
	}
	return path
}

func nthChild(n *html.Node, idx int) *html.Node {
	c := n.FirstChild
	for i := 0; c != nil && i < idx; i++ {
		c = c.NextSibling
	}
	return c
}

func cloneNode(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(cloneNode(child))
	}
	return c
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key && a.Namespace == "" {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key && a.Namespace == "" {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
