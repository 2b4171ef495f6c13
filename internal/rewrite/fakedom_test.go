package rewrite

// fakeNode is a minimal element tree: just enough structure for list removal and cloning.
type fakeNode struct {
	tag      string
	href     string
	inner    string
	parent   *fakeNode
	children []*fakeNode
}

func (n *fakeNode) append(c *fakeNode) *fakeNode {
	c.parent = n
	n.children = append(n.children, c)
	return c
}

func (n *fakeNode) remove(c *fakeNode) {
	for i, x := range n.children {
		if x == c {
			n.children = append(n.children[:i], n.children[i+1:]...)
			c.parent = nil
			return
		}
	}
}

func (n *fakeNode) ancestor(tag string) *fakeNode {
	for p := n.parent; p != nil; p = p.parent {
		if p.tag == tag {
			return p
		}
	}
	return nil
}

func (n *fakeNode) clone() *fakeNode {
	c := &fakeNode{tag: n.tag, href: n.href, inner: n.inner}
	for _, child := range n.children {
		c.append(child.clone())
	}
	return c
}

func (n *fakeNode) find(tag string) *fakeNode {
	for _, c := range n.children {
		if c.tag == tag {
			return c
		}
		if f := c.find(tag); f != nil {
			return f
		}
	}
	return nil
}

// fakeDoc maps selector strings to anchor nodes registered at build time.
type fakeDoc struct {
	root        *fakeNode
	collections map[string][]*fakeNode
	base        string
}

func newFakeDoc() *fakeDoc {
	return &fakeDoc{root: &fakeNode{tag: "body"}, collections: map[string][]*fakeNode{}, base: "http://docs.local/"}
}

// addMenu appends <ul><li><a href=...>label</a></li>...</ul> and registers the anchors under selector.
func (d *fakeDoc) addMenu(selector string, hrefs ...string) *fakeNode {
	ul := d.root.append(&fakeNode{tag: "ul"})
	for _, h := range hrefs {
		li := ul.append(&fakeNode{tag: "li"})
		a := li.append(&fakeNode{tag: "a", href: h, inner: "label " + h})
		d.collections[selector] = append(d.collections[selector], a)
	}
	return ul
}

func (d *fakeDoc) attached(n *fakeNode) bool {
	for p := n; p != nil; p = p.parent {
		if p == d.root {
			return true
		}
	}
	return false
}

func (d *fakeDoc) QueryAnchors(selector string) []Anchor {
	var out []Anchor
	for _, n := range d.collections[selector] {
		out = append(out, &fakeAnchor{n: n, doc: d})
	}
	return out
}

type fakeAnchor struct {
	n   *fakeNode
	doc *fakeDoc
}

func (a *fakeAnchor) RawHref() string          { return a.n.href }
func (a *fakeAnchor) ResolvedHref() string     { return a.doc.base + a.n.href }
func (a *fakeAnchor) SetHref(href string)      { a.n.href = href }
func (a *fakeAnchor) SetInnerHTML(html string) { a.n.inner = html }

func (a *fakeAnchor) RemoveEnclosingList() bool {
	ul := a.n.ancestor("ul")
	if ul == nil || ul.parent == nil {
		return false
	}
	ul.parent.remove(ul)
	return true
}

func (a *fakeAnchor) CloneListItem() (Anchor, bool) {
	li := a.n.ancestor("li")
	if li == nil || li.parent == nil {
		return nil, false
	}
	c := li.parent.append(li.clone())
	anchor := c.find("a")
	if anchor == nil {
		return nil, false
	}
	return &fakeAnchor{n: anchor, doc: a.doc}, true
}

// listHrefs returns the hrefs of the anchors directly inside ul's items, in order.
func listHrefs(ul *fakeNode) []string {
	var out []string
	for _, li := range ul.children {
		if a := li.find("a"); a != nil {
			out = append(out, a.href)
		}
	}
	return out
}

func listLabels(ul *fakeNode) []string {
	var out []string
	for _, li := range ul.children {
		if a := li.find("a"); a != nil {
			out = append(out, a.inner)
		}
	}
	return out
}
