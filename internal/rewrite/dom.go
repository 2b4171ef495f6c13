package rewrite

// Document is the page being rewritten.
type Document interface {
	// QueryAnchors returns the anchors matching selector in document order.
	// The returned slice must not grow when the document is later mutated.
	QueryAnchors(selector string) []Anchor
}

// Anchor is a mutable link element.
type Anchor interface {
	// RawHref is the href attribute exactly as written.
	RawHref() string
	// ResolvedHref is the href resolved against the page URL. Used for diagnostics only.
	ResolvedHref() string
	SetHref(href string)
	SetInnerHTML(html string)
	// RemoveEnclosingList detaches the nearest ancestor <ul>. It reports false if there is none.
	RemoveEnclosingList() bool
	// CloneListItem deep-copies the nearest ancestor <li>, appends the copy as the last
	// child of that item's parent list and returns the copied anchor.
	CloneListItem() (Anchor, bool)
}
