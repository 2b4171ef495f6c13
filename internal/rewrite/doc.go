// Package rewrite retargets navigation links of rendered Sphinx pages.
//
// ApplyDynamicLinks walks the anchors of the table-of-contents block and the
// vertical navigation menu, and rewrites each href according to an ordered rule
// set. Rules whose replacement URL carries the item placeholder (default
// "<idx>") are expanded into one menu entry per substitution item. Links that
// match no rule are re-based onto the static documentation tree.
//
// The package never touches HTML directly. It mutates pages through the
// Document and Anchor interfaces, which internal/htmldom implements over
// golang.org/x/net/html.
package rewrite
