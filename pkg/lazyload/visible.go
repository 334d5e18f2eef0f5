package lazyload

import "lazyimg/pkg/html"

// IsElementVisible reports whether el is rendered and its top or bottom
// edge lies within [0, innerHeight] of the viewport.
//
// An element taller than the viewport whose edges are both off screen is
// not considered visible.
func IsElementVisible(h Host, el *html.Node) bool {
	if el == nil || h.OffsetParent(el) == nil {
		return false
	}
	r := h.BoundingClientRect(el)
	vh := h.InnerHeight()
	return (r.Top() >= 0 && r.Top() <= vh) ||
		(r.Bottom() >= 0 && r.Bottom() <= vh)
}
