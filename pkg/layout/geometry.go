package layout

import (
	"lazyimg/pkg/css"
	"lazyimg/pkg/html"
)

// Geometry is the result of a layout pass: one Box per rendered element.
type Geometry struct {
	boxes  map[*html.Node]*Box
	roots  []*Box
	height float64
}

// Box returns the layout box of n. Elements that are not rendered
// (display:none, or inside a display:none subtree) have none.
func (g *Geometry) Box(n *html.Node) (*Box, bool) {
	b, ok := g.boxes[n]
	return b, ok
}

// Rect returns n's border box in document coordinates. Fixed boxes are
// reported in viewport coordinates; see ClientRect.
func (g *Geometry) Rect(n *html.Node) (Rect, bool) {
	b, ok := g.boxes[n]
	if !ok {
		return Rect{}, false
	}
	return b.BorderBox(), true
}

// ClientRect returns n's border box relative to a viewport scrolled down
// by scrollY. Unrendered elements report the zero Rect, as
// getBoundingClientRect does.
func (g *Geometry) ClientRect(n *html.Node, scrollY float64) Rect {
	b, ok := g.boxes[n]
	if !ok {
		return Rect{}
	}
	r := b.BorderBox()
	if b.Fixed {
		return r
	}
	return r.Translate(0, -scrollY)
}

// OffsetParent follows the HTMLElement.offsetParent rules: nil when the
// element is not rendered, is position:fixed, or is <body>/<html>;
// otherwise the nearest positioned ancestor, or <body>. Documents without
// a <body> use their outermost element instead.
func (g *Geometry) OffsetParent(n *html.Node) *html.Node {
	b, ok := g.boxes[n]
	if !ok || b.Position == css.PositionFixed {
		return nil
	}
	if n.TagName == "body" || n.TagName == "html" {
		return nil
	}
	var top *Box
	for p := b.Parent; p != nil; p = p.Parent {
		if p.Position != css.PositionStatic || p.Node.TagName == "body" {
			return p.Node
		}
		switch p.Node.TagName {
		case "td", "th", "table":
			return p.Node
		}
		top = p
	}
	if top != nil {
		return top.Node
	}
	// A top-level element of a fragment is its own offset root.
	return n
}

// DocumentHeight is the height of the in-flow content.
func (g *Geometry) DocumentHeight() float64 {
	return g.height
}

// Boxes returns all boxes in document order.
func (g *Geometry) Boxes() []*Box {
	var out []*Box
	var walk func(*Box)
	walk = func(b *Box) {
		out = append(out, b)
		for _, c := range b.Children {
			walk(c)
		}
	}
	for _, r := range g.roots {
		walk(r)
	}
	return out
}
