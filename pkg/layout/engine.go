package layout

import (
	"strconv"
	"strings"

	"lazyimg/pkg/css"
	"lazyimg/pkg/html"
)

type LayoutEngine struct {
	viewport struct {
		width  float64
		height float64
	}
	imageSizer ImageSizer
}

func NewLayoutEngine(viewportWidth, viewportHeight float64) *LayoutEngine {
	le := &LayoutEngine{}
	le.viewport.width = viewportWidth
	le.viewport.height = viewportHeight
	return le
}

// SetImageSizer sets the callback used to size images that have neither a
// CSS nor an attribute height.
func (le *LayoutEngine) SetImageSizer(sizer ImageSizer) {
	le.imageSizer = sizer
}

// Layout computes boxes for every rendered element of doc. styles is the
// output of css.ApplyStylesToDocument; elements missing from it get an
// empty style.
func (le *LayoutEngine) Layout(doc *html.Document, styles map[*html.Node]*css.Style) *Geometry {
	g := &Geometry{boxes: make(map[*html.Node]*Box)}
	cursor := 0.0
	for _, child := range doc.Root.Children {
		cursor = le.flow(g, nil, child, styles, 0, cursor, le.viewport.width, 18, false)
	}
	g.height = cursor
	return g
}

// flow lays out node at (x, y) inside a containing block of width avail and
// returns the y where the next in-flow sibling starts.
func (le *LayoutEngine) flow(g *Geometry, parent *Box, node *html.Node, styles map[*html.Node]*css.Style,
	x, y, avail, lineHeight float64, fixed bool) float64 {
	if node.Type == html.TextNode {
		if strings.TrimSpace(node.Text) == "" {
			return y
		}
		return y + lineHeight
	}

	style := styles[node]
	if style == nil {
		style = css.NewStyle()
	}
	if style.GetDisplay() == css.DisplayNone || hiddenByDefault(node) {
		return y
	}

	box := &Box{
		Node:     node,
		Style:    style,
		Parent:   parent,
		Margin:   style.GetMargin(),
		Padding:  style.GetPadding(),
		Border:   style.GetBorderWidth(),
		Position: style.GetPosition(),
		Fixed:    fixed,
	}
	if parent != nil {
		parent.Children = append(parent.Children, box)
	} else {
		g.roots = append(g.roots, box)
	}
	g.boxes[node] = box

	startY := y
	inFlow := true
	switch box.Position {
	case css.PositionFixed:
		// Viewport coordinates for the whole subtree.
		box.Fixed = true
		x, y, avail = 0, 0, le.viewport.width
		inFlow = false
	case css.PositionAbsolute:
		inFlow = false
	}
	if !inFlow {
		var originX, originY float64
		if box.Position == css.PositionAbsolute {
			if cb := containingBlock(parent); cb != nil {
				r := cb.BorderBox()
				originX, originY = r.X, r.Y
			}
		}
		off := offsets(style)
		if off.HasTop {
			y = originY + off.Top
		}
		if off.HasLeft {
			x = originX + off.Left
		}
	}

	box.X = x + box.Margin.Left + box.Border.Left + box.Padding.Left
	box.Y = y + box.Margin.Top + box.Border.Top + box.Padding.Top

	edges := box.Margin.Horizontal() + box.Border.Horizontal() + box.Padding.Horizontal()
	if w, ok := le.declaredSize(node, style, "width"); ok {
		box.Width = w
	} else {
		box.Width = avail - edges
		if box.Width < 0 {
			box.Width = 0
		}
	}

	childLineHeight := style.GetLineHeight()
	if _, ok := style.Get("line-height"); !ok {
		childLineHeight = lineHeight
	}

	cursor := box.Y
	for _, child := range node.Children {
		cursor = le.flow(g, box, child, styles, box.X, cursor, box.Width, childLineHeight, box.Fixed)
	}

	if h, ok := le.declaredSize(node, style, "height"); ok {
		box.Height = h
	} else if node.TagName == "img" {
		box.Height = le.naturalHeight(node, box.Width)
	} else {
		box.Height = cursor - box.Y
	}

	if !inFlow {
		return startY
	}
	return box.MarginBox().Bottom()
}

// containingBlock returns the nearest positioned ancestor box, or nil for
// the initial containing block.
func containingBlock(b *Box) *Box {
	for ; b != nil; b = b.Parent {
		if b.Position != css.PositionStatic {
			return b
		}
	}
	return nil
}

// declaredSize reads a pixel size from CSS, falling back to the HTML
// width/height attributes for images.
func (le *LayoutEngine) declaredSize(node *html.Node, style *css.Style, prop string) (float64, bool) {
	if v, ok := style.GetLength(prop); ok {
		return v, true
	}
	if node.TagName == "img" {
		if attr, ok := node.GetAttribute(prop); ok {
			if v, err := strconv.ParseFloat(strings.TrimSpace(attr), 64); err == nil {
				return v, true
			}
		}
	}
	return 0, false
}

// naturalHeight scales the image's intrinsic size to the laid out width.
func (le *LayoutEngine) naturalHeight(img *html.Node, width float64) float64 {
	if le.imageSizer == nil {
		return 0
	}
	w, h, ok := le.imageSizer(img)
	if !ok || w <= 0 {
		return 0
	}
	if width <= 0 || width >= w {
		return h
	}
	return h * width / w
}

type positionOffset struct {
	Top, Left       float64
	HasTop, HasLeft bool
}

func offsets(style *css.Style) positionOffset {
	var off positionOffset
	off.Top, off.HasTop = style.GetLength("top")
	off.Left, off.HasLeft = style.GetLength("left")
	return off
}

// hiddenByDefault mirrors the user agent stylesheet for metadata elements.
func hiddenByDefault(node *html.Node) bool {
	switch node.TagName {
	case "head", "title", "meta", "link", "base", "script", "style", "template", "noscript":
		return true
	}
	_, hidden := node.GetAttribute("hidden")
	return hidden
}
