package layout

import (
	"lazyimg/pkg/css"
	"lazyimg/pkg/html"
)

// Rect is an axis-aligned rectangle. Y grows downwards.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func (r Rect) Top() float64    { return r.Y }
func (r Rect) Bottom() float64 { return r.Y + r.Height }
func (r Rect) Left() float64   { return r.X }
func (r Rect) Right() float64  { return r.X + r.Width }

// Translate returns r moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

type Box struct {
	Node     *html.Node
	Style    *css.Style
	X        float64 // content box origin
	Y        float64
	Width    float64 // Content width
	Height   float64 // Content height
	Margin   css.BoxEdge
	Padding  css.BoxEdge
	Border   css.BoxEdge
	Children []*Box
	Parent   *Box
	Position css.PositionType

	// Fixed is set for position:fixed boxes and their descendants, whose
	// coordinates are relative to the viewport rather than the document.
	Fixed bool
}

// BorderBox returns the box's border-box rectangle, the rectangle
// getBoundingClientRect reports.
func (b *Box) BorderBox() Rect {
	return Rect{
		X:      b.X - b.Padding.Left - b.Border.Left,
		Y:      b.Y - b.Padding.Top - b.Border.Top,
		Width:  b.Width + b.Padding.Horizontal() + b.Border.Horizontal(),
		Height: b.Height + b.Padding.Vertical() + b.Border.Vertical(),
	}
}

// MarginBox returns the border box grown by the margins.
func (b *Box) MarginBox() Rect {
	r := b.BorderBox()
	return Rect{
		X:      r.X - b.Margin.Left,
		Y:      r.Y - b.Margin.Top,
		Width:  r.Width + b.Margin.Horizontal(),
		Height: r.Height + b.Margin.Vertical(),
	}
}

// ImageSizer reports the natural size of an <img>'s current source, if known.
type ImageSizer func(img *html.Node) (width, height float64, ok bool)
