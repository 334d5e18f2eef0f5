// Package paint rasterizes the visible part of a page with gg: block
// backgrounds, borders, text runs and loaded images. Images that have not
// loaded yet are drawn as placeholders, which makes lazy loading visible
// in snapshots.
package paint

import (
	"image"
	"image/color"
	"io"

	"github.com/fogleman/gg"

	"lazyimg/pkg/html"
	"lazyimg/pkg/layout"
	"lazyimg/pkg/page"
)

var (
	placeholderFill = color.RGBA{R: 230, G: 230, B: 230, A: 255}
	placeholderMark = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	highlightStroke = color.RGBA{R: 255, G: 140, B: 0, A: 255}
	textColor       = color.Black
)

type Renderer struct {
	context   *gg.Context
	highlight string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithHighlight outlines elements carrying class, e.g. the loading class.
func WithHighlight(class string) Option {
	return func(r *Renderer) {
		r.highlight = class
	}
}

func NewRenderer(width, height int, opts ...Option) *Renderer {
	r := &Renderer{context: gg.NewContext(width, height)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Snapshot paints p's viewport at its current scroll offset.
func Snapshot(p *page.Page, opts ...Option) image.Image {
	vp := p.Viewport()
	r := NewRenderer(int(vp.Width), int(vp.Height), opts...)
	r.Render(p)
	return r.Image()
}

// Render clears the canvas and paints every box that intersects the
// viewport.
func (r *Renderer) Render(p *page.Page) {
	dc := r.context
	dc.SetColor(color.White)
	dc.Clear()

	viewH := float64(dc.Height())
	for _, box := range p.Geometry().Boxes() {
		rect := p.BoundingClientRect(box.Node)
		if rect.Bottom() < 0 || rect.Top() > viewH {
			continue
		}
		r.drawBox(p, box, rect)
	}
}

func (r *Renderer) drawBox(p *page.Page, box *layout.Box, rect layout.Rect) {
	dc := r.context
	dy := rect.Y - box.BorderBox().Y

	if bg, ok := box.Style.Get("background-color"); ok {
		if c, ok := parseColor(bg); ok && c.A > 0 {
			dc.SetColor(c)
			dc.DrawRectangle(rect.X+box.Border.Left, rect.Y+box.Border.Top,
				rect.Width-box.Border.Horizontal(), rect.Height-box.Border.Vertical())
			dc.Fill()
		}
	}
	r.drawBorder(box, rect)

	if box.Node.TagName == "img" {
		r.drawImage(p, box, dy)
	}
	r.drawText(box, dy)

	if r.highlight != "" && box.Node.HasClass(r.highlight) {
		dc.SetColor(highlightStroke)
		dc.SetLineWidth(2)
		dc.SetDash(6, 4)
		dc.DrawRectangle(rect.X+1, rect.Y+1, rect.Width-2, rect.Height-2)
		dc.Stroke()
		dc.SetDash()
	}
}

func (r *Renderer) drawBorder(box *layout.Box, rect layout.Rect) {
	b := box.Border
	if b.Top <= 0 && b.Right <= 0 && b.Bottom <= 0 && b.Left <= 0 {
		return
	}
	c := color.RGBA{A: 255}
	for _, prop := range []string{"border-color", "color"} {
		if v, ok := box.Style.Get(prop); ok {
			if parsed, ok := parseColor(v); ok {
				c = parsed
				break
			}
		}
	}
	dc := r.context
	dc.SetColor(c)
	dc.DrawRectangle(rect.X, rect.Y, rect.Width, b.Top)
	dc.DrawRectangle(rect.X, rect.Bottom()-b.Bottom, rect.Width, b.Bottom)
	dc.DrawRectangle(rect.X, rect.Y, b.Left, rect.Height)
	dc.DrawRectangle(rect.Right()-b.Right, rect.Y, b.Right, rect.Height)
	dc.Fill()
}

// drawImage paints the decoded current source scaled to the content box,
// or a placeholder with a cross while the image is pending.
func (r *Renderer) drawImage(p *page.Page, box *layout.Box, dy float64) {
	dc := r.context
	x, y, w, h := box.X, box.Y+dy, box.Width, box.Height
	if w <= 0 || h <= 0 {
		return
	}

	img, ok := p.Images().Cached(p.CurrentSrc(box.Node))
	if !ok {
		dc.SetColor(placeholderFill)
		dc.DrawRectangle(x, y, w, h)
		dc.Fill()
		dc.SetColor(placeholderMark)
		dc.SetLineWidth(1)
		dc.DrawLine(x, y, x+w, y+h)
		dc.DrawLine(x+w, y, x, y+h)
		dc.Stroke()
		return
	}

	bounds := img.Bounds()
	dc.Push()
	dc.Translate(x, y)
	dc.Scale(w/float64(bounds.Dx()), h/float64(bounds.Dy()))
	dc.DrawImage(img, 0, 0)
	dc.Pop()
}

// drawText paints the element's own text runs with gg's built-in face,
// following the same line stacking the layout used.
func (r *Renderer) drawText(box *layout.Box, dy float64) {
	lineHeight := box.Style.GetLineHeight()
	cursor := box.Y + dy
	dc := r.context
	for _, child := range box.Node.Children {
		if child.Type != html.TextNode {
			if cb := childBox(box, child); cb != nil {
				cursor = cb.MarginBox().Bottom() + dy
			}
			continue
		}
		if child.Text == "" {
			continue
		}
		dc.SetColor(textColor)
		dc.DrawStringAnchored(child.Text, box.X, cursor+lineHeight/2, 0, 0.5)
		cursor += lineHeight
	}
}

func childBox(parent *layout.Box, n *html.Node) *layout.Box {
	for _, c := range parent.Children {
		if c.Node == n {
			return c
		}
	}
	return nil
}

// Image returns the canvas.
func (r *Renderer) Image() image.Image {
	return r.context.Image()
}

func (r *Renderer) SavePNG(filename string) error {
	return r.context.SavePNG(filename)
}

// EncodePNG writes the canvas to w.
func (r *Renderer) EncodePNG(w io.Writer) error {
	return r.context.EncodePNG(w)
}
