package layout

import (
	"testing"

	"lazyimg/pkg/css"
	"lazyimg/pkg/html"
)

func layoutHTML(t *testing.T, src string, sizer ImageSizer) (*html.Document, *Geometry) {
	t.Helper()
	doc, err := html.Parse(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	le := NewLayoutEngine(800, 600)
	le.SetImageSizer(sizer)
	return doc, le.Layout(doc, css.ApplyStylesToDocument(doc))
}

func byID(t *testing.T, doc *html.Document, id string) *html.Node {
	t.Helper()
	n := html.ElementByID(doc.Root, id)
	if n == nil {
		t.Fatalf("no element #%s", id)
	}
	return n
}

func TestBlockStacking(t *testing.T) {
	doc, g := layoutHTML(t, `<body>
		<div id="a" style="height: 400px"></div>
		<div id="b" style="height: 100px; margin-top: 10px; padding: 5px"></div>
		<img id="c" height="50">
	</body>`, nil)

	a, _ := g.Rect(byID(t, doc, "a"))
	if a.Top() != 0 || a.Bottom() != 400 {
		t.Errorf("a = %+v", a)
	}
	b, _ := g.Rect(byID(t, doc, "b"))
	if b.Top() != 410 || b.Height != 110 {
		t.Errorf("b = %+v, want top 410 height 110", b)
	}
	c, _ := g.Rect(byID(t, doc, "c"))
	if c.Top() != 520 || c.Bottom() != 570 {
		t.Errorf("c = %+v, want 520..570", c)
	}
	if g.DocumentHeight() != 570 {
		t.Errorf("DocumentHeight = %v, want 570", g.DocumentHeight())
	}
}

func TestTextLinesUseLineHeight(t *testing.T) {
	doc, g := layoutHTML(t, `<body><p id="p" style="line-height: 20px">one <em>two</em></p><div id="d"></div></body>`, nil)
	p, _ := g.Rect(byID(t, doc, "p"))
	if p.Height != 40 {
		t.Errorf("p height = %v, want 40 (two text runs)", p.Height)
	}
	d, _ := g.Rect(byID(t, doc, "d"))
	if d.Top() != 40 {
		t.Errorf("d top = %v, want 40", d.Top())
	}
}

func TestDisplayNoneHasNoBoxOrOffsetParent(t *testing.T) {
	doc, g := layoutHTML(t, `<style>.tab { display: none }</style>
		<body><div class="tab"><img id="hidden" height="10"></div><a><img id="shown" height="10"></a></body>`, nil)

	hidden := byID(t, doc, "hidden")
	if _, ok := g.Box(hidden); ok {
		t.Error("image inside display:none should have no box")
	}
	if g.OffsetParent(hidden) != nil {
		t.Error("offsetParent of hidden image should be nil")
	}
	if r := g.ClientRect(hidden, 0); r != (Rect{}) {
		t.Errorf("ClientRect of hidden image = %+v, want zero", r)
	}

	shown := byID(t, doc, "shown")
	op := g.OffsetParent(shown)
	if op == nil || op.TagName != "body" {
		t.Errorf("offsetParent = %v, want body", op)
	}
	if g.OffsetParent(doc.Body()) != nil {
		t.Error("body has no offsetParent")
	}
}

func TestPositionedAncestorIsOffsetParent(t *testing.T) {
	doc, g := layoutHTML(t, `<body><div id="rel" style="position: relative"><span><img id="i" height="5"></span></div></body>`, nil)
	if op := g.OffsetParent(byID(t, doc, "i")); op != byID(t, doc, "rel") {
		t.Errorf("offsetParent = %v, want #rel", op)
	}
}

func TestFixedBoxesIgnoreScroll(t *testing.T) {
	doc, g := layoutHTML(t, `<body>
		<div id="f" style="position: fixed; top: 10px; height: 30px"><img id="fi" height="20"></div>
		<div id="n" style="height: 1000px"></div>
	</body>`, nil)

	f := byID(t, doc, "f")
	if g.OffsetParent(f) != nil {
		t.Error("fixed element has no offsetParent")
	}
	if r := g.ClientRect(f, 500); r.Top() != 10 {
		t.Errorf("fixed top after scroll = %v, want 10", r.Top())
	}
	if r := g.ClientRect(byID(t, doc, "fi"), 500); r.Top() != 10 {
		t.Errorf("descendant of fixed top = %v, want 10", r.Top())
	}
	n := byID(t, doc, "n")
	if r := g.ClientRect(n, 500); r.Top() != -500 {
		t.Errorf("in-flow top after scroll = %v, want -500", r.Top())
	}
	if g.DocumentHeight() != 1000 {
		t.Errorf("fixed box should not add to document height, got %v", g.DocumentHeight())
	}
}

func TestImageNaturalSize(t *testing.T) {
	sizer := func(img *html.Node) (float64, float64, bool) {
		if img.Attributes["id"] == "known" {
			return 1600, 800, true
		}
		return 0, 0, false
	}
	doc, g := layoutHTML(t, `<body><img id="known"><img id="unknown"></body>`, sizer)
	known, _ := g.Rect(byID(t, doc, "known"))
	if known.Height != 400 {
		t.Errorf("known height = %v, want 400 (scaled to 800px width)", known.Height)
	}
	unknown, _ := g.Rect(byID(t, doc, "unknown"))
	if unknown.Height != 0 || unknown.Top() != 400 {
		t.Errorf("unknown = %+v", unknown)
	}
}

func TestFragmentOffsetParent(t *testing.T) {
	doc, g := layoutHTML(t, `<div id="outer"><img id="i" height="1"></div>`, nil)
	if op := g.OffsetParent(byID(t, doc, "i")); op != byID(t, doc, "outer") {
		t.Errorf("offsetParent = %v, want #outer", op)
	}
	if len(g.Boxes()) != 2 {
		t.Errorf("Boxes = %d, want 2", len(g.Boxes()))
	}
}
