// Package page hosts a parsed document the way a browser window does:
// a viewport with a scroll offset, DOM events, a single-threaded task
// queue and an asynchronous image pipeline that fires native load events.
//
// All DOM access happens on the goroutine that calls the Page's methods
// and RunUntilIdle. Image fetches run on background goroutines and hand
// their results back through the task queue.
package page

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"lazyimg/pkg/css"
	"lazyimg/pkg/event"
	"lazyimg/pkg/html"
	"lazyimg/pkg/images"
	"lazyimg/pkg/layout"
	"lazyimg/pkg/resource"
)

type Page struct {
	doc      *html.Document
	styles   map[*html.Node]*css.Style
	geom     *layout.Geometry
	viewport Viewport
	scrollY  float64
	dirty    bool

	events          *event.Registry
	fetcher         resource.Fetcher
	images          *images.Cache
	srcsetSupported bool

	session string
	logger  *slog.Logger

	// UI-goroutine state for the image pipeline.
	generation map[*html.Node]int
	currentSrc map[*html.Node]string
	density    map[*html.Node]float64

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	tasks    []func()
	inflight int
	wake     chan struct{}
	wg       sync.WaitGroup
}

// New wraps an already parsed document.
func New(doc *html.Document, opts ...Option) *Page {
	p := &Page{
		doc: doc,
		viewport: Viewport{
			Width:            DefaultWidth,
			Height:           DefaultHeight,
			DevicePixelRatio: DefaultDevicePixelRatio,
		},
		events:          event.NewRegistry(),
		srcsetSupported: true,
		session:         uuid.NewString(),
		logger:          slog.Default(),
		generation:      make(map[*html.Node]int),
		currentSrc:      make(map[*html.Node]string),
		density:         make(map[*html.Node]float64),
		wake:            make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.fetcher == nil {
		p.fetcher = resource.NewFetcher("")
	}
	if p.images == nil {
		p.images = images.NewCache(p.fetcher)
	}
	p.logger = p.logger.With("session", p.session)
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.Relayout()
	return p
}

// Parse builds a page from HTML source.
func Parse(src string, opts ...Option) (*Page, error) {
	doc, err := html.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return New(doc, opts...), nil
}

// Load fetches and parses the document at uri (URL or file path). Relative
// image sources resolve against uri unless WithFetcher overrides it.
func Load(ctx context.Context, uri string, opts ...Option) (*Page, error) {
	fetcher := resource.NewFetcher(uri)
	src, err := fetcher.FetchDocument(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", uri, err)
	}
	return Parse(src, append([]Option{WithFetcher(fetcher)}, opts...)...)
}

func (p *Page) Document() *html.Document { return p.doc }
func (p *Page) Viewport() Viewport       { return p.viewport }
func (p *Page) SessionID() string        { return p.session }
func (p *Page) Logger() *slog.Logger     { return p.logger }
func (p *Page) Images() *images.Cache    { return p.images }

// SupportsSrcset reports whether `'srcset' in document.createElement('img')`.
func (p *Page) SupportsSrcset() bool { return p.srcsetSupported }

// Style returns the computed style of n from the last layout.
func (p *Page) Style(n *html.Node) *css.Style {
	p.layoutIfNeeded()
	if s, ok := p.styles[n]; ok {
		return s
	}
	return css.NewStyle()
}

// Relayout recomputes styles and geometry. Call it after mutating the DOM
// in ways that change layout; the page does so itself after image loads
// and resizes.
func (p *Page) Relayout() {
	p.styles = css.ApplyStylesToDocument(p.doc)
	le := layout.NewLayoutEngine(p.viewport.Width, p.viewport.Height)
	le.SetImageSizer(p.naturalSize)
	p.geom = le.Layout(p.doc, p.styles)
	p.dirty = false
	p.clampScroll()
}

func (p *Page) naturalSize(img *html.Node) (float64, float64, bool) {
	src, ok := p.currentSrc[img]
	if !ok {
		return 0, 0, false
	}
	w, h, ok := p.images.Size(src)
	if !ok {
		return 0, 0, false
	}
	// Intrinsic size in CSS pixels.
	d := p.density[img]
	if d <= 0 {
		d = 1
	}
	return float64(w) / d, float64(h) / d, true
}

// Invalidate marks styles and geometry stale after a DOM mutation. The
// next geometry query relayouts.
func (p *Page) Invalidate() { p.dirty = true }

func (p *Page) layoutIfNeeded() {
	if p.dirty {
		p.Relayout()
	}
}

// Geometry returns the current layout.
func (p *Page) Geometry() *layout.Geometry {
	p.layoutIfNeeded()
	return p.geom
}

// BoundingClientRect returns n's border box relative to the viewport.
func (p *Page) BoundingClientRect(n *html.Node) layout.Rect {
	return p.Geometry().ClientRect(n, p.scrollY)
}

// OffsetParent returns n's offsetParent; nil means n is not rendered.
func (p *Page) OffsetParent(n *html.Node) *html.Node {
	return p.Geometry().OffsetParent(n)
}

// InnerHeight returns window.innerHeight.
func (p *Page) InnerHeight() float64 { return p.viewport.Height }

// ScrollY returns window.scrollY.
func (p *Page) ScrollY() float64 { return p.scrollY }

// MaxScrollY is the largest scroll offset the document allows.
func (p *Page) MaxScrollY() float64 {
	m := p.Geometry().DocumentHeight() - p.viewport.Height
	if m < 0 {
		return 0
	}
	return m
}

// ScrollTo moves the viewport to y (clamped to the document) and, if the
// offset changed, dispatches a window scroll event. Returns the new offset.
func (p *Page) ScrollTo(y float64) float64 {
	if y < 0 {
		y = 0
	}
	if limit := p.MaxScrollY(); y > limit {
		y = limit
	}
	if y == p.scrollY {
		return y
	}
	p.scrollY = y
	p.events.Dispatch(nil, event.New(event.Scroll))
	return y
}

// ScrollBy scrolls relative to the current offset.
func (p *Page) ScrollBy(dy float64) float64 {
	return p.ScrollTo(p.scrollY + dy)
}

// Resize changes the viewport size, relayouts and dispatches resize.
func (p *Page) Resize(width, height float64) {
	p.viewport.Width = width
	p.viewport.Height = height
	p.Relayout()
	p.events.Dispatch(nil, event.New(event.Resize))
}

func (p *Page) clampScroll() {
	if limit := p.MaxScrollY(); p.scrollY > limit {
		p.scrollY = limit
	}
}

// AddEventListener registers fn for typ events targeted at n.
func (p *Page) AddEventListener(n *html.Node, typ string, fn event.Listener) (remove func()) {
	return p.events.Add(n, typ, fn)
}

// AddWindowListener registers fn for window-level events such as scroll.
func (p *Page) AddWindowListener(typ string, fn event.Listener) (remove func()) {
	return p.events.Add(nil, typ, fn)
}

// DispatchEvent synchronously dispatches ev at n.
func (p *Page) DispatchEvent(n *html.Node, ev *event.Event) bool {
	return p.events.Dispatch(n, ev)
}

// Close cancels outstanding image fetches and waits for them to finish.
func (p *Page) Close() {
	p.cancel()
	p.wg.Wait()
}
