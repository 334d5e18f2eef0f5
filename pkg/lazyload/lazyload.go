// Package lazyload defers responsive images until they scroll into view.
//
// Authors mark containers with a class and put the real candidate list in
// an img's data-lazyload attribute. The loader marks each container as
// loading, swaps data-lazyload into srcset once the image is visible, and
// clears the loading class when the image's native load event fires.
package lazyload

import (
	"errors"
	"log/slog"
	"time"

	"lazyimg/pkg/event"
	"lazyimg/pkg/html"
	"lazyimg/pkg/layout"
)

const (
	DefaultContainerClass = "js--lazyload"
	DefaultLoadingClass   = "js--lazyload--loading"

	// PendingAttr holds the candidate list to swap in.
	PendingAttr = "data-lazyload"
	// LoadedAttr is set to "true" once the swap happened.
	LoadedAttr = "data-loaded"
	// TriggerEvent is dispatched on an image to perform the swap.
	TriggerEvent = "lazyload-init"

	ScrollThrottle  = 100 * time.Millisecond
	DefaultThrottle = 200 * time.Millisecond

	maxAncestorDepth = 256
)

var ErrNoHost = errors.New("lazyload: nil host")

// Host is the window the loader runs in. *page.Page implements it.
type Host interface {
	Document() *html.Document
	BoundingClientRect(n *html.Node) layout.Rect
	OffsetParent(n *html.Node) *html.Node
	InnerHeight() float64
	AddEventListener(n *html.Node, typ string, fn event.Listener) (remove func())
	AddWindowListener(typ string, fn event.Listener) (remove func())
	DispatchEvent(n *html.Node, ev *event.Event) bool
	SetSrcset(img *html.Node, value string)
	SupportsSrcset() bool
	// Invalidate marks layout stale after the loader changes classes or
	// attributes that stylesheets may select on.
	Invalidate()
}

type Config struct {
	ContainerClass string
	LoadingClass   string
	// Callback, if set, runs with every native load event after the
	// loading class has been removed.
	Callback func(*event.Event)
}

func (c Config) withDefaults() Config {
	if c.ContainerClass == "" {
		c.ContainerClass = DefaultContainerClass
	}
	if c.LoadingClass == "" {
		c.LoadingClass = DefaultLoadingClass
	}
	return c
}

// State is an image's position in its lifecycle.
type State int

const (
	Unloaded State = iota // waiting to become visible
	Loading               // srcset swapped in, load event outstanding
	Loaded                // native load handled; terminal
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	}
	return "unloaded"
}

type Loader struct {
	host             Host
	cfg              Config
	logger           *slog.Logger
	metrics          *Metrics
	scrollLimit      time.Duration
	stripUnsupported bool

	images       []*html.Node
	states       map[*html.Node]State
	throttle     *Throttle
	removeScroll func()
	initialized  bool
}

func New(h Host, cfg Config, opts ...Option) *Loader {
	l := &Loader{
		host:        h,
		cfg:         cfg.withDefaults(),
		logger:      slog.Default(),
		scrollLimit: ScrollThrottle,
		states:      make(map[*html.Node]State),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.metrics == nil {
		l.metrics = NewMetrics(nil)
	}
	return l
}

// LazyLoadImages initializes a loader on h and returns a function that
// re-checks visibility on demand, e.g. after inserting content.
func LazyLoadImages(h Host, cfg Config, opts ...Option) (func(), error) {
	return New(h, cfg, opts...).Init()
}

// Config returns the effective configuration.
func (l *Loader) Config() Config { return l.cfg }

// Init discovers containers, wires listeners, loads already visible images
// and installs the throttled scroll handler. Without srcset support it
// does nothing and returns a no-op check. Calling Init again returns the
// same check without re-wiring.
func (l *Loader) Init() (func(), error) {
	if l.host == nil {
		return nil, ErrNoHost
	}
	if l.initialized {
		return l.check, nil
	}
	l.initialized = true

	doc := l.host.Document()
	containers := html.ElementsByClassName(doc.Root, l.cfg.ContainerClass)

	if !l.host.SupportsSrcset() {
		l.logger.Info("srcset unsupported, lazy loading disabled", "containers", len(containers))
		if l.stripUnsupported {
			for _, c := range containers {
				c.RemoveClass(l.cfg.LoadingClass)
			}
			l.host.Invalidate()
		}
		return func() {}, nil
	}

	for _, c := range containers {
		c.AddClass(l.cfg.LoadingClass)
	}
	l.host.Invalidate()

	seen := make(map[*html.Node]bool, len(containers))
	for _, c := range containers {
		img := FindImage(c)
		if img == nil {
			l.logger.Warn("lazyload container has no img, skipping",
				"tag", c.TagName, "id", c.Attributes["id"], "class", c.Attributes["class"])
			l.metrics.Skipped.Inc()
			continue
		}
		if seen[img] {
			continue
		}
		seen[img] = true
		l.images = append(l.images, img)
		l.states[img] = Unloaded
		if isLoaded(img) {
			l.states[img] = Loading
		} else {
			l.metrics.Pending.Inc()
		}

		l.host.AddEventListener(img, event.Load, l.handleLoad)
		l.host.AddEventListener(img, TriggerEvent, l.handleTrigger)

		l.MaybeTrigger(img, event.New(TriggerEvent))
	}
	l.logger.Debug("lazyload initialized",
		"containers", len(containers), "images", len(l.images))

	l.throttle = NewThrottle(l.check, l.scrollLimit)
	l.removeScroll = l.host.AddWindowListener(event.Scroll, func(*event.Event) { l.throttle.Call() })

	return l.check, nil
}

func (l *Loader) check() { l.CheckVisible() }

// CheckVisible triggers every managed image that is unloaded and visible.
// Returns how many were triggered.
func (l *Loader) CheckVisible() int {
	l.metrics.Checks.Inc()
	n := 0
	ev := event.New(TriggerEvent)
	for _, img := range l.images {
		if l.MaybeTrigger(img, ev) {
			n++
		}
	}
	return n
}

// MaybeTrigger dispatches ev at img if img is not yet loaded and is visible.
func (l *Loader) MaybeTrigger(img *html.Node, ev *event.Event) bool {
	if img == nil || isLoaded(img) || !IsElementVisible(l.host, img) {
		return false
	}
	l.host.DispatchEvent(img, ev)
	return true
}

// handleTrigger swaps the pending candidates into srcset.
func (l *Loader) handleTrigger(ev *event.Event) {
	img := ev.CurrentTarget
	if img == nil || isLoaded(img) {
		return
	}
	pending, ok := img.GetAttribute(PendingAttr)
	if ok {
		l.host.SetSrcset(img, pending)
	} else {
		l.logger.Warn("lazyload image has no "+PendingAttr, "id", img.Attributes["id"])
	}
	img.SetAttribute(LoadedAttr, "true")
	l.host.Invalidate()

	if l.states[img] == Unloaded {
		l.metrics.Pending.Dec()
	}
	l.states[img] = Loading
	l.metrics.Triggered.Inc()
	l.logger.Debug("image triggered", "id", img.Attributes["id"], "srcset", pending)
}

// handleLoad runs on the image's native load event.
func (l *Loader) handleLoad(ev *event.Event) {
	img := ev.CurrentTarget
	if RemoveLoadingClass(img, l.cfg.LoadingClass) {
		l.host.Invalidate()
	}
	if l.states[img] == Loading {
		l.states[img] = Loaded
	}
	l.metrics.Loaded.Inc()
	if l.cfg.Callback != nil {
		l.cfg.Callback(ev)
	}
}

// Images returns the managed images in document order.
func (l *Loader) Images() []*html.Node {
	return append([]*html.Node(nil), l.images...)
}

// State returns img's lifecycle state. Unmanaged images report Unloaded.
func (l *Loader) State(img *html.Node) State {
	return l.states[img]
}

// Close removes the scroll handler and stops the throttle. Image listeners
// stay so outstanding loads still clear their loading class.
func (l *Loader) Close() {
	if l.removeScroll != nil {
		l.removeScroll()
		l.removeScroll = nil
	}
	if l.throttle != nil {
		l.throttle.Stop()
	}
}

// FindImage returns c itself when it is an img, else its first img
// descendant, or nil.
func FindImage(c *html.Node) *html.Node {
	if c.TagName == "img" {
		return c
	}
	return html.FirstElementByTag(c, "img")
}

// RemoveLoadingClass walks from img towards the root and removes cls from
// the first element carrying it. The walk stops without effect at body,
// at the document root, or after maxAncestorDepth steps.
func RemoveLoadingClass(img *html.Node, cls string) bool {
	el := img
	for depth := 0; el != nil && depth < maxAncestorDepth; depth++ {
		if el.TagName == "body" || el.TagName == html.RootTag {
			return false
		}
		if el.RemoveClass(cls) {
			return true
		}
		el = el.Parent
	}
	return false
}

func isLoaded(img *html.Node) bool {
	v, _ := img.GetAttribute(LoadedAttr)
	return v != ""
}
