package lazyload

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"lazyimg/pkg/event"
	"lazyimg/pkg/html"
	"lazyimg/pkg/page"
)

const placeholder = "data:image/gif;base64,R0lGODlhAQABAIAAAP///////yH5BAEKAAEALAAAAAABAAEAAAICTAEAOw=="

func newTestPage(t *testing.T, src string, opts ...page.Option) *page.Page {
	t.Helper()
	p, err := page.Parse(src, append([]page.Option{page.WithViewport(1024, 800)}, opts...)...)
	if err != nil {
		t.Fatalf("page.Parse: %v", err)
	}
	t.Cleanup(p.Close)
	return p
}

func byID(t *testing.T, p *page.Page, id string) *html.Node {
	t.Helper()
	n := html.ElementByID(p.Document().Root, id)
	if n == nil {
		t.Fatalf("no element #%s", id)
	}
	return n
}

func runIdle(t *testing.T, p *page.Page) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.RunUntilIdle(ctx); err != nil {
		t.Fatalf("RunUntilIdle: %v", err)
	}
}

func pngDataURI(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 3))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	return m.GetGauge().GetValue()
}

// Two images: #near fills the top of the viewport, #far starts 2400px down.
const twoImages = `<body>
	<div class="js--lazyload" id="near-box">
		<img id="near" style="height: 400px" srcset="` + placeholder + `" data-lazyload="a.jpg 1x, b.jpg 2x">
	</div>
	<div style="height: 2000px"></div>
	<div class="js--lazyload" id="far-box">
		<img id="far" style="height: 400px" srcset="` + placeholder + `" data-lazyload="c.jpg">
	</div>
</body>`

func TestVisibleImageLoadsOnInit(t *testing.T) {
	p := newTestPage(t, twoImages)
	if _, err := LazyLoadImages(p, Config{}); err != nil {
		t.Fatalf("LazyLoadImages: %v", err)
	}

	near := byID(t, p, "near")
	if got := p.Srcset(near); got != "a.jpg 1x, b.jpg 2x" {
		t.Errorf("srcset = %q", got)
	}
	if v, _ := near.GetAttribute(LoadedAttr); v != "true" {
		t.Errorf("%s = %q, want true", LoadedAttr, v)
	}
}

func TestOffscreenImageUntouched(t *testing.T) {
	p := newTestPage(t, twoImages)
	check, err := LazyLoadImages(p, Config{})
	if err != nil {
		t.Fatalf("LazyLoadImages: %v", err)
	}
	check()

	far := byID(t, p, "far")
	if _, ok := far.GetAttribute(LoadedAttr); ok {
		t.Error("off-screen image must not be marked loaded")
	}
	if got := p.Srcset(far); got != placeholder {
		t.Errorf("srcset changed to %q", got)
	}
	if !byID(t, p, "far-box").HasClass(DefaultLoadingClass) {
		t.Error("container should carry the loading class")
	}
}

func TestScrollTriggersExactlyOnce(t *testing.T) {
	p := newTestPage(t, twoImages)
	reg := prometheus.NewRegistry()
	ld := New(p, Config{}, WithMetrics(reg))
	check, err := ld.Init()
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	far := byID(t, p, "far")
	if ld.State(far) != Unloaded {
		t.Fatalf("state = %v, want unloaded", ld.State(far))
	}

	p.ScrollTo(2000)
	if got := p.Srcset(far); got != "c.jpg" {
		t.Fatalf("srcset after scroll = %q, want c.jpg", got)
	}
	if ld.State(far) != Loading {
		t.Errorf("state = %v, want loading", ld.State(far))
	}

	// Further qualifying scrolls and checks must not swap again.
	far.SetAttribute(PendingAttr, "other.jpg")
	p.ScrollTo(1900)
	check()
	if n := ld.CheckVisible(); n != 0 {
		t.Errorf("CheckVisible triggered %d images, want 0", n)
	}
	if got := p.Srcset(far); got != "c.jpg" {
		t.Errorf("srcset = %q after re-check, want c.jpg", got)
	}

	if got := counterValue(t, ld.metrics.Triggered); got != 2 {
		t.Errorf("triggered = %v, want 2", got)
	}
	if got := gaugeValue(t, ld.metrics.Pending); got != 0 {
		t.Errorf("pending = %v, want 0", got)
	}
}

func TestScrollBurstRunsOneCheckPerWindow(t *testing.T) {
	p := newTestPage(t, twoImages)
	ld := New(p, Config{}, WithMetrics(prometheus.NewRegistry()), WithScrollThrottle(100*time.Millisecond))
	if _, err := ld.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	base := counterValue(t, ld.metrics.Checks)

	for _, y := range []float64{100, 200, 300, 400} {
		p.ScrollTo(y)
	}
	if got := counterValue(t, ld.metrics.Checks) - base; got != 1 {
		t.Fatalf("checks during burst = %v, want 1", got)
	}

	time.Sleep(250 * time.Millisecond)
	p.ScrollTo(500)
	if got := counterValue(t, ld.metrics.Checks) - base; got != 2 {
		t.Errorf("checks after window = %v, want 2", got)
	}
}

// Stylesheet rules on the loading class shift geometry; visibility must
// see the restyled layout both when the class is added and when removed.
func TestLoadingClassStylesAffectVisibility(t *testing.T) {
	p := newTestPage(t, `<body>
	<style>.js--lazyload--loading { padding-top: 1500px }</style>
	<div class="js--lazyload" id="box">
		<img id="img" style="height: 100px" data-lazyload="`+pngDataURI(t)+`">
	</div>
</body>`)
	ld := New(p, Config{})
	if _, err := ld.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	img := byID(t, p, "img")
	if top := p.BoundingClientRect(img).Top(); top != 1500 {
		t.Fatalf("top with loading class = %v, want 1500", top)
	}
	if _, ok := img.GetAttribute(LoadedAttr); ok {
		t.Fatal("image pushed below the viewport by the loading class was triggered")
	}

	p.DispatchEvent(img, event.New(TriggerEvent))
	runIdle(t, p)
	if ld.State(img) != Loaded {
		t.Fatalf("state = %v, want loaded", ld.State(img))
	}
	if top := p.BoundingClientRect(img).Top(); top != 0 {
		t.Errorf("top after load = %v, want 0", top)
	}
}

func TestLoadingClassRemovedOnNativeLoad(t *testing.T) {
	src := pngDataURI(t)
	p := newTestPage(t, `<body>
		<div class="js--lazyload" id="box">
			<a href="#"><img id="img" data-lazyload="`+src+`"></a>
		</div>
	</body>`)

	var calls []*event.Event
	ld := New(p, Config{Callback: func(ev *event.Event) {
		if byID(t, p, "box").HasClass(DefaultLoadingClass) {
			t.Error("callback ran before the loading class was removed")
		}
		calls = append(calls, ev)
	}})
	if _, err := ld.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	box, img := byID(t, p, "box"), byID(t, p, "img")
	if !box.HasClass(DefaultLoadingClass) {
		t.Fatal("loading class should stay until the image loads")
	}
	if ld.State(img) != Loading {
		t.Fatalf("state = %v, want loading", ld.State(img))
	}

	runIdle(t, p)

	if box.HasClass(DefaultLoadingClass) {
		t.Error("loading class should be removed after load")
	}
	if !box.HasClass(DefaultContainerClass) {
		t.Error("container class must be kept")
	}
	if len(calls) != 1 || calls[0].Target != img {
		t.Errorf("callback calls = %d, want 1 with the image as target", len(calls))
	}
	if ld.State(img) != Loaded {
		t.Errorf("state = %v, want loaded", ld.State(img))
	}
}

func TestFailedLoadKeepsLoadingClass(t *testing.T) {
	p := newTestPage(t, `<body>
		<div class="js--lazyload" id="box"><img data-lazyload="missing-file.jpg"></div>
	</body>`)
	called := false
	if _, err := LazyLoadImages(p, Config{Callback: func(*event.Event) { called = true }}); err != nil {
		t.Fatalf("LazyLoadImages: %v", err)
	}
	runIdle(t, p)

	if !byID(t, p, "box").HasClass(DefaultLoadingClass) {
		t.Error("an error event must not clear the loading class")
	}
	if called {
		t.Error("callback is for load events only")
	}
}

func TestContainerIsImage(t *testing.T) {
	p := newTestPage(t, `<body><img id="img" class="js--lazyload" data-lazyload="x.jpg"></body>`)
	ld := New(p, Config{})
	if _, err := ld.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	img := byID(t, p, "img")
	if len(ld.Images()) != 1 || ld.Images()[0] != img {
		t.Fatalf("Images = %v", ld.Images())
	}
	if !img.HasClass(DefaultLoadingClass) {
		t.Error("image container should get the loading class")
	}
	if !RemoveLoadingClass(img, DefaultLoadingClass) || img.HasClass(DefaultLoadingClass) {
		t.Error("class on the image itself should be removed")
	}
}

func TestContainerWithoutImageIsSkipped(t *testing.T) {
	p := newTestPage(t, `<body>
		<div class="js--lazyload" id="empty"><p>no image here</p></div>
		<div class="js--lazyload"><img id="img" data-lazyload="x.jpg"></div>
	</body>`)
	reg := prometheus.NewRegistry()
	ld := New(p, Config{}, WithMetrics(reg))
	if _, err := ld.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if len(ld.Images()) != 1 {
		t.Errorf("Images = %d, want 1", len(ld.Images()))
	}
	if got := counterValue(t, ld.metrics.Skipped); got != 1 {
		t.Errorf("skipped = %v, want 1", got)
	}
	if v, _ := byID(t, p, "img").GetAttribute(LoadedAttr); v != "true" {
		t.Error("image after a skipped container should still load")
	}
	if !byID(t, p, "empty").HasClass(DefaultLoadingClass) {
		t.Error("every container is marked as loading")
	}
}

func TestAlreadyLoadedImageNotTriggered(t *testing.T) {
	p := newTestPage(t, `<body>
		<div class="js--lazyload"><img id="img" data-loaded="true" srcset="keep.jpg" data-lazyload="x.jpg"></div>
	</body>`)
	ld := New(p, Config{})
	if _, err := ld.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := p.Srcset(byID(t, p, "img")); got != "keep.jpg" {
		t.Errorf("srcset = %q, want keep.jpg", got)
	}
	if ld.MaybeTrigger(byID(t, p, "img"), event.New(TriggerEvent)) {
		t.Error("MaybeTrigger should refuse a loaded image")
	}
}

func TestHiddenImageNotTriggered(t *testing.T) {
	p := newTestPage(t, `<body>
		<div class="js--lazyload" style="display: none"><img id="img" data-lazyload="x.jpg"></div>
	</body>`)
	if _, err := LazyLoadImages(p, Config{}); err != nil {
		t.Fatalf("LazyLoadImages: %v", err)
	}
	if _, ok := byID(t, p, "img").GetAttribute(LoadedAttr); ok {
		t.Error("image without an offsetParent must not load")
	}
}

func TestCustomClasses(t *testing.T) {
	p := newTestPage(t, `<body>
		<figure class="lazy" id="box"><img id="img" data-lazyload="x.jpg"></figure>
		<div class="js--lazyload" id="other"><img data-lazyload="y.jpg"></div>
	</body>`)
	ld := New(p, Config{ContainerClass: "lazy", LoadingClass: "is-loading"})
	if _, err := ld.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if ld.Config().ContainerClass != "lazy" {
		t.Errorf("ContainerClass = %q", ld.Config().ContainerClass)
	}
	if !byID(t, p, "box").HasClass("is-loading") {
		t.Error("custom loading class not applied")
	}
	if byID(t, p, "other").HasClass(DefaultLoadingClass) || byID(t, p, "other").HasClass("is-loading") {
		t.Error("containers with other classes must be left alone")
	}
	if len(ld.Images()) != 1 {
		t.Errorf("Images = %d, want 1", len(ld.Images()))
	}
}

func TestUnsupportedSrcsetIsNoop(t *testing.T) {
	p := newTestPage(t, twoImages, page.WithoutSrcset())
	check, err := LazyLoadImages(p, Config{})
	if err != nil {
		t.Fatalf("LazyLoadImages: %v", err)
	}
	if check == nil {
		t.Fatal("expected a non-nil check function")
	}
	check()
	p.ScrollTo(2000)

	for _, id := range []string{"near", "far"} {
		if _, ok := byID(t, p, id).GetAttribute(LoadedAttr); ok {
			t.Errorf("#%s marked loaded without srcset support", id)
		}
	}
	if byID(t, p, "near-box").HasClass(DefaultLoadingClass) {
		t.Error("no loading class without srcset support")
	}
}

func TestUnsupportedSrcsetStripsAuthorClass(t *testing.T) {
	p := newTestPage(t, `<body>
		<div class="js--lazyload js--lazyload--loading" id="box"><img data-lazyload="x.jpg"></div>
	</body>`, page.WithoutSrcset())
	if _, err := LazyLoadImages(p, Config{}, WithStripWhenUnsupported()); err != nil {
		t.Fatalf("LazyLoadImages: %v", err)
	}
	if byID(t, p, "box").HasClass(DefaultLoadingClass) {
		t.Error("loading class should be stripped")
	}
}

func TestNilHost(t *testing.T) {
	if _, err := LazyLoadImages(nil, Config{}); !errors.Is(err, ErrNoHost) {
		t.Errorf("err = %v, want ErrNoHost", err)
	}
}

func TestInitTwiceDoesNotRewire(t *testing.T) {
	p := newTestPage(t, twoImages)
	ld := New(p, Config{})
	if _, err := ld.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := ld.Init(); err != nil {
		t.Fatalf("second Init: %v", err)
	}
	if len(ld.Images()) != 2 {
		t.Errorf("Images = %d, want 2", len(ld.Images()))
	}
	classes := byID(t, p, "near-box").Attributes["class"]
	if strings.Count(classes, DefaultLoadingClass) != 1 {
		t.Errorf("class = %q", classes)
	}
}

func TestCloseStopsScrollHandling(t *testing.T) {
	p := newTestPage(t, twoImages)
	ld := New(p, Config{})
	if _, err := ld.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	ld.Close()
	p.ScrollTo(2000)
	if _, ok := byID(t, p, "far").GetAttribute(LoadedAttr); ok {
		t.Error("closed loader must not react to scroll")
	}
}

func TestRemoveLoadingClassStopsAtBody(t *testing.T) {
	doc, err := html.Parse(`<body class="loading"><div><img id="img"></div></body>`)
	if err != nil {
		t.Fatal(err)
	}
	img := html.ElementByID(doc.Root, "img")
	if RemoveLoadingClass(img, "loading") {
		t.Error("walk must stop at body")
	}
	if !doc.Body().HasClass("loading") {
		t.Error("body class must be kept")
	}
}

func TestRemoveLoadingClassBounded(t *testing.T) {
	// A parent cycle must not hang the walk.
	a, b := html.NewElement("span"), html.NewElement("span")
	a.Parent, b.Parent = b, a
	if RemoveLoadingClass(a, "loading") {
		t.Error("cycle without the class should report false")
	}

	// The class beyond maxAncestorDepth is not reached.
	top := html.NewElement("div")
	top.AddClass("loading")
	cur := top
	for i := 0; i < maxAncestorDepth+10; i++ {
		child := html.NewElement("span")
		cur.AddChild(child)
		cur = child
	}
	if RemoveLoadingClass(cur, "loading") {
		t.Error("walk should give up after maxAncestorDepth steps")
	}

	// Within the bound it is found.
	near := html.NewElement("div")
	near.AddClass("loading")
	leaf := html.NewElement("img")
	near.AddChild(leaf)
	if !RemoveLoadingClass(leaf, "loading") || near.HasClass("loading") {
		t.Error("nearest ancestor class should be removed")
	}
}

func TestMetricsShareRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m1 := NewMetrics(reg)
	m2 := NewMetrics(reg)
	m1.Checks.Inc()
	m2.Checks.Inc()
	if got := counterValue(t, m1.Checks); got != 2 {
		t.Errorf("shared checks = %v, want 2", got)
	}
}

func TestStateString(t *testing.T) {
	if Unloaded.String() != "unloaded" || Loading.String() != "loading" || Loaded.String() != "loaded" {
		t.Error("unexpected State strings")
	}
}
