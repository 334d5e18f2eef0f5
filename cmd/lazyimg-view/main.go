// Command lazyimg-view is a small desktop viewer for watching the lazy image
// loader work: load a page, drag the scroll slider and pending images turn
// into real ones as they enter the viewport.
package main

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"lazyimg/pkg/lazyload"
	"lazyimg/pkg/page"
	"lazyimg/pkg/paint"
)

const (
	viewWidth   = 1024
	viewHeight  = 700
	loadTimeout = 30 * time.Second
)

// viewer owns the page on a single worker goroutine; UI callbacks queue
// work there and results come back through fyne.Do.
type viewer struct {
	win       fyne.Window
	img       *canvas.Image
	slider    *widget.Slider
	status    *widget.Label
	highlight bool

	work   chan func()
	ctx    context.Context
	stop   context.CancelFunc
	done   chan struct{}
	logger *slog.Logger

	page   *page.Page
	loader *lazyload.Loader
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	a := app.New()
	w := a.NewWindow("lazyimg")
	w.Resize(fyne.NewSize(viewWidth, viewHeight+80))

	v := newViewer(logger)
	v.win = w
	v.img = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, viewWidth, viewHeight)))
	v.img.FillMode = canvas.ImageFillOriginal
	v.status = widget.NewLabel("Enter a file or URL and press Enter")

	v.slider = widget.NewSlider(0, 0)
	v.slider.Orientation = widget.Vertical
	v.slider.OnChanged = func(y float64) {
		// Vertical sliders grow upwards; scrolling grows downwards.
		top := v.slider.Max
		v.queue(func() { v.scrollTo(top - y) })
	}

	highlight := widget.NewCheck("Outline loading", func(on bool) {
		v.queue(func() {
			v.highlight = on
			v.repaint()
		})
	})

	urlEntry := widget.NewEntry()
	urlEntry.SetPlaceHolder("page.html or https://example.com")
	urlEntry.OnSubmitted = func(uri string) {
		v.status.SetText("Loading " + uri + "...")
		v.queue(func() { v.load(uri) })
	}

	go v.run()

	topBar := container.NewBorder(nil, nil, nil, highlight, urlEntry)
	content := container.NewBorder(topBar, v.status, nil, v.slider, v.img)
	w.SetContent(content)
	w.Canvas().Focus(urlEntry)

	if len(os.Args) > 1 {
		urlEntry.SetText(os.Args[1])
		urlEntry.OnSubmitted(os.Args[1])
	}

	w.ShowAndRun()
	v.shutdown()
}

func newViewer(logger *slog.Logger) *viewer {
	ctx, stop := context.WithCancel(context.Background())
	return &viewer{
		work:   make(chan func(), 16),
		ctx:    ctx,
		stop:   stop,
		done:   make(chan struct{}),
		logger: logger,
	}
}

// queue hands fn to the worker. Work queued after shutdown, or while the
// queue is full, is dropped.
func (v *viewer) queue(fn func()) {
	if v.ctx.Err() != nil {
		return
	}
	select {
	case v.work <- fn:
	default:
		v.logger.Debug("viewer busy, dropping update")
	}
}

func (v *viewer) run() {
	defer close(v.done)
	for {
		select {
		case <-v.ctx.Done():
			if v.page != nil {
				v.loader.Close()
				v.page.Close()
			}
			return
		case fn := <-v.work:
			fn()
		}
	}
}

// shutdown stops the worker and waits until it has closed the page.
func (v *viewer) shutdown() {
	v.stop()
	<-v.done
}

func (v *viewer) load(uri string) {
	if v.page != nil {
		v.loader.Close()
		v.page.Close()
		v.page, v.loader = nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	p, err := page.Load(ctx, uri, page.WithViewport(viewWidth, viewHeight), page.WithLogger(v.logger))
	if err != nil {
		v.setStatus("Error: " + err.Error())
		return
	}
	l := lazyload.New(p, lazyload.Config{}, lazyload.WithLogger(p.Logger()))
	if _, err := l.Init(); err != nil {
		p.Close()
		v.setStatus("Error: " + err.Error())
		return
	}
	v.page, v.loader = p, l
	v.settle(ctx)

	maxScroll := p.MaxScrollY()
	fyne.Do(func() {
		v.slider.Max = maxScroll
		v.slider.Value = maxScroll
		v.slider.Refresh()
		v.win.SetTitle("lazyimg - " + uri)
	})
	v.repaint()
}

func (v *viewer) scrollTo(y float64) {
	if v.page == nil {
		return
	}
	v.page.ScrollTo(y)
	// The slider can outrun the scroll throttle; check the final position.
	v.loader.CheckVisible()
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	v.settle(ctx)
	v.repaint()
}

// settle waits for triggered images so the next frame shows them.
func (v *viewer) settle(ctx context.Context) {
	if err := v.page.RunUntilIdle(ctx); err != nil {
		v.logger.Warn("images still loading", "err", err, "pending", v.page.Pending())
	}
}

func (v *viewer) repaint() {
	if v.page == nil {
		return
	}
	var opts []paint.Option
	if v.highlight {
		opts = append(opts, paint.WithHighlight(v.loader.Config().LoadingClass))
	}
	frame := paint.Snapshot(v.page, opts...)

	loaded, total := 0, 0
	for _, img := range v.loader.Images() {
		total++
		if v.loader.State(img) == lazyload.Loaded {
			loaded++
		}
	}
	text := fmt.Sprintf("scroll %.0f / %.0f  |  %d of %d lazy images loaded",
		v.page.ScrollY(), v.page.MaxScrollY(), loaded, total)

	fyne.Do(func() {
		v.img.Image = frame
		v.img.Refresh()
		v.status.SetText(text)
	})
}

func (v *viewer) setStatus(text string) {
	fyne.Do(func() { v.status.SetText(text) })
}
