package page

import (
	"context"
	"fmt"

	"lazyimg/pkg/event"
	"lazyimg/pkg/html"
	"lazyimg/pkg/srcset"
)

// Srcset returns the image's live srcset property, which reflects the
// content attribute.
func (p *Page) Srcset(img *html.Node) string {
	v, _ := img.GetAttribute("srcset")
	return v
}

// CurrentSrc returns the URL of the candidate the image last loaded.
func (p *Page) CurrentSrc(img *html.Node) string {
	return p.currentSrc[img]
}

// SetSrcset assigns img.srcset. Like a browser, the page then selects a
// candidate for the current device pixel ratio and slot width, fetches and
// decodes it in the background, and later dispatches "load" (or "error")
// at img from the task loop. A newer assignment supersedes pending ones.
func (p *Page) SetSrcset(img *html.Node, value string) {
	img.SetAttribute("srcset", value)
	p.generation[img]++
	gen := p.generation[img]

	cands, err := srcset.Parse(value)
	if err != nil {
		p.Post(func() { p.finishImage(img, gen, "", 0, err) })
		return
	}
	slot := p.viewport.Width
	if box, ok := p.Geometry().Box(img); ok && box.Width > 0 {
		slot = box.Width
	}
	cand, _ := srcset.Select(cands, p.viewport.DevicePixelRatio, slot)
	density := cand.Density
	if cand.Width > 0 && slot > 0 {
		density = float64(cand.Width) / slot
	}

	p.logger.Debug("fetching image candidate",
		"id", img.Attributes["id"], "candidate", cand.String())

	p.goFetch(func(ctx context.Context) func() {
		_, err := p.images.Decode(ctx, cand.URL)
		if err != nil {
			err = fmt.Errorf("loading %s: %w", cand.URL, err)
		}
		return func() { p.finishImage(img, gen, cand.URL, density, err) }
	})
}

// finishImage runs on the task loop once a fetch completes.
func (p *Page) finishImage(img *html.Node, gen int, url string, density float64, err error) {
	if p.generation[img] != gen {
		p.logger.Debug("dropping stale image completion", "id", img.Attributes["id"])
		return
	}
	if err != nil {
		p.logger.Warn("image failed to load", "id", img.Attributes["id"], "err", err)
		ev := event.New(event.Error)
		ev.Err = err
		p.events.Dispatch(img, ev)
		return
	}
	p.currentSrc[img] = url
	p.density[img] = density
	p.Relayout()
	p.events.Dispatch(img, event.New(event.Load))
}
