package page

import (
	"log/slog"

	"lazyimg/pkg/images"
	"lazyimg/pkg/resource"
)

// Defaults for a page created without options.
const (
	DefaultWidth            = 1024
	DefaultHeight           = 768
	DefaultDevicePixelRatio = 1
)

// Viewport describes the visible area of the page in CSS pixels.
type Viewport struct {
	Width            float64
	Height           float64
	DevicePixelRatio float64
}

// Option configures a Page.
type Option func(*Page)

// WithViewport sets the viewport size in CSS pixels.
func WithViewport(width, height float64) Option {
	return func(p *Page) {
		p.viewport.Width = width
		p.viewport.Height = height
	}
}

// WithDevicePixelRatio sets window.devicePixelRatio, used for srcset selection.
func WithDevicePixelRatio(dpr float64) Option {
	return func(p *Page) {
		if dpr > 0 {
			p.viewport.DevicePixelRatio = dpr
		}
	}
}

// WithFetcher sets the fetcher used for image sources.
func WithFetcher(f resource.Fetcher) Option {
	return func(p *Page) {
		p.fetcher = f
	}
}

// WithImageCache shares a decode cache between pages.
func WithImageCache(c *images.Cache) Option {
	return func(p *Page) {
		p.images = c
	}
}

// WithLogger sets the logger. Records carry the page's session id.
func WithLogger(l *slog.Logger) Option {
	return func(p *Page) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithoutSrcset emulates a browser without srcset support.
func WithoutSrcset() Option {
	return func(p *Page) {
		p.srcsetSupported = false
	}
}
