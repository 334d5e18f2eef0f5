package lazyload

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// WithMetrics registers the loader's collectors on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(ld *Loader) {
		ld.metrics = NewMetrics(reg)
	}
}

// WithScrollThrottle overrides the scroll handler's window (ScrollThrottle).
func WithScrollThrottle(limit time.Duration) Option {
	return func(ld *Loader) {
		ld.scrollLimit = limit
	}
}

// WithStripWhenUnsupported makes Init remove the loading class from every
// container when the host lacks srcset support, so placeholder styling
// does not stick around.
func WithStripWhenUnsupported() Option {
	return func(ld *Loader) {
		ld.stripUnsupported = true
	}
}
