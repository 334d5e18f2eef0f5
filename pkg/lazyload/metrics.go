package lazyload

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsNamespace prefixes every collector name.
const MetricsNamespace = "lazyimg"

// Metrics counts loader activity. Loaders sharing a registry share the
// collectors.
type Metrics struct {
	Checks    prometheus.Counter
	Triggered prometheus.Counter
	Loaded    prometheus.Counter
	Skipped   prometheus.Counter
	Pending   prometheus.Gauge
}

// NewMetrics builds the collectors and registers them on reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Checks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "lazyload",
			Name:      "visibility_checks_total",
			Help:      "Number of passes over the managed images.",
		}),
		Triggered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "lazyload",
			Name:      "images_triggered_total",
			Help:      "Images whose srcset was swapped in.",
		}),
		Loaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "lazyload",
			Name:      "images_loaded_total",
			Help:      "Native load events handled.",
		}),
		Skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "lazyload",
			Name:      "containers_skipped_total",
			Help:      "Containers without an img element.",
		}),
		Pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: "lazyload",
			Name:      "images_pending",
			Help:      "Managed images not yet triggered.",
		}),
	}
	if reg != nil {
		m.Checks = register(reg, m.Checks)
		m.Triggered = register(reg, m.Triggered)
		m.Loaded = register(reg, m.Loaded)
		m.Skipped = register(reg, m.Skipped)
		m.Pending = register(reg, m.Pending)
	}
	return m
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing
		}
	}
	return c
}
