package main

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/prometheus/client_golang/prometheus"

	"lazyimg/pkg/js"
	"lazyimg/pkg/lazyload"
	"lazyimg/pkg/page"
)

// session is a loaded page with its loaders attached.
type session struct {
	page     *page.Page
	engine   *js.Engine
	loaders  []*lazyload.Loader
	registry *prometheus.Registry
	logger   *slog.Logger
}

func openSession(ctx context.Context, uri string, opts *options, logger *slog.Logger) (*session, error) {
	pageOpts := []page.Option{
		page.WithViewport(opts.width, opts.height),
		page.WithDevicePixelRatio(opts.dpr),
		page.WithLogger(logger),
	}
	if opts.noSrcset {
		pageOpts = append(pageOpts, page.WithoutSrcset())
	}
	p, err := page.Load(ctx, uri, pageOpts...)
	if err != nil {
		return nil, err
	}

	s := &session{
		page:     p,
		registry: prometheus.NewRegistry(),
		logger:   p.Logger(),
	}
	loaderOpts := []lazyload.Option{
		lazyload.WithLogger(s.logger),
		lazyload.WithMetrics(s.registry),
	}

	if opts.scripts {
		s.engine = js.New(p, js.WithLogger(s.logger), js.WithLoaderOptions(loaderOpts...))
		if err := s.engine.Execute(); err != nil {
			s.Close()
			return nil, err
		}
		s.loaders = s.engine.Loaders()
	} else {
		l := lazyload.New(p, lazyload.Config{
			ContainerClass: opts.containerClass,
			LoadingClass:   opts.loadingClass,
		}, loaderOpts...)
		if _, err := l.Init(); err != nil {
			s.Close()
			return nil, err
		}
		s.loaders = []*lazyload.Loader{l}
	}

	if err := p.RunUntilIdle(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("waiting for images: %w", err)
	}
	return s, nil
}

// scrollTo moves the viewport and waits for the loads it triggered. Steps
// follow each other faster than the scroll throttle, so every loader's
// check runs explicitly after the scroll event.
func (s *session) scrollTo(ctx context.Context, y float64) (float64, error) {
	got := s.page.ScrollTo(y)
	for _, l := range s.loaders {
		l.CheckVisible()
	}
	if err := s.page.RunUntilIdle(ctx); err != nil {
		return got, fmt.Errorf("waiting for images at scroll %v: %w", y, err)
	}
	return got, nil
}

func (s *session) Close() {
	if s.engine != nil {
		s.engine.Close()
	} else {
		for _, l := range s.loaders {
			l.Close()
		}
	}
	s.page.Close()
}

// metrics flattens the loader counters and gauges into name/value pairs.
func (s *session) metrics() (map[string]float64, error) {
	families, err := s.registry.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(families))
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				out[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[mf.GetName()] += m.GetGauge().GetValue()
			}
		}
	}
	return out, nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
