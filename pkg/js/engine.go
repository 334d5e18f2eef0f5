// Package js runs page scripts on goja with a DOM, a window and the
// lazyLoadImages global bound to a page.Page.
//
// The runtime is not safe for concurrent use. Scripts, event listeners and
// callbacks all run on the goroutine that drives the page.
package js

import (
	"fmt"
	"log/slog"

	"github.com/dop251/goja"

	"lazyimg/pkg/lazyload"
	"lazyimg/pkg/page"
)

// Engine executes JavaScript against a page's DOM.
type Engine struct {
	vm         *goja.Runtime
	page       *page.Page
	dom        *domContext
	logger     *slog.Logger
	loaderOpts []lazyload.Option
	loaders    []*lazyload.Loader
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for console output and listener errors.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithLoaderOptions passes options to every loader a script creates
// through lazyLoadImages.
func WithLoaderOptions(opts ...lazyload.Option) Option {
	return func(e *Engine) {
		e.loaderOpts = append(e.loaderOpts, opts...)
	}
}

// New creates an engine with document, window, Event, console and
// lazyLoadImages globals bound to p.
func New(p *page.Page, opts ...Option) *Engine {
	e := &Engine{
		vm:     goja.New(),
		page:   p,
		logger: p.Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}

	c := &consoleAPI{logger: e.logger}
	c.register(e.vm)

	e.dom = newDOMContext(e.vm, p, e.logger)
	e.dom.registerDocument()
	e.dom.registerWindow()
	e.dom.registerEventConstructors()
	e.vm.Set("lazyLoadImages", e.lazyLoadImages)

	return e
}

// Execute runs the document's scripts in order and stops at the first
// script that throws.
func (e *Engine) Execute() error {
	for i, script := range e.page.Document().Scripts {
		if _, err := e.vm.RunString(script); err != nil {
			return fmt.Errorf("script %d: %w", i, err)
		}
	}
	return nil
}

// RunString evaluates src in the page's global scope.
func (e *Engine) RunString(src string) (goja.Value, error) {
	return e.vm.RunString(src)
}

// Loaders returns the loaders scripts created, in call order.
func (e *Engine) Loaders() []*lazyload.Loader {
	return append([]*lazyload.Loader(nil), e.loaders...)
}

// Close stops every loader the scripts created.
func (e *Engine) Close() {
	for _, ld := range e.loaders {
		ld.Close()
	}
}
