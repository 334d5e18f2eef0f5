package js

import (
	"github.com/dop251/goja"

	"lazyimg/pkg/event"
	"lazyimg/pkg/lazyload"
)

// lazyLoadImages implements the global lazyLoadImages(config). It returns
// the manual re-check function, or undefined when the page has no srcset
// support.
func (e *Engine) lazyLoadImages(call goja.FunctionCall) goja.Value {
	if !e.page.SupportsSrcset() {
		return goja.Undefined()
	}
	opts := append([]lazyload.Option{lazyload.WithLogger(e.logger)}, e.loaderOpts...)
	ld := lazyload.New(e.page, e.loaderConfig(call.Argument(0)), opts...)
	check, err := ld.Init()
	if err != nil {
		panic(e.vm.NewGoError(err))
	}
	e.loaders = append(e.loaders, ld)
	return e.vm.ToValue(func(goja.FunctionCall) goja.Value {
		check()
		return goja.Undefined()
	})
}

// loaderConfig reads {containerClass, loadingClass, callback}. Missing or
// empty values keep their defaults; a non-function callback is ignored.
func (e *Engine) loaderConfig(v goja.Value) lazyload.Config {
	var cfg lazyload.Config
	obj, ok := v.(*goja.Object)
	if !ok {
		return cfg
	}
	if s := obj.Get("containerClass"); present(s) {
		cfg.ContainerClass = s.String()
	}
	if s := obj.Get("loadingClass"); present(s) {
		cfg.LoadingClass = s.String()
	}
	if cb, ok := goja.AssertFunction(obj.Get("callback")); ok {
		cfg.Callback = func(ev *event.Event) {
			if _, err := cb(goja.Undefined(), e.dom.eventProxy(ev)); err != nil {
				e.logger.Warn("lazyload callback threw", "err", err)
			}
		}
	}
	return cfg
}

func present(v goja.Value) bool {
	return v != nil && !goja.IsUndefined(v) && !goja.IsNull(v)
}
