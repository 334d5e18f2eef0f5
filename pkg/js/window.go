package js

import (
	"github.com/dop251/goja"

	"lazyimg/pkg/event"
	"lazyimg/pkg/html"
)

// windowAccessor exposes the page's viewport and scroll position.
type windowAccessor struct {
	ctx *domContext
}

var windowKeys = []string{
	"document", "innerWidth", "innerHeight", "devicePixelRatio",
	"scrollY", "pageYOffset", "scrollTo", "scrollBy",
	"addEventListener", "removeEventListener", "dispatchEvent",
}

func (ctx *domContext) registerWindow() {
	ctx.window = ctx.vm.NewDynamicObject(&windowAccessor{ctx: ctx})
	ctx.vm.Set("window", ctx.window)
}

func (w *windowAccessor) Get(key string) goja.Value {
	ctx := w.ctx
	vm := ctx.vm
	p := ctx.page

	switch key {
	case "document":
		return ctx.document
	case "innerWidth":
		return vm.ToValue(p.Viewport().Width)
	case "innerHeight":
		return vm.ToValue(p.InnerHeight())
	case "devicePixelRatio":
		return vm.ToValue(p.Viewport().DevicePixelRatio)
	case "scrollY", "pageYOffset":
		return vm.ToValue(p.ScrollY())
	case "scrollTo":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			p.ScrollTo(scrollTarget(call, p.ScrollY()))
			return goja.Undefined()
		})
	case "scrollBy":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			p.ScrollBy(scrollTarget(call, 0))
			return goja.Undefined()
		})
	case "addEventListener":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return ctx.addListener(nil, ctx.window, call)
		})
	case "removeEventListener":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return ctx.removeListener(nil, call)
		})
	case "dispatchEvent":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return ctx.dispatch(nil, call)
		})
	}
	return goja.Undefined()
}

// scrollTarget reads the y coordinate from scrollTo(x, y) or
// scrollTo({top: y}). fallback is used when no y is given.
func scrollTarget(call goja.FunctionCall, fallback float64) float64 {
	switch len(call.Arguments) {
	case 0:
		return fallback
	case 1:
		if obj, ok := call.Arguments[0].(*goja.Object); ok {
			if top := obj.Get("top"); top != nil && !goja.IsUndefined(top) {
				return top.ToFloat()
			}
		}
		return fallback
	}
	return call.Arguments[1].ToFloat()
}

func (w *windowAccessor) Set(string, goja.Value) bool { return false }

func (w *windowAccessor) Has(key string) bool { return contains(windowKeys, key) }

func (w *windowAccessor) Delete(string) bool { return false }

func (w *windowAccessor) Keys() []string { return windowKeys }

// registerEventConstructors defines Event and CustomEvent.
func (ctx *domContext) registerEventConstructors() {
	newEvent := func(call goja.ConstructorCall, custom bool) *goja.Object {
		if len(call.Arguments) == 0 {
			panic(ctx.vm.NewTypeError("Failed to construct 'Event': 1 argument required"))
		}
		ev := event.New(call.Arguments[0].String())
		if opts, ok := call.Argument(1).(*goja.Object); ok {
			if b := opts.Get("bubbles"); b != nil {
				ev.Bubbles = b.ToBoolean()
			}
			if d := opts.Get("detail"); custom && d != nil {
				ev.Detail = d
			}
		}
		obj := ctx.vm.NewDynamicObject(&eventAccessor{ctx: ctx, ev: ev})
		ctx.events[ev] = obj
		ctx.eventObjs[obj] = ev
		return obj
	}
	ctx.vm.Set("Event", func(call goja.ConstructorCall) *goja.Object { return newEvent(call, false) })
	ctx.vm.Set("CustomEvent", func(call goja.ConstructorCall) *goja.Object { return newEvent(call, true) })
}

// eventProxy returns the script's own object for events it constructed and
// a fresh wrapper for events raised by the engine.
func (ctx *domContext) eventProxy(ev *event.Event) goja.Value {
	if obj, ok := ctx.events[ev]; ok {
		return obj
	}
	return ctx.vm.NewDynamicObject(&eventAccessor{ctx: ctx, ev: ev})
}

type eventAccessor struct {
	ctx *domContext
	ev  *event.Event
}

var eventKeys = []string{"type", "target", "currentTarget", "bubbles", "timeStamp", "detail", "stopPropagation"}

func (a *eventAccessor) Get(key string) goja.Value {
	vm := a.ctx.vm
	switch key {
	case "type":
		return vm.ToValue(a.ev.Type)
	case "target":
		return a.ctx.targetProxy(a.ev, a.ev.Target)
	case "currentTarget":
		return a.ctx.targetProxy(a.ev, a.ev.CurrentTarget)
	case "bubbles":
		return vm.ToValue(a.ev.Bubbles)
	case "timeStamp":
		if a.ev.TimeStamp.IsZero() {
			return vm.ToValue(0)
		}
		return vm.ToValue(float64(a.ev.TimeStamp.UnixNano()) / 1e6)
	case "detail":
		if v, ok := a.ev.Detail.(goja.Value); ok {
			return v
		}
		if a.ev.Detail != nil {
			return vm.ToValue(a.ev.Detail)
		}
		return goja.Null()
	case "stopPropagation":
		return vm.ToValue(func(goja.FunctionCall) goja.Value {
			a.ev.StopPropagation()
			return goja.Undefined()
		})
	}
	return goja.Undefined()
}

func (a *eventAccessor) Set(string, goja.Value) bool { return false }

func (a *eventAccessor) Has(key string) bool { return contains(eventKeys, key) }

func (a *eventAccessor) Delete(string) bool { return false }

func (a *eventAccessor) Keys() []string { return eventKeys }

// targetProxy maps a dispatch target to JS. A nil node is the window once
// the event has been dispatched, and null before.
func (ctx *domContext) targetProxy(ev *event.Event, n *html.Node) goja.Value {
	if n != nil {
		return ctx.elementProxy(n)
	}
	if ev.TimeStamp.IsZero() {
		return goja.Null()
	}
	return ctx.window
}

// addListener implements addEventListener(type, fn) for node (nil is the
// window). Registering the same function twice is a no-op.
func (ctx *domContext) addListener(node *html.Node, this goja.Value, call goja.FunctionCall) goja.Value {
	if len(call.Arguments) < 2 {
		panic(ctx.vm.NewTypeError("Failed to execute 'addEventListener': 2 arguments required"))
	}
	typ := call.Arguments[0].String()
	fnObj, _ := call.Arguments[1].(*goja.Object)
	fn, ok := goja.AssertFunction(call.Arguments[1])
	if !ok {
		return goja.Undefined()
	}
	k := listenerKey{node: node, typ: typ, fn: fnObj}
	if _, dup := ctx.listeners[k]; dup {
		return goja.Undefined()
	}
	ctx.listeners[k] = ctx.page.AddEventListener(node, typ, func(ev *event.Event) {
		if _, err := fn(this, ctx.eventProxy(ev)); err != nil {
			ctx.logger.Warn("event listener threw", "type", typ, "err", err)
		}
	})
	return goja.Undefined()
}

func (ctx *domContext) removeListener(node *html.Node, call goja.FunctionCall) goja.Value {
	fnObj, _ := call.Argument(1).(*goja.Object)
	k := listenerKey{node: node, typ: call.Argument(0).String(), fn: fnObj}
	if remove, ok := ctx.listeners[k]; ok {
		remove()
		delete(ctx.listeners, k)
	}
	return goja.Undefined()
}

func (ctx *domContext) dispatch(node *html.Node, call goja.FunctionCall) goja.Value {
	obj, _ := call.Argument(0).(*goja.Object)
	ev, ok := ctx.eventObjs[obj]
	if !ok {
		panic(ctx.vm.NewTypeError("Failed to execute 'dispatchEvent': parameter 1 is not of type 'Event'"))
	}
	ctx.page.DispatchEvent(node, ev)
	return ctx.vm.ToValue(true)
}
