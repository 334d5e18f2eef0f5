package js

import (
	"github.com/dop251/goja"

	"lazyimg/pkg/css"
	"lazyimg/pkg/html"
)

func querySelectorFn(ctx *domContext, root *html.Node) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(ctx.vm.NewTypeError("Failed to execute 'querySelector': 1 argument required"))
		}
		return ctx.elementProxy(css.Query(root, call.Arguments[0].String()))
	}
}

func querySelectorAllFn(ctx *domContext, root *html.Node) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(ctx.vm.NewTypeError("Failed to execute 'querySelectorAll': 1 argument required"))
		}
		return ctx.elementArray(css.QueryAll(root, call.Arguments[0].String()))
	}
}

func matchesFn(ctx *domContext, node *html.Node) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(ctx.vm.NewTypeError("Failed to execute 'matches': 1 argument required"))
		}
		return ctx.vm.ToValue(css.Matches(node, call.Arguments[0].String()))
	}
}

// closestFn implements element.closest: node itself, then its ancestors.
func closestFn(ctx *domContext, node *html.Node) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(ctx.vm.NewTypeError("Failed to execute 'closest': 1 argument required"))
		}
		group := call.Arguments[0].String()
		for cur := node; cur.IsElement(); cur = cur.Parent {
			if css.Matches(cur, group) {
				return ctx.elementProxy(cur)
			}
		}
		return goja.Null()
	}
}
