package js

import (
	"github.com/dop251/goja"

	"lazyimg/pkg/html"
)

func (e *elementAccessor) appendChildFn() func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		child := e.ctx.mustNode(call.Argument(0), "appendChild")
		if child.Contains(e.node) {
			panic(e.ctx.vm.NewTypeError("Failed to execute 'appendChild': the new child contains the parent"))
		}
		if child.Parent != nil {
			child.Parent.RemoveChild(child)
		}
		e.node.AddChild(child)
		e.ctx.mutated()
		return e.ctx.elementProxy(child)
	}
}

func (e *elementAccessor) removeChildFn() func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		child := e.ctx.mustNode(call.Argument(0), "removeChild")
		if e.node.RemoveChild(child) == nil {
			panic(e.ctx.vm.NewTypeError("Failed to execute 'removeChild': The node to be removed is not a child of this node"))
		}
		e.ctx.mutated()
		return e.ctx.elementProxy(child)
	}
}

func (e *elementAccessor) insertBeforeFn() func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		child := e.ctx.mustNode(call.Argument(0), "insertBefore")
		if child.Contains(e.node) {
			panic(e.ctx.vm.NewTypeError("Failed to execute 'insertBefore': the new child contains the parent"))
		}
		ref := e.ctx.unwrapNode(call.Argument(1))
		e.node.InsertBefore(child, ref)
		e.ctx.mutated()
		return e.ctx.elementProxy(child)
	}
}

func (e *elementAccessor) removeFn() func(call goja.FunctionCall) goja.Value {
	return func(goja.FunctionCall) goja.Value {
		if e.node.Parent != nil {
			e.node.Parent.RemoveChild(e.node)
			e.ctx.mutated()
		}
		return goja.Undefined()
	}
}

// setInnerHTML parses src as a fragment and replaces the node's children.
// Scripts and styles in the fragment are ignored.
func (e *elementAccessor) setInnerHTML(src string) {
	for _, c := range e.node.Children {
		c.Parent = nil
	}
	e.node.Children = nil
	defer e.ctx.mutated()

	if src == "" {
		return
	}
	frag, err := html.Parse(src)
	if err != nil {
		e.ctx.logger.Warn("innerHTML parse failed", "err", err)
		return
	}
	for _, child := range append([]*html.Node(nil), frag.Root.Children...) {
		e.node.AddChild(child)
	}
}
