package js

import (
	"log/slog"
	"strings"

	"github.com/dop251/goja"

	"lazyimg/pkg/event"
	"lazyimg/pkg/html"
	"lazyimg/pkg/page"
)

// domContext holds the bindings' shared state. Proxies are cached per node
// so the same JS object is returned for the same *html.Node (=== identity).
type domContext struct {
	vm     *goja.Runtime
	page   *page.Page
	doc    *html.Document
	logger *slog.Logger

	cache map[*html.Node]*goja.Object
	nodes map[*goja.Object]*html.Node

	// Events constructed by scripts, so dispatchEvent can find them again.
	events    map[*event.Event]*goja.Object
	eventObjs map[*goja.Object]*event.Event

	listeners map[listenerKey]func()
	window    *goja.Object
	document  *goja.Object
}

type listenerKey struct {
	node *html.Node
	typ  string
	fn   *goja.Object
}

func newDOMContext(vm *goja.Runtime, p *page.Page, logger *slog.Logger) *domContext {
	return &domContext{
		vm:        vm,
		page:      p,
		doc:       p.Document(),
		logger:    logger,
		cache:     make(map[*html.Node]*goja.Object),
		nodes:     make(map[*goja.Object]*html.Node),
		events:    make(map[*event.Event]*goja.Object),
		eventObjs: make(map[*goja.Object]*event.Event),
		listeners: make(map[listenerKey]func()),
	}
}

func (ctx *domContext) registerDocument() {
	ctx.document = ctx.vm.NewDynamicObject(&documentAccessor{ctx: ctx})
	ctx.vm.Set("document", ctx.document)
}

// elementProxy returns the cached proxy for node, or null for nil.
func (ctx *domContext) elementProxy(node *html.Node) goja.Value {
	if node == nil {
		return goja.Null()
	}
	if node.TagName == html.RootTag && node.Type == html.ElementNode {
		return ctx.document
	}
	if obj, ok := ctx.cache[node]; ok {
		return obj
	}
	obj := ctx.vm.NewDynamicObject(&elementAccessor{ctx: ctx, node: node})
	ctx.cache[node] = obj
	ctx.nodes[obj] = node
	return obj
}

func (ctx *domContext) elementArray(nodes []*html.Node) goja.Value {
	vals := make([]interface{}, len(nodes))
	for i, n := range nodes {
		vals[i] = ctx.elementProxy(n)
	}
	return ctx.vm.NewArray(vals...)
}

// unwrapNode returns the node behind a proxy, or nil.
func (ctx *domContext) unwrapNode(val goja.Value) *html.Node {
	obj, ok := val.(*goja.Object)
	if !ok {
		return nil
	}
	if obj == ctx.document {
		return ctx.doc.Root
	}
	return ctx.nodes[obj]
}

func (ctx *domContext) mustNode(val goja.Value, method string) *html.Node {
	n := ctx.unwrapNode(val)
	if n == nil {
		panic(ctx.vm.NewTypeError("Failed to execute '%s': parameter is not a Node", method))
	}
	return n
}

// mutated tells the page its layout is stale.
func (ctx *domContext) mutated() { ctx.page.Invalidate() }

type documentAccessor struct {
	ctx *domContext
}

var documentKeys = []string{
	"getElementById", "getElementsByTagName", "getElementsByClassName",
	"querySelector", "querySelectorAll", "createElement", "createTextNode",
	"body", "head", "documentElement", "readyState",
	"addEventListener", "removeEventListener", "dispatchEvent",
}

func (d *documentAccessor) Get(key string) goja.Value {
	ctx := d.ctx
	vm := ctx.vm
	root := ctx.doc.Root

	switch key {
	case "getElementById":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return ctx.elementProxy(html.ElementByID(root, call.Argument(0).String()))
		})
	case "getElementsByTagName":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return ctx.elementArray(html.ElementsByTagName(root, strings.ToLower(call.Argument(0).String())))
		})
	case "getElementsByClassName":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return ctx.elementArray(html.ElementsByClassName(root, call.Argument(0).String()))
		})
	case "querySelector":
		return vm.ToValue(querySelectorFn(ctx, root))
	case "querySelectorAll":
		return vm.ToValue(querySelectorAllFn(ctx, root))
	case "createElement":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				panic(vm.NewTypeError("Failed to execute 'createElement' on 'Document': 1 argument required"))
			}
			return ctx.elementProxy(html.NewElement(call.Arguments[0].String()))
		})
	case "createTextNode":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return ctx.elementProxy(&html.Node{Type: html.TextNode, Text: call.Argument(0).String()})
		})
	case "body":
		return ctx.elementProxy(ctx.doc.Body())
	case "head":
		return ctx.elementProxy(html.FirstElementByTag(root, "head"))
	case "documentElement":
		return ctx.elementProxy(html.FirstElementByTag(root, "html"))
	case "readyState":
		return vm.ToValue("complete")
	case "addEventListener":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return ctx.addListener(root, ctx.document, call)
		})
	case "removeEventListener":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return ctx.removeListener(root, call)
		})
	case "dispatchEvent":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return ctx.dispatch(root, call)
		})
	}
	return goja.Undefined()
}

func (d *documentAccessor) Set(string, goja.Value) bool { return false }
func (d *documentAccessor) Has(key string) bool         { return contains(documentKeys, key) }
func (d *documentAccessor) Delete(string) bool          { return false }
func (d *documentAccessor) Keys() []string              { return documentKeys }

// elementAccessor implements goja.DynamicObject for DOM element proxies.
type elementAccessor struct {
	ctx  *domContext
	node *html.Node
}

var elementKeys = []string{
	"nodeType", "nodeName", "tagName", "id", "className", "textContent",
	"innerHTML", "outerHTML",
	"getAttribute", "setAttribute", "hasAttribute", "removeAttribute",
	"classList", "dataset", "style",
	"parentNode", "parentElement", "children", "childNodes", "offsetParent",
	"getBoundingClientRect",
	"querySelector", "querySelectorAll", "matches", "closest",
	"getElementsByTagName", "getElementsByClassName",
	"appendChild", "removeChild", "insertBefore", "remove", "contains",
	"addEventListener", "removeEventListener", "dispatchEvent",
}

func (e *elementAccessor) isImage() bool {
	return e.node.Type == html.ElementNode && e.node.TagName == "img"
}

func (e *elementAccessor) Get(key string) goja.Value {
	ctx := e.ctx
	vm := ctx.vm
	n := e.node

	switch key {
	case "nodeType":
		if n.Type == html.TextNode {
			return vm.ToValue(3)
		}
		return vm.ToValue(1)
	case "nodeName", "tagName":
		if n.Type == html.TextNode {
			if key == "nodeName" {
				return vm.ToValue("#text")
			}
			return goja.Undefined()
		}
		return vm.ToValue(strings.ToUpper(n.TagName))
	case "id":
		id, _ := n.GetAttribute("id")
		return vm.ToValue(id)
	case "className":
		cls, _ := n.GetAttribute("class")
		return vm.ToValue(cls)
	case "textContent":
		return vm.ToValue(n.TextContent())
	case "innerHTML":
		return vm.ToValue(n.Serialize())
	case "outerHTML":
		return vm.ToValue(n.SerializeOuter())
	case "srcset":
		if !e.isImage() || !ctx.page.SupportsSrcset() {
			return goja.Undefined()
		}
		return vm.ToValue(ctx.page.Srcset(n))
	case "currentSrc":
		if !e.isImage() {
			return goja.Undefined()
		}
		return vm.ToValue(ctx.page.CurrentSrc(n))

	case "getAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			val, ok := n.GetAttribute(strings.ToLower(call.Argument(0).String()))
			if !ok {
				return goja.Null()
			}
			return vm.ToValue(val)
		})
	case "setAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) < 2 {
				panic(vm.NewTypeError("Failed to execute 'setAttribute': 2 arguments required"))
			}
			e.setAttribute(strings.ToLower(call.Arguments[0].String()), call.Arguments[1].String())
			return goja.Undefined()
		})
	case "hasAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			_, ok := n.GetAttribute(strings.ToLower(call.Argument(0).String()))
			return vm.ToValue(ok)
		})
	case "removeAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			n.RemoveAttribute(strings.ToLower(call.Argument(0).String()))
			ctx.mutated()
			return goja.Undefined()
		})

	case "classList":
		return vm.NewDynamicObject(&classListAccessor{ctx: ctx, node: n})
	case "dataset":
		return vm.NewDynamicObject(&datasetAccessor{ctx: ctx, node: n})
	case "style":
		return vm.NewDynamicObject(&styleAccessor{ctx: ctx, node: n})

	case "parentNode":
		return ctx.elementProxy(n.Parent)
	case "parentElement":
		if n.Parent.IsElement() {
			return ctx.elementProxy(n.Parent)
		}
		return goja.Null()
	case "children":
		var kids []*html.Node
		for _, c := range n.Children {
			if c.IsElement() {
				kids = append(kids, c)
			}
		}
		return ctx.elementArray(kids)
	case "childNodes":
		return ctx.elementArray(n.Children)
	case "offsetParent":
		return ctx.elementProxy(ctx.page.OffsetParent(n))
	case "getBoundingClientRect":
		return vm.ToValue(func(goja.FunctionCall) goja.Value {
			r := ctx.page.BoundingClientRect(n)
			rect := vm.NewObject()
			rect.Set("x", r.X)
			rect.Set("y", r.Y)
			rect.Set("top", r.Top())
			rect.Set("bottom", r.Bottom())
			rect.Set("left", r.Left())
			rect.Set("right", r.Right())
			rect.Set("width", r.Width)
			rect.Set("height", r.Height)
			return rect
		})

	case "querySelector":
		return vm.ToValue(querySelectorFn(ctx, n))
	case "querySelectorAll":
		return vm.ToValue(querySelectorAllFn(ctx, n))
	case "matches":
		return vm.ToValue(matchesFn(ctx, n))
	case "closest":
		return vm.ToValue(closestFn(ctx, n))
	case "getElementsByTagName":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return ctx.elementArray(html.ElementsByTagName(n, strings.ToLower(call.Argument(0).String())))
		})
	case "getElementsByClassName":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return ctx.elementArray(html.ElementsByClassName(n, call.Argument(0).String()))
		})

	case "appendChild":
		return vm.ToValue(e.appendChildFn())
	case "removeChild":
		return vm.ToValue(e.removeChildFn())
	case "insertBefore":
		return vm.ToValue(e.insertBeforeFn())
	case "remove":
		return vm.ToValue(e.removeFn())
	case "contains":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			other := ctx.unwrapNode(call.Argument(0))
			return vm.ToValue(other != nil && n.Contains(other))
		})

	case "addEventListener":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return ctx.addListener(n, ctx.elementProxy(n), call)
		})
	case "removeEventListener":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return ctx.removeListener(n, call)
		})
	case "dispatchEvent":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return ctx.dispatch(n, call)
		})
	}
	return goja.Undefined()
}

func (e *elementAccessor) Set(key string, val goja.Value) bool {
	switch key {
	case "id":
		e.setAttribute("id", val.String())
	case "className":
		e.setAttribute("class", val.String())
	case "srcset":
		if !e.isImage() {
			return false
		}
		e.setAttribute("srcset", val.String())
	case "textContent":
		setTextContent(e.node, val.String())
		e.ctx.mutated()
	case "innerHTML":
		e.setInnerHTML(val.String())
	default:
		return false
	}
	return true
}

// setAttribute writes an attribute. Assigning srcset on an image starts
// loading it, as in a browser.
func (e *elementAccessor) setAttribute(name, value string) {
	if name == "srcset" && e.isImage() && e.ctx.page.SupportsSrcset() {
		e.ctx.page.SetSrcset(e.node, value)
		return
	}
	e.node.SetAttribute(name, value)
	e.ctx.mutated()
}

// Has backs the `in` operator. `'srcset' in img` is the feature test for
// responsive images.
func (e *elementAccessor) Has(key string) bool {
	switch key {
	case "srcset", "currentSrc":
		return e.isImage() && e.ctx.page.SupportsSrcset()
	}
	return contains(elementKeys, key)
}

func (e *elementAccessor) Delete(string) bool { return false }

func (e *elementAccessor) Keys() []string {
	if e.isImage() && e.ctx.page.SupportsSrcset() {
		return append([]string{"srcset", "currentSrc"}, elementKeys...)
	}
	return elementKeys
}

func setTextContent(node *html.Node, text string) {
	for _, c := range node.Children {
		c.Parent = nil
	}
	node.Children = nil
	node.AppendText(text)
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
