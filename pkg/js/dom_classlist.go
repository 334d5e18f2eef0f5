package js

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/dop251/goja"

	"lazyimg/pkg/html"
)

// classListAccessor implements DOMTokenList for element.classList.
type classListAccessor struct {
	ctx  *domContext
	node *html.Node
}

var classListKeys = []string{"length", "value", "add", "remove", "toggle", "contains", "item", "toString"}

func (cl *classListAccessor) Get(key string) goja.Value {
	vm := cl.ctx.vm
	classes := cl.node.Classes()

	switch key {
	case "length":
		return vm.ToValue(len(classes))
	case "value":
		return vm.ToValue(strings.Join(classes, " "))
	case "add":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			for _, arg := range call.Arguments {
				cl.node.AddClass(arg.String())
			}
			cl.ctx.mutated()
			return goja.Undefined()
		})
	case "remove":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			for _, arg := range call.Arguments {
				cl.node.RemoveClass(arg.String())
			}
			cl.ctx.mutated()
			return goja.Undefined()
		})
	case "toggle":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				panic(vm.NewTypeError("Failed to execute 'toggle': 1 argument required"))
			}
			token := call.Arguments[0].String()
			defer cl.ctx.mutated()
			if len(call.Arguments) > 1 {
				if call.Arguments[1].ToBoolean() {
					cl.node.AddClass(token)
					return vm.ToValue(true)
				}
				cl.node.RemoveClass(token)
				return vm.ToValue(false)
			}
			return vm.ToValue(cl.node.ToggleClass(token))
		})
	case "contains":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(cl.node.HasClass(call.Argument(0).String()))
		})
	case "item":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			idx := int(call.Argument(0).ToInteger())
			if idx < 0 || idx >= len(classes) {
				return goja.Null()
			}
			return vm.ToValue(classes[idx])
		})
	case "toString":
		return vm.ToValue(func(goja.FunctionCall) goja.Value {
			return vm.ToValue(strings.Join(classes, " "))
		})
	default:
		if idx, err := strconv.Atoi(key); err == nil && idx >= 0 && idx < len(classes) {
			return vm.ToValue(classes[idx])
		}
	}
	return goja.Undefined()
}

func (cl *classListAccessor) Set(key string, val goja.Value) bool {
	if key != "value" {
		return false
	}
	cl.node.SetAttribute("class", val.String())
	cl.ctx.mutated()
	return true
}

func (cl *classListAccessor) Has(key string) bool {
	if idx, err := strconv.Atoi(key); err == nil {
		return idx >= 0 && idx < len(cl.node.Classes())
	}
	return contains(classListKeys, key)
}

func (cl *classListAccessor) Delete(string) bool { return false }

func (cl *classListAccessor) Keys() []string { return classListKeys }

// datasetAccessor implements DOMStringMap for element.dataset.
type datasetAccessor struct {
	ctx  *domContext
	node *html.Node
}

func (d *datasetAccessor) Get(key string) goja.Value {
	val, ok := d.node.GetAttribute(html.DatasetAttr(key))
	if !ok {
		return goja.Undefined()
	}
	return d.ctx.vm.ToValue(val)
}

func (d *datasetAccessor) Set(key string, val goja.Value) bool {
	d.node.SetAttribute(html.DatasetAttr(key), val.String())
	d.ctx.mutated()
	return true
}

func (d *datasetAccessor) Has(key string) bool {
	_, ok := d.node.GetAttribute(html.DatasetAttr(key))
	return ok
}

func (d *datasetAccessor) Delete(key string) bool {
	d.node.RemoveAttribute(html.DatasetAttr(key))
	d.ctx.mutated()
	return true
}

func (d *datasetAccessor) Keys() []string {
	ds := d.node.Dataset()
	keys := make([]string, 0, len(ds))
	for k := range ds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// styleAccessor maps camelCase property access to the inline style
// attribute.
type styleAccessor struct {
	ctx  *domContext
	node *html.Node
}

func (s *styleAccessor) Get(key string) goja.Value {
	val := parseInlineStyle(s.attr())[camelToKebab(key)]
	return s.ctx.vm.ToValue(val)
}

func (s *styleAccessor) Set(key string, val goja.Value) bool {
	styles := parseInlineStyle(s.attr())
	styles[camelToKebab(key)] = val.String()
	s.write(styles)
	return true
}

func (s *styleAccessor) Has(string) bool { return true }

func (s *styleAccessor) Delete(key string) bool {
	styles := parseInlineStyle(s.attr())
	delete(styles, camelToKebab(key))
	s.write(styles)
	return true
}

func (s *styleAccessor) Keys() []string {
	styles := parseInlineStyle(s.attr())
	keys := make([]string, 0, len(styles))
	for k := range styles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *styleAccessor) attr() string {
	v, _ := s.node.GetAttribute("style")
	return v
}

func (s *styleAccessor) write(styles map[string]string) {
	keys := make([]string, 0, len(styles))
	for k := range styles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + styles[k]
	}
	s.node.SetAttribute("style", strings.Join(parts, "; "))
	s.ctx.mutated()
}

func parseInlineStyle(s string) map[string]string {
	result := make(map[string]string)
	for _, decl := range strings.Split(s, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		result[strings.TrimSpace(prop)] = strings.TrimSpace(val)
	}
	return result
}

// camelToKebab converts a JS camelCase property name to CSS kebab-case.
func camelToKebab(s string) string {
	if s == "cssFloat" {
		return "float"
	}
	var sb strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
