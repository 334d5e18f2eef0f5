package css

import (
	"strings"

	"lazyimg/pkg/html"
)

// MatchesSelector returns true if the node matches the complex selector
func MatchesSelector(node *html.Node, selector Selector) bool {
	if !node.IsElement() || len(selector.Parts) == 0 {
		return false
	}
	// Match right to left, starting at the target element.
	return matchesFrom(node, selector, len(selector.Parts)-1)
}

// Matches parses a selector group and reports whether node matches any member.
func Matches(node *html.Node, group string) bool {
	for _, s := range SplitSelectorGroup(group) {
		if MatchesSelector(node, ParseSelector(s)) {
			return true
		}
	}
	return false
}

func matchesFrom(node *html.Node, selector Selector, partIndex int) bool {
	if !matchesSelectorPart(node, selector.Parts[partIndex]) {
		return false
	}
	if partIndex == 0 {
		return true
	}

	switch selector.Combinators[partIndex-1] {
	case ChildCombinator:
		return node.Parent.IsElement() && matchesFrom(node.Parent, selector, partIndex-1)
	default:
		for ancestor := node.Parent; ancestor.IsElement(); ancestor = ancestor.Parent {
			if matchesFrom(ancestor, selector, partIndex-1) {
				return true
			}
		}
		return false
	}
}

// matchesSelectorPart checks if a node matches a single compound selector
func matchesSelectorPart(node *html.Node, part SelectorPart) bool {
	if part.Element != "" && part.Element != "*" && node.TagName != part.Element {
		return false
	}
	if part.ID != "" {
		if id, ok := node.GetAttribute("id"); !ok || id != part.ID {
			return false
		}
	}
	for _, cls := range part.Classes {
		if !node.HasClass(cls) {
			return false
		}
	}
	for _, attrSel := range part.Attributes {
		if !matchesAttributeSelector(node, attrSel) {
			return false
		}
	}
	return true
}

func matchesAttributeSelector(node *html.Node, attr AttributeSelector) bool {
	value, ok := node.GetAttribute(attr.Name)
	if !ok {
		return false
	}
	switch attr.Operator {
	case "":
		return true
	case "=":
		return value == attr.Value
	case "^=":
		return attr.Value != "" && strings.HasPrefix(value, attr.Value)
	case "$=":
		return attr.Value != "" && strings.HasSuffix(value, attr.Value)
	case "*=":
		return attr.Value != "" && strings.Contains(value, attr.Value)
	case "~=":
		for _, word := range strings.Fields(value) {
			if word == attr.Value {
				return true
			}
		}
	}
	return false
}

// QueryAll returns the descendants of root (root excluded) matching the
// selector group, in document order.
func QueryAll(root *html.Node, group string) []*html.Node {
	selectors := parseGroup(group)
	var out []*html.Node
	for _, child := range root.Children {
		html.Walk(child, func(n *html.Node) bool {
			if matchesAny(n, selectors) {
				out = append(out, n)
			}
			return false
		})
	}
	return out
}

// Query returns the first descendant of root matching the selector group.
func Query(root *html.Node, group string) *html.Node {
	selectors := parseGroup(group)
	var found *html.Node
	for _, child := range root.Children {
		if html.Walk(child, func(n *html.Node) bool {
			if matchesAny(n, selectors) {
				found = n
				return true
			}
			return false
		}) {
			break
		}
	}
	return found
}

func parseGroup(group string) []Selector {
	parts := SplitSelectorGroup(group)
	selectors := make([]Selector, len(parts))
	for i, s := range parts {
		selectors[i] = ParseSelector(s)
	}
	return selectors
}

func matchesAny(n *html.Node, selectors []Selector) bool {
	for _, sel := range selectors {
		if MatchesSelector(n, sel) {
			return true
		}
	}
	return false
}
