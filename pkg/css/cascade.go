package css

import (
	"sort"

	"lazyimg/pkg/html"
)

// ComputeStyle computes the final style for a node: matching rules in
// specificity order (source order breaks ties), then the inline style.
func ComputeStyle(node *html.Node, stylesheets []*Stylesheet) *Style {
	finalStyle := NewStyle()

	var matched []Rule
	for _, sheet := range stylesheets {
		for _, rule := range sheet.Rules {
			if MatchesSelector(node, rule.Selector) {
				matched = append(matched, rule)
			}
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Selector.Specificity < matched[j].Selector.Specificity
	})

	for _, rule := range matched {
		for property, value := range rule.Declarations {
			finalStyle.Set(property, value)
		}
	}

	if styleAttr, ok := node.GetAttribute("style"); ok {
		for property, value := range ParseInlineStyle(styleAttr).Properties {
			finalStyle.Set(property, value)
		}
	}

	return finalStyle
}

// ApplyStylesToDocument computes the style of every element in the document.
func ApplyStylesToDocument(doc *html.Document) map[*html.Node]*Style {
	stylesheets := make([]*Stylesheet, 0, len(doc.Stylesheets))
	for _, src := range doc.Stylesheets {
		if sheet, err := ParseStylesheet(src); err == nil {
			stylesheets = append(stylesheets, sheet)
		}
	}

	styles := make(map[*html.Node]*Style)
	html.Walk(doc.Root, func(n *html.Node) bool {
		if n.IsElement() {
			styles[n] = ComputeStyle(n, stylesheets)
		}
		return false
	})
	return styles
}
