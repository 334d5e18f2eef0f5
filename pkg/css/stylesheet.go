package css

import (
	"fmt"
	"strings"
)

// Rule represents a CSS rule (selector + declarations)
type Rule struct {
	Selector     Selector
	Declarations map[string]string // property -> value
}

// Stylesheet represents a parsed CSS stylesheet
type Stylesheet struct {
	Rules []Rule
}

// ParseStylesheet parses CSS stylesheet content into rules. Malformed rules
// and at-rules (@media, @font-face, ...) are skipped.
func ParseStylesheet(src string) (*Stylesheet, error) {
	sheet := &Stylesheet{Rules: make([]Rule, 0)}

	for _, ruleStr := range splitRules(stripComments(src)) {
		selectorStr, declStr, err := splitRule(ruleStr)
		if err != nil || strings.HasPrefix(selectorStr, "@") {
			continue
		}
		decls := parseDeclarations(declStr)
		for _, s := range SplitSelectorGroup(selectorStr) {
			sel := ParseSelector(s)
			if len(sel.Parts) == 0 {
				continue
			}
			sheet.Rules = append(sheet.Rules, Rule{
				Selector:     sel,
				Declarations: decls,
			})
		}
	}

	return sheet, nil
}

func stripComments(src string) string {
	var sb strings.Builder
	for {
		start := strings.Index(src, "/*")
		if start < 0 {
			sb.WriteString(src)
			return sb.String()
		}
		sb.WriteString(src[:start])
		end := strings.Index(src[start+2:], "*/")
		if end < 0 {
			return sb.String()
		}
		src = src[start+2+end+2:]
	}
}

// splitRules splits CSS into top-level "selector { ... }" chunks,
// keeping nested blocks (at-rules) intact.
func splitRules(src string) []string {
	rules := make([]string, 0)
	depth, start := 0, 0

	for i, ch := range src {
		switch ch {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				if ruleStr := strings.TrimSpace(src[start : i+1]); ruleStr != "" {
					rules = append(rules, ruleStr)
				}
				start = i + 1
			}
			if depth < 0 {
				depth = 0
				start = i + 1
			}
		}
	}

	return rules
}

func splitRule(ruleStr string) (selector, decls string, err error) {
	brace := strings.Index(ruleStr, "{")
	if brace == -1 {
		return "", "", fmt.Errorf("no opening brace found")
	}
	end := strings.LastIndex(ruleStr, "}")
	if end < brace {
		end = len(ruleStr)
	}
	return strings.TrimSpace(ruleStr[:brace]), ruleStr[brace+1 : end], nil
}

// parseDeclarations parses "prop: value; ..." with shorthand expansion.
func parseDeclarations(declStr string) map[string]string {
	return ParseInlineStyle(declStr).Properties
}
