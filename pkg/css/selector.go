package css

import "strings"

type Combinator int

const (
	DescendantCombinator Combinator = iota // "a b"
	ChildCombinator                        // "a > b"
)

// AttributeSelector is [name], [name=value], [name^=value], [name$=value],
// [name*=value] or [name~=value].
type AttributeSelector struct {
	Name     string
	Operator string
	Value    string
}

// SelectorPart is one compound selector, e.g. "img.hero#top[data-lazyload]".
type SelectorPart struct {
	Element    string
	ID         string
	Classes    []string
	Attributes []AttributeSelector
}

// Selector is a complex selector: Parts joined by Combinators
// (len(Combinators) == len(Parts)-1).
type Selector struct {
	Raw         string
	Parts       []SelectorPart
	Combinators []Combinator
	Specificity int
}

// SplitSelectorGroup splits "a, b .c" into its comma-separated selectors,
// ignoring commas inside attribute brackets.
func SplitSelectorGroup(group string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(group); i++ {
		switch group[i] {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				if s := strings.TrimSpace(group[start:i]); s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(group[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// ParseSelector parses a single complex selector. Pseudo-classes and
// pseudo-elements make the selector unmatchable; Parts is then empty.
func ParseSelector(raw string) Selector {
	sel := Selector{Raw: strings.TrimSpace(raw)}
	tokens := strings.Fields(strings.ReplaceAll(sel.Raw, ">", " > "))

	pending := DescendantCombinator
	for _, tok := range tokens {
		if tok == ">" {
			pending = ChildCombinator
			continue
		}
		part, ok := parseCompound(tok)
		if !ok {
			return Selector{Raw: sel.Raw}
		}
		if len(sel.Parts) > 0 {
			sel.Combinators = append(sel.Combinators, pending)
		}
		sel.Parts = append(sel.Parts, part)
		sel.Specificity += part.specificity()
		pending = DescendantCombinator
	}
	return sel
}

func (p SelectorPart) specificity() int {
	s := 0
	if p.ID != "" {
		s += 100
	}
	s += 10 * (len(p.Classes) + len(p.Attributes))
	if p.Element != "" && p.Element != "*" {
		s++
	}
	return s
}

func parseCompound(tok string) (SelectorPart, bool) {
	var part SelectorPart
	i := 0
	readName := func() string {
		start := i
		for i < len(tok) && !strings.ContainsRune(".#[:", rune(tok[i])) {
			i++
		}
		return tok[start:i]
	}

	part.Element = strings.ToLower(readName())
	for i < len(tok) {
		switch tok[i] {
		case '.':
			i++
			part.Classes = append(part.Classes, readName())
		case '#':
			i++
			part.ID = readName()
		case '[':
			end := strings.IndexByte(tok[i:], ']')
			if end < 0 {
				return part, false
			}
			part.Attributes = append(part.Attributes, parseAttributeSelector(tok[i+1:i+end]))
			i += end + 1
		default:
			// ':' pseudo-classes are not supported by a static engine.
			return part, false
		}
	}
	return part, true
}

func parseAttributeSelector(body string) AttributeSelector {
	for _, op := range []string{"^=", "$=", "*=", "~=", "="} {
		if name, value, ok := strings.Cut(body, op); ok {
			return AttributeSelector{
				Name:     strings.ToLower(strings.TrimSpace(name)),
				Operator: op,
				Value:    strings.Trim(strings.TrimSpace(value), `"'`),
			}
		}
	}
	return AttributeSelector{Name: strings.ToLower(strings.TrimSpace(body))}
}
