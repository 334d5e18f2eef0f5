package html

import "strings"

// Classes returns the element's class tokens in document order.
func (n *Node) Classes() []string {
	attr, _ := n.GetAttribute("class")
	return strings.Fields(attr)
}

// HasClass reports whether the class attribute contains token.
func (n *Node) HasClass(token string) bool {
	for _, c := range n.Classes() {
		if c == token {
			return true
		}
	}
	return false
}

// AddClass appends token to the class list unless already present.
// Returns true if the list changed.
func (n *Node) AddClass(token string) bool {
	if token == "" || n.HasClass(token) {
		return false
	}
	n.SetAttribute("class", strings.Join(append(n.Classes(), token), " "))
	return true
}

// RemoveClass drops every occurrence of token. Returns true if the list changed.
func (n *Node) RemoveClass(token string) bool {
	classes := n.Classes()
	kept := classes[:0]
	for _, c := range classes {
		if c != token {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(classes) {
		return false
	}
	n.SetAttribute("class", strings.Join(kept, " "))
	return true
}

// ToggleClass flips token and returns whether it is present afterwards.
func (n *Node) ToggleClass(token string) bool {
	if n.RemoveClass(token) {
		return false
	}
	n.AddClass(token)
	return true
}

// Dataset returns the element's data-* attributes keyed by their camelCase
// names, the way DOMStringMap exposes them.
func (n *Node) Dataset() map[string]string {
	ds := make(map[string]string)
	for name, val := range n.Attributes {
		if key, ok := DatasetKey(name); ok {
			ds[key] = val
		}
	}
	return ds
}

// DatasetKey maps "data-foo-bar" to "fooBar".
func DatasetKey(attr string) (string, bool) {
	rest, ok := strings.CutPrefix(attr, "data-")
	if !ok || rest == "" {
		return "", false
	}
	var sb strings.Builder
	upper := false
	for i := 0; i < len(rest); i++ {
		c := rest[i]
		if c == '-' {
			upper = true
			continue
		}
		if upper && c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = false
		sb.WriteByte(c)
	}
	return sb.String(), true
}

// DatasetAttr maps "fooBar" back to "data-foo-bar".
func DatasetAttr(key string) string {
	var sb strings.Builder
	sb.WriteString("data-")
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c >= 'A' && c <= 'Z' {
			sb.WriteByte('-')
			c += 'a' - 'A'
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
