package html

// Walk visits n and its descendants in document order. Returning true from
// visit stops the walk.
func Walk(n *Node, visit func(*Node) bool) bool {
	if visit(n) {
		return true
	}
	for _, child := range n.Children {
		if Walk(child, visit) {
			return true
		}
	}
	return false
}

// ElementsByClassName collects descendants of root (root excluded) carrying cls.
func ElementsByClassName(root *Node, cls string) []*Node {
	var result []*Node
	for _, child := range root.Children {
		Walk(child, func(n *Node) bool {
			if n.Type == ElementNode && n.HasClass(cls) {
				result = append(result, n)
			}
			return false
		})
	}
	return result
}

// ElementsByTagName collects descendants of root (root excluded) with the tag.
func ElementsByTagName(root *Node, tag string) []*Node {
	var result []*Node
	for _, child := range root.Children {
		Walk(child, func(n *Node) bool {
			if n.Type == ElementNode && n.TagName == tag {
				result = append(result, n)
			}
			return false
		})
	}
	return result
}

// FirstElementByTag returns the first descendant of root with the tag, or nil.
func FirstElementByTag(root *Node, tag string) *Node {
	var found *Node
	for _, child := range root.Children {
		if Walk(child, func(n *Node) bool {
			if n.Type == ElementNode && n.TagName == tag {
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

// ElementByID returns the first element whose id attribute equals id.
func ElementByID(root *Node, id string) *Node {
	var found *Node
	Walk(root, func(n *Node) bool {
		if n.Type == ElementNode {
			if v, ok := n.Attributes["id"]; ok && v == id {
				found = n
				return true
			}
		}
		return false
	})
	return found
}

// Body returns the document's <body> element, or nil for fragments.
func (d *Document) Body() *Node {
	return FirstElementByTag(d.Root, "body")
}
