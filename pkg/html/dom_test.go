package html

import "testing"

func makeTree() *Node {
	// <div id="parent"><span>hello</span><p>world</p></div>
	parent := &Node{
		Type:       ElementNode,
		TagName:    "div",
		Attributes: map[string]string{"id": "parent"},
		Children:   make([]*Node, 0),
	}
	span := &Node{Type: ElementNode, TagName: "span", Children: make([]*Node, 0)}
	span.AppendText("hello")
	parent.AddChild(span)

	p := &Node{Type: ElementNode, TagName: "p", Children: make([]*Node, 0)}
	p.AppendText("world")
	parent.AddChild(p)

	return parent
}

func TestRemoveChild(t *testing.T) {
	parent := makeTree()
	span := parent.Children[0]
	removed := parent.RemoveChild(span)
	if removed != span {
		t.Fatal("RemoveChild should return the removed child")
	}
	if span.Parent != nil {
		t.Error("removed child should have nil parent")
	}
	if len(parent.Children) != 1 {
		t.Errorf("expected 1 child, got %d", len(parent.Children))
	}
}

func TestRemoveChildNotFound(t *testing.T) {
	parent := makeTree()
	if parent.RemoveChild(&Node{Type: ElementNode, TagName: "em"}) != nil {
		t.Error("RemoveChild of non-child should return nil")
	}
}

func TestContains(t *testing.T) {
	parent := makeTree()
	text := parent.Children[0].Children[0]
	if !parent.Contains(text) {
		t.Error("parent should contain nested text")
	}
	if !parent.Contains(parent) {
		t.Error("node should contain itself")
	}
	if parent.Children[0].Contains(parent) {
		t.Error("child should not contain parent")
	}
}

func TestTextContent(t *testing.T) {
	if got := makeTree().TextContent(); got != "helloworld" {
		t.Errorf("TextContent = %q", got)
	}
}

func TestSerializeOuter(t *testing.T) {
	got := makeTree().SerializeOuter()
	want := `<div id="parent"><span>hello</span><p>world</p></div>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSerializeVoidElementAndEscaping(t *testing.T) {
	img := NewElement("IMG")
	img.SetAttribute("alt", `a "b" <c>`)
	got := img.SerializeOuter()
	want := `<img alt="a &quot;b&quot; &lt;c&gt;">`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSetAndRemoveAttribute(t *testing.T) {
	n := &Node{Type: ElementNode, TagName: "img"}
	n.SetAttribute("data-loaded", "true")
	if v, ok := n.GetAttribute("data-loaded"); !ok || v != "true" {
		t.Errorf("GetAttribute = %q, %v", v, ok)
	}
	n.RemoveAttribute("data-loaded")
	if _, ok := n.GetAttribute("data-loaded"); ok {
		t.Error("attribute should be gone")
	}
	n.RemoveAttribute("missing")
}
