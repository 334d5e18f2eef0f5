package html

import (
	"fmt"
	"net/url"
	"strings"
)

type Parser struct {
	tokenizer *Tokenizer
	doc       *Document
	stack     []*Node // open elements; stack[0] is the document root
}

func NewParser(html string) *Parser {
	return &Parser{
		tokenizer: NewTokenizer(html),
		doc:       NewDocument(),
	}
}

func (p *Parser) Parse() (*Document, error) {
	p.stack = []*Node{p.doc.Root}

	for {
		token, err := p.tokenizer.NextToken()
		if err != nil {
			return nil, fmt.Errorf("tokenizer error: %w", err)
		}
		if token.Type == TokenEOF {
			break
		}

		switch token.Type {
		case TokenStartTag:
			p.startTag(token)
		case TokenText:
			p.currentParent().AppendText(token.Text)
		case TokenEndTag:
			p.closeTag(token.TagName)
		}
	}

	return p.doc, nil
}

func (p *Parser) startTag(token Token) {
	switch token.TagName {
	case "style":
		// Stylesheets are collected, not kept in the tree.
		if !token.SelfClosing {
			p.doc.Stylesheets = append(p.doc.Stylesheets, p.tokenizer.ReadRawUntil("style"))
		}
		return
	case "script":
		if token.SelfClosing {
			return
		}
		src := p.tokenizer.ReadRawUntil("script")
		if typ, ok := token.Attributes["type"]; ok && !isJavaScriptType(typ) {
			return
		}
		if strings.TrimSpace(src) != "" {
			p.doc.Scripts = append(p.doc.Scripts, src)
		}
		return
	}

	if isBlockElement(token.TagName) {
		p.autoCloseP()
	}

	node := &Node{
		Type:       ElementNode,
		TagName:    token.TagName,
		Attributes: token.Attributes,
		Children:   make([]*Node, 0),
	}
	p.currentParent().AddChild(node)

	if token.TagName == "link" {
		if css := linkStylesheet(token.Attributes); css != "" {
			p.doc.Stylesheets = append(p.doc.Stylesheets, css)
		}
	}

	if !isVoidElement(token.TagName) && !token.SelfClosing {
		p.stack = append(p.stack, node)
	}
}

// currentParent returns the current parent node (top of stack)
func (p *Parser) currentParent() *Node {
	if len(p.stack) == 0 {
		return p.doc.Root
	}
	return p.stack[len(p.stack)-1]
}

// closeTag pops the stack until the matching tag is found and closed.
// Unmatched end tags are ignored.
func (p *Parser) closeTag(tagName string) {
	for i := len(p.stack) - 1; i >= 1; i-- {
		if p.stack[i].TagName == tagName {
			p.stack = p.stack[:i]
			return
		}
	}
}

// autoCloseP closes an open <p> element if one is on the stack
func (p *Parser) autoCloseP() {
	for i := len(p.stack) - 1; i >= 1; i-- {
		if p.stack[i].TagName == "p" {
			p.stack = p.stack[:i]
			return
		}
		if isBlockElement(p.stack[i].TagName) {
			return
		}
	}
}

// isBlockElement returns true for elements that auto-close <p>
func isBlockElement(tagName string) bool {
	switch tagName {
	case "address", "article", "aside", "blockquote", "details", "dialog",
		"dd", "div", "dl", "dt", "fieldset", "figcaption", "figure",
		"footer", "form", "h1", "h2", "h3", "h4", "h5", "h6",
		"header", "hgroup", "hr", "li", "main", "nav", "ol",
		"p", "pre", "section", "table", "ul":
		return true
	}
	return false
}

func isJavaScriptType(typ string) bool {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "", "text/javascript", "application/javascript", "module":
		return true
	}
	return false
}

// linkStylesheet returns inline CSS from a <link rel="stylesheet"> whose
// href is a data:text/css URI. External stylesheets are not fetched.
func linkStylesheet(attrs map[string]string) string {
	if !strings.Contains(attrs["rel"], "stylesheet") {
		return ""
	}
	href := strings.TrimSpace(attrs["href"])
	encoded, ok := strings.CutPrefix(href, "data:text/css,")
	if !ok {
		return ""
	}
	decoded, err := url.PathUnescape(encoded)
	if err != nil {
		return encoded
	}
	return decoded
}

func Parse(html string) (*Document, error) {
	return NewParser(html).Parse()
}
