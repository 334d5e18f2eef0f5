package html

import (
	"fmt"
	gohtml "html"
	"strings"
	"unicode"
)

type TokenType int

const (
	TokenStartTag TokenType = iota
	TokenEndTag
	TokenText
	TokenEOF
)

type Token struct {
	Type        TokenType
	TagName     string
	Attributes  map[string]string
	Text        string
	SelfClosing bool // tag ended with "/>"
}

type Tokenizer struct {
	input string
	pos   int
}

func NewTokenizer(html string) *Tokenizer {
	return &Tokenizer{input: html}
}

func (t *Tokenizer) NextToken() (Token, error) {
	for t.pos < len(t.input) {
		if t.input[t.pos] != '<' {
			tok, ok := t.readText()
			if ok {
				return tok, nil
			}
			continue
		}
		if t.skipMarkup() {
			continue
		}
		return t.readTag()
	}
	return Token{Type: TokenEOF}, nil
}

// skipMarkup consumes comments, doctypes and processing instructions.
// Reports whether anything was skipped.
func (t *Tokenizer) skipMarkup() bool {
	rest := t.input[t.pos+1:]
	switch {
	case strings.HasPrefix(rest, "!--"):
		t.skipPast("-->", t.pos+4)
	case strings.HasPrefix(rest, "?"):
		t.skipPast("?>", t.pos+2)
	case strings.HasPrefix(rest, "!"):
		t.skipPast(">", t.pos+2)
	default:
		return false
	}
	return true
}

func (t *Tokenizer) skipPast(end string, from int) {
	if from > len(t.input) {
		from = len(t.input)
	}
	if idx := strings.Index(t.input[from:], end); idx >= 0 {
		t.pos = from + idx + len(end)
		return
	}
	t.pos = len(t.input)
}

func (t *Tokenizer) readTag() (Token, error) {
	t.pos++ // '<'

	isEndTag := false
	if t.pos < len(t.input) && t.input[t.pos] == '/' {
		isEndTag = true
		t.pos++
	}
	tagName := t.readTagName()
	if tagName == "" {
		return Token{}, fmt.Errorf("expected tag name at position %d", t.pos)
	}
	if isEndTag {
		if err := t.skipTo('>'); err != nil {
			return Token{}, err
		}
		t.pos++
		return Token{Type: TokenEndTag, TagName: tagName}, nil
	}

	tok := Token{Type: TokenStartTag, TagName: tagName, Attributes: make(map[string]string)}
	for {
		t.skipWhitespace()
		if t.pos >= len(t.input) {
			return Token{}, fmt.Errorf("unexpected EOF in <%s>", tagName)
		}
		switch t.input[t.pos] {
		case '>':
			t.pos++
			return tok, nil
		case '/':
			t.pos++
			t.skipWhitespace()
			if t.pos < len(t.input) && t.input[t.pos] == '>' {
				t.pos++
				tok.SelfClosing = true
				return tok, nil
			}
			continue
		}
		name, value, err := t.readAttribute()
		if err != nil {
			return Token{}, err
		}
		// First occurrence wins, as in browsers.
		if _, dup := tok.Attributes[name]; !dup {
			tok.Attributes[name] = value
		}
	}
}

func (t *Tokenizer) readTagName() string {
	start := t.pos
	for t.pos < len(t.input) && isTagNameChar(t.input[t.pos]) {
		t.pos++
	}
	return strings.ToLower(t.input[start:t.pos])
}

func (t *Tokenizer) readAttribute() (string, string, error) {
	start := t.pos
	for t.pos < len(t.input) && isAttributeNameChar(t.input[t.pos]) {
		t.pos++
	}
	name := strings.ToLower(t.input[start:t.pos])
	if name == "" {
		return "", "", fmt.Errorf("expected attribute name at position %d", t.pos)
	}
	t.skipWhitespace()
	if t.pos >= len(t.input) || t.input[t.pos] != '=' {
		return name, "", nil
	}
	t.pos++
	t.skipWhitespace()
	value, err := t.readAttributeValue()
	if err != nil {
		return "", "", err
	}
	return name, gohtml.UnescapeString(value), nil
}

func (t *Tokenizer) readAttributeValue() (string, error) {
	if t.pos >= len(t.input) {
		return "", fmt.Errorf("expected attribute value at position %d", t.pos)
	}
	quote := t.input[t.pos]
	if quote == '"' || quote == '\'' {
		t.pos++
		end := strings.IndexByte(t.input[t.pos:], quote)
		if end < 0 {
			return "", fmt.Errorf("unterminated attribute value")
		}
		value := t.input[t.pos : t.pos+end]
		t.pos += end + 1
		return value, nil
	}
	start := t.pos
	for t.pos < len(t.input) && !unicode.IsSpace(rune(t.input[t.pos])) && t.input[t.pos] != '>' {
		t.pos++
	}
	return t.input[start:t.pos], nil
}

// readText consumes a text run. Whitespace-only runs (indentation between
// tags) are dropped and reported with ok=false.
func (t *Tokenizer) readText() (Token, bool) {
	start := t.pos
	if idx := strings.IndexByte(t.input[t.pos:], '<'); idx >= 0 {
		t.pos += idx
	} else {
		t.pos = len(t.input)
	}
	raw := t.input[start:t.pos]
	if strings.TrimSpace(raw) == "" {
		return Token{}, false
	}
	return Token{Type: TokenText, Text: gohtml.UnescapeString(normalizeWhitespace(raw))}, true
}

// normalizeWhitespace collapses runs of whitespace to a single space,
// keeping one space at each boundary that had any.
func normalizeWhitespace(s string) string {
	hasLeading := unicode.IsSpace(rune(s[0]))
	hasTrailing := unicode.IsSpace(rune(s[len(s)-1]))

	result := strings.Join(strings.Fields(s), " ")
	if hasLeading {
		result = " " + result
	}
	if hasTrailing {
		result += " "
	}
	return result
}

func (t *Tokenizer) skipWhitespace() {
	for t.pos < len(t.input) && unicode.IsSpace(rune(t.input[t.pos])) {
		t.pos++
	}
}

func (t *Tokenizer) skipTo(target byte) error {
	idx := strings.IndexByte(t.input[t.pos:], target)
	if idx < 0 {
		t.pos = len(t.input)
		return fmt.Errorf("expected '%c' but reached EOF", target)
	}
	t.pos += idx
	return nil
}

// ReadRawUntil reads raw content up to the matching end tag (case-insensitive)
// and consumes the end tag. Used for <script> and <style>, where '<' does not
// start markup.
func (t *Tokenizer) ReadRawUntil(endTag string) string {
	needle := "</" + strings.ToLower(endTag)
	lower := strings.ToLower(t.input[t.pos:])
	idx := strings.Index(lower, needle)
	if idx < 0 {
		content := t.input[t.pos:]
		t.pos = len(t.input)
		return content
	}
	content := t.input[t.pos : t.pos+idx]
	t.pos += idx
	if err := t.skipTo('>'); err == nil {
		t.pos++
	}
	return content
}

func isTagNameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isAttributeNameChar(c byte) bool {
	return isTagNameChar(c) || c == ':' || c == '.' || c == '@'
}
