package css

import (
	"strconv"
	"strings"
)

type Style struct {
	Properties map[string]string
}

func NewStyle() *Style {
	return &Style{Properties: make(map[string]string)}
}

func (s *Style) Get(property string) (string, bool) {
	val, ok := s.Properties[property]
	return val, ok
}

func (s *Style) Set(property, value string) {
	s.Properties[property] = value
}

func (s *Style) GetLength(property string) (float64, bool) {
	val, ok := s.Get(property)
	if !ok {
		return 0, false
	}
	return ParseLength(val)
}

// ParseLength parses a pixel length ("100px" or "100"). Other units and
// keywords such as "auto" are reported as not ok.
func ParseLength(val string) (float64, bool) {
	val = strings.TrimSpace(val)
	val = strings.TrimSuffix(val, "px")
	num, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false
	}
	return num, true
}

// BoxEdge represents the four sides of a box (top, right, bottom, left)
type BoxEdge struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// Vertical returns Top+Bottom.
func (e BoxEdge) Vertical() float64 { return e.Top + e.Bottom }

// Horizontal returns Left+Right.
func (e BoxEdge) Horizontal() float64 { return e.Left + e.Right }

func (s *Style) GetMargin() BoxEdge  { return s.edge("margin-%s") }
func (s *Style) GetPadding() BoxEdge { return s.edge("padding-%s") }

func (s *Style) GetBorderWidth() BoxEdge { return s.edge("border-%s-width") }

func (s *Style) edge(pattern string) BoxEdge {
	side := func(name string) float64 {
		v, _ := s.GetLength(strings.Replace(pattern, "%s", name, 1))
		return v
	}
	return BoxEdge{
		Top:    side("top"),
		Right:  side("right"),
		Bottom: side("bottom"),
		Left:   side("left"),
	}
}

type DisplayType string

const (
	DisplayBlock       DisplayType = "block"
	DisplayInline      DisplayType = "inline"
	DisplayInlineBlock DisplayType = "inline-block"
	DisplayNone        DisplayType = "none"
)

// GetDisplay returns the display type, or "" when unset so callers can
// apply the element's default.
func (s *Style) GetDisplay() DisplayType {
	d, ok := s.Get("display")
	if !ok {
		return ""
	}
	switch strings.TrimSpace(d) {
	case "none":
		return DisplayNone
	case "inline":
		return DisplayInline
	case "inline-block":
		return DisplayInlineBlock
	}
	return DisplayBlock
}

type PositionType string

const (
	PositionStatic   PositionType = "static"
	PositionRelative PositionType = "relative"
	PositionAbsolute PositionType = "absolute"
	PositionFixed    PositionType = "fixed"
)

// GetPosition returns the position type (default: static)
func (s *Style) GetPosition() PositionType {
	if pos, ok := s.Get("position"); ok {
		switch pos {
		case "relative":
			return PositionRelative
		case "absolute":
			return PositionAbsolute
		case "fixed":
			return PositionFixed
		}
	}
	return PositionStatic
}

// GetLineHeight returns line-height in pixels (default: 18px).
func (s *Style) GetLineHeight() float64 {
	if lh, ok := s.GetLength("line-height"); ok && lh > 0 {
		return lh
	}
	return 18
}

// IsHidden reports visibility:hidden. Hidden boxes still take space.
func (s *Style) IsHidden() bool {
	v, _ := s.Get("visibility")
	return v == "hidden" || v == "collapse"
}

func ParseInlineStyle(styleAttr string) *Style {
	style := NewStyle()
	for _, decl := range strings.Split(styleAttr, ";") {
		property, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		property = strings.ToLower(strings.TrimSpace(property))
		value = strings.TrimSpace(value)
		if property == "" || value == "" {
			continue
		}
		expandShorthand(style, property, value)
	}
	return style
}

// expandShorthand expands shorthand CSS properties into individual properties
func expandShorthand(style *Style, property, value string) {
	value = strings.TrimSpace(strings.TrimSuffix(value, "!important"))
	switch property {
	case "margin", "padding":
		expandBoxProperty(style, property, "", value)
	case "border-width":
		expandBoxProperty(style, "border", "-width", value)
	case "border":
		for _, part := range strings.Fields(value) {
			if _, ok := ParseLength(part); ok {
				expandBoxProperty(style, "border", "-width", part)
			}
		}
	default:
		style.Set(property, value)
	}
}

// expandBoxProperty expands the one-to-four value box shorthand:
// "a" (all), "a b" (vertical horizontal), "a b c" (top h bottom), "a b c d".
func expandBoxProperty(style *Style, prefix, suffix, value string) {
	parts := strings.Fields(value)
	var top, right, bottom, left string
	switch len(parts) {
	case 1:
		top, right, bottom, left = parts[0], parts[0], parts[0], parts[0]
	case 2:
		top, right, bottom, left = parts[0], parts[1], parts[0], parts[1]
	case 3:
		top, right, bottom, left = parts[0], parts[1], parts[2], parts[1]
	case 4:
		top, right, bottom, left = parts[0], parts[1], parts[2], parts[3]
	default:
		return
	}
	style.Set(prefix+"-top"+suffix, top)
	style.Set(prefix+"-right"+suffix, right)
	style.Set(prefix+"-bottom"+suffix, bottom)
	style.Set(prefix+"-left"+suffix, left)
}
