// Package srcset parses image candidate strings ("a.jpg 1x, b.jpg 600w")
// and picks the candidate a browser would fetch.
package srcset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Candidate is one entry of a srcset list. Exactly one of Density and
// Width is non-zero after parsing.
type Candidate struct {
	URL     string
	Density float64 // "2x"
	Width   int     // "600w"
}

func (c Candidate) String() string {
	switch {
	case c.Width > 0:
		return fmt.Sprintf("%s %dw", c.URL, c.Width)
	case c.Density != 1:
		return fmt.Sprintf("%s %sx", c.URL, strconv.FormatFloat(c.Density, 'f', -1, 64))
	}
	return c.URL
}

var ErrEmpty = errors.New("srcset: no candidates")

// Parse splits a srcset attribute into candidates. URLs may contain
// commas (data: URIs); a comma only ends a candidate when it follows the
// URL's whitespace or terminates the URL itself.
func Parse(s string) ([]Candidate, error) {
	var out []Candidate
	rest := s
	for {
		rest = strings.TrimLeftFunc(rest, func(r rune) bool { return unicode.IsSpace(r) || r == ',' })
		if rest == "" {
			break
		}

		end := strings.IndexFunc(rest, unicode.IsSpace)
		if end < 0 {
			end = len(rest)
		}
		url := rest[:end]
		rest = rest[end:]

		var descriptor string
		if strings.HasSuffix(url, ",") {
			url = strings.TrimRight(url, ",")
		} else {
			descEnd := strings.IndexByte(rest, ',')
			if descEnd < 0 {
				descEnd = len(rest)
			}
			descriptor = strings.TrimSpace(rest[:descEnd])
			rest = rest[descEnd:]
		}

		c, err := parseDescriptor(url, descriptor)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}

func parseDescriptor(url, descriptor string) (Candidate, error) {
	c := Candidate{URL: url}
	if descriptor == "" {
		c.Density = 1
		return c, nil
	}
	fields := strings.Fields(descriptor)
	d := fields[0]
	switch {
	case strings.HasSuffix(d, "w"):
		w, err := strconv.Atoi(strings.TrimSuffix(d, "w"))
		if err != nil || w <= 0 {
			return Candidate{}, fmt.Errorf("srcset: bad width descriptor %q for %s", d, url)
		}
		c.Width = w
	case strings.HasSuffix(d, "x"):
		x, err := strconv.ParseFloat(strings.TrimSuffix(d, "x"), 64)
		if err != nil || x <= 0 {
			return Candidate{}, fmt.Errorf("srcset: bad density descriptor %q for %s", d, url)
		}
		c.Density = x
	default:
		// Height descriptors ("200h") and unknown ones fall back to 1x.
		c.Density = 1
	}
	return c, nil
}

// Select picks the candidate for a display with the given device pixel
// ratio and an image slot slotWidth CSS pixels wide. Width descriptors are
// converted to densities relative to the slot. The smallest candidate
// that satisfies dpr wins; if none does, the densest one.
func Select(cands []Candidate, dpr, slotWidth float64) (Candidate, bool) {
	if len(cands) == 0 {
		return Candidate{}, false
	}
	if dpr <= 0 {
		dpr = 1
	}
	density := func(c Candidate) float64 {
		if c.Width > 0 {
			if slotWidth <= 0 {
				return float64(c.Width)
			}
			return float64(c.Width) / slotWidth
		}
		return c.Density
	}

	var best, densest Candidate
	bestD, densestD := 0.0, -1.0
	found := false
	for _, c := range cands {
		d := density(c)
		if d > densestD {
			densest, densestD = c, d
		}
		if d >= dpr && (!found || d < bestD) {
			best, bestD, found = c, d, true
		}
	}
	if found {
		return best, true
	}
	return densest, true
}
