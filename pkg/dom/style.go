package dom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Style is an ordered inline style declaration list
type Style struct {
	names  []string
	values map[string]string
}

// ParseStyle parses a style attribute. Standard property names are
// lower-cased; custom properties (--x-...) keep their case.
func ParseStyle(s string) *Style {
	st := &Style{values: make(map[string]string)}
	for _, decl := range strings.Split(s, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = normalizeProperty(name)
		if name == "" {
			continue
		}
		st.Set(name, strings.TrimSpace(value))
	}
	return st
}

// InlineStyle parses the style attribute of n
func InlineStyle(n *html.Node) *Style {
	return ParseStyle(Attr(n, "style"))
}

func normalizeProperty(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "--") {
		return name
	}
	return strings.ToLower(name)
}

// Get returns the value of a property
func (s *Style) Get(name string) (string, bool) {
	v, ok := s.values[normalizeProperty(name)]
	return v, ok
}

// Has reports whether the property is declared
func (s *Style) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Set declares or replaces a property, keeping declaration order
func (s *Style) Set(name, value string) {
	name = normalizeProperty(name)
	if _, ok := s.values[name]; !ok {
		s.names = append(s.names, name)
	}
	s.values[name] = value
}

// String serializes the declarations back into attribute form
func (s *Style) String() string {
	parts := make([]string, 0, len(s.names))
	for _, name := range s.names {
		parts = append(parts, name+": "+s.values[name])
	}
	return strings.Join(parts, "; ")
}

// ParsePixels reads a CSS length in px (or a bare number). ok is false for
// any other unit.
func ParsePixels(v string) (float64, bool) {
	v = strings.TrimSpace(strings.ToLower(v))
	v = strings.TrimSuffix(v, "px")
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
