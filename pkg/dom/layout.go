package dom

import (
	"strconv"

	"golang.org/x/net/html"
)

// Layout answers the rendering questions the heuristics need. A live host
// supplies real metrics; StaticLayout approximates them from markup.
type Layout interface {
	// OffsetSize is the rendered box size of an element
	OffsetSize(n *html.Node) (width, height float64)
	// NaturalSize is the intrinsic size of an image; zero means not known yet
	NaturalSize(n *html.Node) (width, height int)
	// ComputedStyle returns the resolved value of a CSS property
	ComputedStyle(n *html.Node, property string) string
}

// StaticLayout derives metrics from inline styles and attributes.
// An element without an explicit size takes the largest explicit size found
// among its descendants, which mirrors how block containers wrap content.
type StaticLayout struct {
	// MaxDepth bounds the descendant scan used for implicit sizes
	MaxDepth int
}

// NewStaticLayout returns a StaticLayout with the default scan depth
func NewStaticLayout() *StaticLayout {
	return &StaticLayout{MaxDepth: 20}
}

func explicitSize(n *html.Node) (float64, float64, bool) {
	st := InlineStyle(n)
	var w, h float64
	var okW, okH bool
	if v, ok := st.Get("width"); ok {
		w, okW = ParsePixels(v)
	}
	if v, ok := st.Get("height"); ok {
		h, okH = ParsePixels(v)
	}
	if !okW {
		w, okW = ParsePixels(Attr(n, "width"))
	}
	if !okH {
		h, okH = ParsePixels(Attr(n, "height"))
	}
	return w, h, okW || okH
}

// OffsetSize implements Layout
func (l *StaticLayout) OffsetSize(n *html.Node) (float64, float64) {
	if !IsElement(n) {
		return 0, 0
	}
	if w, h, ok := explicitSize(n); ok {
		return w, h
	}
	var bestW, bestH float64
	var rec func(x *html.Node, depth int)
	rec = func(x *html.Node, depth int) {
		if depth > l.MaxDepth {
			return
		}
		for c := x.FirstChild; c != nil; c = c.NextSibling {
			if !IsElement(c) {
				continue
			}
			if w, h, ok := explicitSize(c); ok {
				if w > bestW {
					bestW = w
				}
				if h > bestH {
					bestH = h
				}
				continue
			}
			rec(c, depth+1)
		}
	}
	rec(n, 0)
	return bestW, bestH
}

// NaturalSize implements Layout. Only the width/height attributes of an img
// are trusted; anything else is reported as unknown.
func (l *StaticLayout) NaturalSize(n *html.Node) (int, int) {
	if Tag(n) != "img" {
		return 0, 0
	}
	w, errW := strconv.Atoi(Attr(n, "width"))
	h, errH := strconv.Atoi(Attr(n, "height"))
	if errW != nil || errH != nil {
		return 0, 0
	}
	return w, h
}

// ComputedStyle implements Layout
func (l *StaticLayout) ComputedStyle(n *html.Node, property string) string {
	if v, ok := InlineStyle(n).Get(property); ok {
		return v
	}
	switch normalizeProperty(property) {
	case "position":
		return "static"
	case "border-radius":
		return "0px"
	case "display":
		return "block"
	}
	return ""
}
