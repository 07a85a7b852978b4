// Package position picks the element that hosts a media overlay control.
//
// The host page has no stable class names, so containers are recognised by
// the inline custom properties its styling system emits and by size and
// positioning heuristics.
package position

import (
	"strings"

	"golang.org/x/net/html"

	"threadsdl/pkg/dom"
)

const (
	DefaultMaxDepth          = 15
	DefaultGridFallbackDepth = 10

	markerBorderRadius = "--x-borderRadius"
	markerAspectRatio  = "--x-aspectRatio"
	markerGridColumns  = "--x-gridTemplateColumns"
)

// Finder locates media containers within one document
type Finder struct {
	doc               *dom.Document
	MaxDepth          int
	GridFallbackDepth int
}

// New creates a finder with the default search bounds
func New(doc *dom.Document) *Finder {
	return &Finder{
		doc:               doc,
		MaxDepth:          DefaultMaxDepth,
		GridFallbackDepth: DefaultGridFallbackDepth,
	}
}

func hasStyleMarker(n *html.Node, marker string) bool {
	return strings.Contains(dom.Attr(n, "style"), marker)
}

// IsPlatformContainer reports whether n is a media box styled by the host
func (f *Finder) IsPlatformContainer(n *html.Node) bool {
	if !hasStyleMarker(n, markerBorderRadius) && !hasStyleMarker(n, markerAspectRatio) {
		return false
	}
	w, h := f.doc.Layout().OffsetSize(n)
	return w > 100 && h > 50
}

// IsGridContainer reports whether n wraps a carousel grid
func IsGridContainer(n *html.Node) bool {
	return hasStyleMarker(n, markerGridColumns)
}

// isFallbackContainer matches a sizeable positioned or rounded box
func (f *Finder) isFallbackContainer(n *html.Node) bool {
	l := f.doc.Layout()
	w, h := l.OffsetSize(n)
	if w <= 100 || h <= 100 {
		return false
	}
	switch l.ComputedStyle(n, "position") {
	case "relative", "absolute":
		return true
	}
	radius := strings.TrimSpace(l.ComputedStyle(n, "border-radius"))
	return radius != "" && radius != "0px" && radius != "0"
}

// FindMediaContainer returns the element an overlay for el should attach
// to, or nil when el has no parent. The chosen container is switched to
// position: relative when it is statically positioned.
func (f *Finder) FindMediaContainer(el *html.Node) *html.Node {
	if el == nil {
		return nil
	}

	var grid *html.Node
	container := dom.Climb(el, f.MaxDepth, func(n *html.Node, _ int) bool {
		if IsGridContainer(n) {
			grid = n
			return true
		}
		return f.IsPlatformContainer(n)
	})
	if container != nil && container != grid {
		return f.anchor(container)
	}

	if grid != nil {
		fallback := dom.Climb(el, f.GridFallbackDepth, func(n *html.Node, _ int) bool {
			return n == grid || f.isFallbackContainer(n)
		})
		if fallback != nil && fallback != grid {
			return f.anchor(fallback)
		}
	}

	if fallback := dom.Climb(el, f.MaxDepth, func(n *html.Node, _ int) bool {
		return n != grid && f.isFallbackContainer(n)
	}); fallback != nil {
		return f.anchor(fallback)
	}

	if parent := dom.Parent(el); parent != nil {
		return f.anchor(parent)
	}
	return nil
}

func (f *Finder) anchor(container *html.Node) *html.Node {
	if f.doc.Layout().ComputedStyle(container, "position") == "static" {
		f.doc.SetStyleProperty(container, "position", "relative")
	}
	return container
}
