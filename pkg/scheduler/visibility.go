package scheduler

import (
	"golang.org/x/net/html"

	"threadsdl/pkg/dom"
)

// VisibilityTracker is the intersection hook: elements registered with
// Observe are reported once when they scroll into view, then forgotten.
// Discovery never depends on it; a visible element only triggers an extra
// throttled pass.
type VisibilityTracker struct {
	d          *Dispatcher
	watched    *dom.Marker
	Threshold  float64
	RootMargin string
}

// NewVisibilityTracker creates a tracker emitting SignalVisibility on d
func NewVisibilityTracker(d *Dispatcher, threshold float64, rootMargin string) *VisibilityTracker {
	return &VisibilityTracker{
		d:          d,
		watched:    dom.NewMarker(),
		Threshold:  threshold,
		RootMargin: rootMargin,
	}
}

// Observe starts watching n
func (v *VisibilityTracker) Observe(n *html.Node) {
	if n != nil {
		v.watched.Mark(n)
	}
}

// Unobserve stops watching n
func (v *VisibilityTracker) Unobserve(n *html.Node) {
	v.watched.Unmark(n)
}

// Report feeds the visible fraction of n. Crossing the threshold emits a
// visibility signal and stops watching n. It reports whether it emitted.
func (v *VisibilityTracker) Report(n *html.Node, ratio float64) bool {
	if !v.watched.Marked(n) || ratio < v.Threshold {
		return false
	}
	v.watched.Unmark(n)
	v.d.Emit(SignalVisibility)
	return true
}

// Watching returns how many elements are still watched
func (v *VisibilityTracker) Watching() int {
	return v.watched.Len()
}
