package scheduler

import (
	"golang.org/x/net/html"

	"threadsdl/pkg/dom"
)

var (
	isMediaNode = dom.ByTag("video", "picture", "img")
	isPostLink  = dom.And(dom.ByTag("a"), dom.AttrContains("href", "/post/"))
)

// MutationWatcher feeds relevant document mutations to a dispatcher
type MutationWatcher struct {
	obs    *dom.Observation
	ignore dom.Predicate
}

// WatchMutations observes doc and emits SignalMutation for every batch that
// adds media or post links. Nodes matched by ignore, and anything inside
// them, never count; pass the predicate recognising injected controls.
func WatchMutations(doc *dom.Document, d *Dispatcher, ignore dom.Predicate) *MutationWatcher {
	w := &MutationWatcher{ignore: ignore}
	w.obs = doc.Observe(func(records []dom.MutationRecord) {
		if w.Relevant(records) {
			d.Emit(SignalMutation)
		}
	})
	return w
}

// Relevant reports whether any record added a node worth a rescan
func (w *MutationWatcher) Relevant(records []dom.MutationRecord) bool {
	for _, rec := range records {
		if rec.Type != dom.MutationChildList {
			continue
		}
		for _, n := range rec.Added {
			if w.relevantNode(n) {
				return true
			}
		}
	}
	return false
}

func (w *MutationWatcher) relevantNode(n *html.Node) bool {
	if !dom.IsElement(n) {
		return false
	}
	if w.ignore != nil && dom.Closest(n, w.ignore) != nil {
		return false
	}
	if isMediaNode(n) {
		return true
	}
	return dom.First(n, isMediaNode) != nil || dom.First(n, isPostLink) != nil
}

// Disconnect stops watching; safe to call more than once
func (w *MutationWatcher) Disconnect() {
	w.obs.Disconnect()
}
