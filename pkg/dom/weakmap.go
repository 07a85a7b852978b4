package dom

import (
	"runtime"
	"sync"
	"weak"

	"golang.org/x/net/html"
)

// WeakMap associates values with nodes without keeping the nodes alive.
// An entry disappears on its own once its node is garbage collected, so a
// feed that keeps detaching old posts never grows the table.
type WeakMap[V any] struct {
	mu      sync.Mutex
	entries map[weak.Pointer[html.Node]]V
}

// NewWeakMap creates an empty map
func NewWeakMap[V any]() *WeakMap[V] {
	return &WeakMap[V]{entries: make(map[weak.Pointer[html.Node]]V)}
}

// Set stores v for n
func (m *WeakMap[V]) Set(n *html.Node, v V) {
	if n == nil {
		return
	}
	key := weak.Make(n)
	m.mu.Lock()
	_, existed := m.entries[key]
	m.entries[key] = v
	m.mu.Unlock()

	if !existed {
		runtime.AddCleanup(n, m.evict, key)
	}
}

// Get returns the value stored for n
func (m *WeakMap[V]) Get(n *html.Node) (V, bool) {
	var zero V
	if n == nil {
		return zero, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[weak.Make(n)]
	return v, ok
}

// Has reports whether n has an entry
func (m *WeakMap[V]) Has(n *html.Node) bool {
	_, ok := m.Get(n)
	return ok
}

// Delete removes the entry for n
func (m *WeakMap[V]) Delete(n *html.Node) {
	if n == nil {
		return
	}
	m.mu.Lock()
	delete(m.entries, weak.Make(n))
	m.mu.Unlock()
}

// Len returns the number of live entries
func (m *WeakMap[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *WeakMap[V]) evict(key weak.Pointer[html.Node]) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// Marker is an ownership-free tag set over nodes
type Marker struct {
	m *WeakMap[struct{}]
}

// NewMarker creates an empty marker
func NewMarker() *Marker {
	return &Marker{m: NewWeakMap[struct{}]()}
}

// Mark tags n
func (k *Marker) Mark(n *html.Node) { k.m.Set(n, struct{}{}) }

// Marked reports whether n is tagged
func (k *Marker) Marked(n *html.Node) bool { return k.m.Has(n) }

// Unmark removes the tag from n
func (k *Marker) Unmark(n *html.Node) { k.m.Delete(n) }

// Len returns the number of tagged nodes still alive
func (k *Marker) Len() int { return k.m.Len() }
