package scheduler

import (
	"errors"
	"sync"

	"threadsdl/pkg/dom"
)

// NavigationObserver reports in-page navigations, where the document stays
// but its location changes
type NavigationObserver interface {
	// OnNavigate registers fn for every location change and returns a
	// function that unregisters it
	OnNavigate(fn func(location string)) (cancel func())
}

// ErrNoHistory is returned when a back or forward step has nowhere to go
var ErrNoHistory = errors.New("no history entry in that direction")

// History is a NavigationObserver driven by explicit push, replace and pop
// operations, mirroring a single-page application's session history
type History struct {
	doc *dom.Document

	mu      sync.Mutex
	entries []string
	index   int
	subs    map[int]func(string)
	nextID  int
}

// NewHistory starts a history at the document's current location
func NewHistory(doc *dom.Document) *History {
	return &History{
		doc:     doc,
		entries: []string{doc.Location()},
		subs:    make(map[int]func(string)),
	}
}

// OnNavigate implements NavigationObserver
func (h *History) OnNavigate(fn func(location string)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// Current returns the active entry
func (h *History) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index]
}

// Push adds a new entry after the active one, dropping any forward entries
func (h *History) Push(location string) error {
	return h.navigate(location, func() {
		h.entries = append(h.entries[:h.index+1], location)
		h.index++
	})
}

// Replace swaps the active entry
func (h *History) Replace(location string) error {
	return h.navigate(location, func() {
		h.entries[h.index] = location
	})
}

// Back moves to the previous entry
func (h *History) Back() error {
	return h.step(-1)
}

// Forward moves to the next entry
func (h *History) Forward() error {
	return h.step(1)
}

func (h *History) step(delta int) error {
	h.mu.Lock()
	target := h.index + delta
	if target < 0 || target >= len(h.entries) {
		h.mu.Unlock()
		return ErrNoHistory
	}
	location := h.entries[target]
	h.mu.Unlock()

	return h.navigate(location, func() { h.index = target })
}

func (h *History) navigate(location string, update func()) error {
	if err := h.doc.SetLocation(location); err != nil {
		return err
	}

	h.mu.Lock()
	update()
	fns := make([]func(string), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(location)
	}
	return nil
}
