// Package rtcontext holds the state shared by every discovery component for
// the lifetime of one page: whether the host runtime is still reachable and
// whether debug logging is on.
package rtcontext

import (
	"sync"
	"sync/atomic"
)

// Event is delivered to subscribers when the context changes
type Event struct {
	Invalidated bool
	Reason      string
	Debug       bool
}

// Context is the single source of truth for page-lifetime flags.
// It is safe for concurrent use.
type Context struct {
	invalidated atomic.Bool
	debug       atomic.Bool

	mu          sync.Mutex
	reason      string
	subscribers map[int]func(Event)
	nextID      int
}

// New creates a live context
func New(debug bool) *Context {
	c := &Context{subscribers: make(map[int]func(Event))}
	c.debug.Store(debug)
	return c
}

// Invalidated reports whether the host runtime has been lost
func (c *Context) Invalidated() bool {
	return c.invalidated.Load()
}

// Reason returns the reason recorded by the first Invalidate call
func (c *Context) Reason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// Invalidate marks the context dead. Only the first call has any effect and
// only it notifies subscribers; it reports whether this call did the work.
func (c *Context) Invalidate(reason string) bool {
	if !c.invalidated.CompareAndSwap(false, true) {
		return false
	}
	c.mu.Lock()
	c.reason = reason
	c.mu.Unlock()
	c.publish(Event{Invalidated: true, Reason: reason, Debug: c.Debug()})
	return true
}

// Debug reports whether debug logging is enabled
func (c *Context) Debug() bool {
	return c.debug.Load()
}

// SetDebug toggles debug logging, notifying subscribers on change
func (c *Context) SetDebug(on bool) {
	if c.debug.Swap(on) == on {
		return
	}
	c.publish(Event{Invalidated: c.Invalidated(), Reason: c.Reason(), Debug: on})
}

// Subscribe registers fn for change events and returns its cancel function
func (c *Context) Subscribe(fn func(Event)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

func (c *Context) publish(ev Event) {
	c.mu.Lock()
	fns := make([]func(Event), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
