package scheduler

import (
	"sync"
	"sync/atomic"

	"threadsdl/pkg/logger"
	"threadsdl/pkg/rtcontext"
)

// Signal names the source of a rescan request
type Signal string

const (
	SignalInitial    Signal = "initial"
	SignalMutation   Signal = "mutation"
	SignalVisibility Signal = "visibility"
	SignalTransition Signal = "transition"
	SignalScroll     Signal = "scroll"
	SignalNavigation Signal = "navigation"
	SignalTick       Signal = "tick"
	SignalManual     Signal = "manual"
)

// Handler runs a discovery pass on the loop
type Handler func(sig Signal)

// Dispatcher turns signals into discovery passes. Mutations are debounced,
// every other signal is throttled, and nothing runs once the runtime is
// invalidated.
type Dispatcher struct {
	loop    *Loop
	rt      *rtcontext.Context
	timing  Timing
	handler Handler
	log     logger.Logger

	debouncer *Debouncer
	throttler *Throttler

	mu      sync.Mutex
	pending Signal
	started bool

	passes atomic.Int64
}

// NewDispatcher creates a dispatcher delivering passes to handler
func NewDispatcher(loop *Loop, rt *rtcontext.Context, timing Timing, handler Handler, log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.NewNopLogger()
	}
	d := &Dispatcher{
		loop:    loop,
		rt:      rt,
		timing:  timing,
		handler: handler,
		log:     log.WithField("component", "scheduler"),
	}
	d.debouncer = NewDebouncer(loop, timing.Debounce, func() { d.run(SignalMutation) })
	d.throttler = NewThrottler(loop, timing.Throttle, d.runPending)
	return d
}

// Start schedules the initial pass after the initial delay. ready runs on
// the loop just before it, and is where watchers should be attached.
func (d *Dispatcher) Start(ready func()) {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.mu.Unlock()

	d.loop.AfterFunc(d.timing.InitialDelay, func() {
		if d.rt.Invalidated() {
			return
		}
		if ready != nil {
			ready()
		}
		d.run(SignalInitial)
	})
}

// Emit requests a pass for sig
func (d *Dispatcher) Emit(sig Signal) {
	if d.rt.Invalidated() {
		return
	}

	switch sig {
	case SignalMutation:
		d.debouncer.Trigger()
	case SignalInitial:
		d.loop.Post(func() { d.run(SignalInitial) })
	default:
		d.mu.Lock()
		d.pending = sig
		d.mu.Unlock()
		d.throttler.Trigger()
	}
}

// Passes returns how many passes have run
func (d *Dispatcher) Passes() int64 {
	return d.passes.Load()
}

func (d *Dispatcher) runPending() {
	d.mu.Lock()
	sig := d.pending
	d.mu.Unlock()
	d.run(sig)
}

func (d *Dispatcher) run(sig Signal) {
	if d.rt.Invalidated() {
		d.log.WithField("signal", string(sig)).Debug("Skipping pass, runtime invalidated")
		return
	}
	d.passes.Add(1)
	d.handler(sig)
}
