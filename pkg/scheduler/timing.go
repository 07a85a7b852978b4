package scheduler

import (
	"sync"
	"sync/atomic"
	"time"

	"threadsdl/pkg/config"
)

// Timing holds the named delays of the change detector
type Timing struct {
	// Debounce coalesces bursts of mutations into one pass
	Debounce time.Duration
	// Throttle bounds the rate of every other signal
	Throttle time.Duration
	// InitialDelay postpones the first pass after Start
	InitialDelay time.Duration
	// RescanInterval drives the periodic safety rescan; zero disables it
	RescanInterval time.Duration
}

// DefaultTiming returns the stock delays
func DefaultTiming() Timing {
	return Timing{
		Debounce:     150 * time.Millisecond,
		Throttle:     300 * time.Millisecond,
		InitialDelay: time.Second,
	}
}

// TimingFromConfig reads the delays from the scheduler config section
func TimingFromConfig(cfg *config.SchedulerConfig) Timing {
	return Timing{
		Debounce:       cfg.DebounceDelay,
		Throttle:       cfg.ThrottleDelay,
		InitialDelay:   cfg.InitialDelay,
		RescanInterval: cfg.RescanInterval,
	}
}

// Debouncer runs fn on the loop once triggers have stopped for the delay.
// Each trigger bumps a generation; a timer only fires fn if no newer trigger
// happened, so stale timers need no cancellation.
type Debouncer struct {
	loop  *Loop
	delay time.Duration
	fn    func()
	gen   atomic.Uint64
}

// NewDebouncer creates a debouncer for fn
func NewDebouncer(loop *Loop, delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{loop: loop, delay: delay, fn: fn}
}

// Trigger restarts the quiet period
func (d *Debouncer) Trigger() {
	g := d.gen.Add(1)
	d.loop.AfterFunc(d.delay, func() {
		if d.gen.Load() == g {
			d.fn()
		}
	})
}

// Throttler runs fn at most once per interval. The first trigger of a quiet
// period runs immediately; triggers inside the interval collapse into one
// trailing run at its end.
type Throttler struct {
	loop     *Loop
	interval time.Duration
	fn       func()

	mu      sync.Mutex
	lastRun time.Time
	armed   bool
}

// NewThrottler creates a throttler for fn
func NewThrottler(loop *Loop, interval time.Duration, fn func()) *Throttler {
	return &Throttler{loop: loop, interval: interval, fn: fn}
}

// Trigger requests a run
func (t *Throttler) Trigger() {
	now := t.loop.Clock().Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.armed {
		return
	}
	elapsed := now.Sub(t.lastRun)
	if t.lastRun.IsZero() || elapsed >= t.interval {
		t.lastRun = now
		t.loop.Post(t.fn)
		return
	}

	t.armed = true
	t.loop.AfterFunc(t.interval-elapsed, t.trailing)
}

func (t *Throttler) trailing() {
	t.mu.Lock()
	t.armed = false
	t.lastRun = t.loop.Clock().Now()
	t.mu.Unlock()

	t.fn()
}
