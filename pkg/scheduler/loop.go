// Package scheduler decides when discovery passes run.
//
// All page work happens on a Loop, a single goroutine draining a task queue,
// so discovery code never needs its own locking. Timers, mutation callbacks
// and navigation events only ever post tasks to the loop.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"threadsdl/pkg/logger"
)

// Loop is the single execution context of a page
type Loop struct {
	clock clockwork.Clock
	log   logger.Logger

	mu      sync.Mutex
	queue   []func()
	stopped bool

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewLoop creates a stopped loop; call Start to begin draining tasks.
// A nil clock selects the real clock.
func NewLoop(clock clockwork.Clock, log logger.Logger) *Loop {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Loop{
		clock: clock,
		log:   log.WithField("component", "loop"),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Clock returns the clock timers are scheduled on
func (l *Loop) Clock() clockwork.Clock { return l.clock }

// Start launches the loop goroutine
func (l *Loop) Start() {
	l.wg.Add(1)
	go l.run()
}

// Stop drops queued tasks and waits for the running one to finish.
// Later posts are refused.
func (l *Loop) Stop() {
	l.once.Do(func() {
		l.mu.Lock()
		l.stopped = true
		l.queue = nil
		l.mu.Unlock()
		close(l.done)
	})
	l.wg.Wait()
}

// Post queues fn to run on the loop. It reports false once the loop has
// stopped. Posting never blocks, including from inside a task.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs fn on the loop and waits for it. It must not be called from a
// task running on the same loop.
func (l *Loop) Do(fn func()) bool {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return false
	}
	select {
	case <-finished:
		return true
	case <-l.done:
		return false
	}
}

// AfterFunc posts fn to the loop once d has elapsed on the loop's clock
func (l *Loop) AfterFunc(d time.Duration, fn func()) clockwork.Timer {
	return l.clock.AfterFunc(d, func() { l.Post(fn) })
}

func (l *Loop) run() {
	defer l.wg.Done()
	for {
		select {
		case <-l.done:
			return
		case <-l.wake:
		}

		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, fn := range batch {
			select {
			case <-l.done:
				return
			default:
			}
			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.WithField("panic", fmt.Sprint(r)).Error("Task panicked")
		}
	}()
	fn()
}
