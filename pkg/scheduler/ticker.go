package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Ticker drives the periodic safety rescan. It catches content the
// mutation filter missed.
type Ticker struct {
	sched gocron.Scheduler
}

// StartTicker emits SignalTick on d every interval. A zero interval
// returns a nil ticker, which is safe to stop.
func StartTicker(d *Dispatcher, interval time.Duration) (*Ticker, error) {
	if interval <= 0 {
		return nil, nil
	}

	sched, err := gocron.NewScheduler(gocron.WithClock(d.loop.Clock()))
	if err != nil {
		return nil, fmt.Errorf("failed to create rescan scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { d.Emit(SignalTick) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to schedule rescan: %w", err)
	}

	sched.Start()
	return &Ticker{sched: sched}, nil
}

// Stop shuts the scheduler down
func (t *Ticker) Stop() error {
	if t == nil {
		return nil
	}
	return t.sched.Shutdown()
}
