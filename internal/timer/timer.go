// Package timer provides a re-armable repeating timer.
package timer

import (
	"sync"
	"time"
)

// Timer calls raise once per period until it is re-armed or stopped.
// The first expiry happens one full period after Arm.
type Timer struct {
	raise func()

	mu     sync.Mutex
	ticker *time.Ticker
	stop   chan struct{}
}

func New(raise func()) *Timer {
	return &Timer{raise: raise}
}

// Arm replaces the current schedule with one of the given period. A period
// of zero or less leaves the timer disarmed.
func (t *Timer) Arm(period time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.disarmLocked()
	if period <= 0 {
		return
	}

	ticker := time.NewTicker(period)
	stop := make(chan struct{})
	t.ticker, t.stop = ticker, stop
	go t.run(ticker, stop)
}

// Stop disarms the timer.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disarmLocked()
}

func (t *Timer) disarmLocked() {
	if t.ticker == nil {
		return
	}
	t.ticker.Stop()
	close(t.stop)
	t.ticker, t.stop = nil, nil
}

func (t *Timer) run(ticker *time.Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			// A tick may race with disarm; the schedule that was replaced must stay silent.
			select {
			case <-stop:
				return
			default:
			}
			t.raise()
		}
	}
}
