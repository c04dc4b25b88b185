// Package supervisor models the external process manager that launches the
// worker and restarts it after a non-zero exit. Restart and backoff policy
// belong to the supervisor; the worker only needs to notice when it is gone.
package supervisor

import (
	"os"
	"sync"
	"time"
)

// Supervisor reports loss of the supervising process.
type Supervisor interface {
	// Lost is closed once the supervisor is no longer reachable.
	Lost() <-chan struct{}
}

// ParentWatcher treats the parent process as the supervisor. When the parent
// exits the worker is re-parented, which changes its parent pid.
type ParentWatcher struct {
	lost     chan struct{}
	done     chan struct{}
	once     sync.Once
	stopOnce sync.Once
}

// WatchParent starts polling the parent pid every interval.
func WatchParent(interval time.Duration) *ParentWatcher {
	return watch(interval, os.Getppid)
}

func watch(interval time.Duration, getppid func() int) *ParentWatcher {
	p := &ParentWatcher{
		lost: make(chan struct{}),
		done: make(chan struct{}),
	}
	parent := getppid()
	if parent <= 1 {
		// Already orphaned or running as init: nothing to watch.
		return p
	}
	go p.poll(interval, parent, getppid)
	return p
}

func (p *ParentWatcher) Lost() <-chan struct{} { return p.lost }

// Stop ends polling without reporting loss.
func (p *ParentWatcher) Stop() {
	p.stopOnce.Do(func() { close(p.done) })
}

func (p *ParentWatcher) poll(interval time.Duration, parent int, getppid func() int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			if getppid() != parent {
				p.once.Do(func() { close(p.lost) })
				return
			}
		}
	}
}

// Manual is a Supervisor whose loss is declared by calling Lose.
type Manual struct {
	lost chan struct{}
	once sync.Once
}

func NewManual() *Manual {
	return &Manual{lost: make(chan struct{})}
}

func (m *Manual) Lost() <-chan struct{} { return m.lost }

func (m *Manual) Lose() {
	m.once.Do(func() { close(m.lost) })
}
