// Package signals turns asynchronous notifications into sticky flags that a
// single consumer drains.
package signals

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// Bridge holds one sticky flag per notification kind and a one-slot wake
// channel. Repeated notifications of the same kind coalesce into one pending
// flag. Handlers never block and never allocate.
type Bridge struct {
	terminate atomic.Bool
	reload    atomic.Bool
	tick      atomic.Bool
	wake      chan struct{}
}

func NewBridge() *Bridge {
	return &Bridge{wake: make(chan struct{}, 1)}
}

// Terminate requests a graceful stop.
func (b *Bridge) Terminate() {
	b.terminate.Store(true)
	b.notify()
}

// Reload requests a settings reload.
func (b *Bridge) Reload() {
	b.reload.Store(true)
	b.notify()
}

// Tick reports a timer expiry.
func (b *Bridge) Tick() {
	b.tick.Store(true)
	b.notify()
}

// Wake is readable whenever at least one flag was set since the last receive.
func (b *Bridge) Wake() <-chan struct{} {
	return b.wake
}

func (b *Bridge) TakeTerminate() bool { return b.terminate.Swap(false) }
func (b *Bridge) TakeReload() bool    { return b.reload.Swap(false) }
func (b *Bridge) TakeTick() bool      { return b.tick.Swap(false) }

// Deliver maps a process signal onto the bridge. Unknown signals are ignored.
func (b *Bridge) Deliver(sig os.Signal) {
	switch sig {
	case syscall.SIGTERM, os.Interrupt:
		b.Terminate()
	case syscall.SIGHUP:
		b.Reload()
	}
}

func (b *Bridge) notify() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Install routes SIGTERM, SIGINT and SIGHUP into b until stop is called.
func Install(b *Bridge) (stop func()) {
	ch := make(chan os.Signal, 4)
	signal.Notify(ch, syscall.SIGTERM, os.Interrupt, syscall.SIGHUP)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case sig := <-ch:
				b.Deliver(sig)
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}
