package supervisor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParentWatcher_DetectsReparenting(t *testing.T) {
	var ppid atomic.Int64
	ppid.Store(4242)

	w := watch(5*time.Millisecond, func() int { return int(ppid.Load()) })
	defer w.Stop()

	select {
	case <-w.Lost():
		t.Fatal("parent is still alive")
	case <-time.After(30 * time.Millisecond):
	}

	ppid.Store(1)
	select {
	case <-w.Lost():
	case <-time.After(5 * time.Second):
		t.Fatal("re-parenting was not detected")
	}
}

func TestParentWatcher_StopDoesNotReportLoss(t *testing.T) {
	w := watch(5*time.Millisecond, func() int { return 4242 })
	w.Stop()
	w.Stop()

	select {
	case <-w.Lost():
		t.Fatal("Stop must not close Lost")
	case <-time.After(30 * time.Millisecond):
	}
}

func TestParentWatcher_OrphanedAtStartIsNotWatched(t *testing.T) {
	var calls atomic.Int64
	w := watch(time.Millisecond, func() int { calls.Add(1); return 1 })
	defer w.Stop()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(1), calls.Load())
}

func TestManual(t *testing.T) {
	m := NewManual()
	var s Supervisor = m

	m.Lose()
	m.Lose()
	select {
	case <-s.Lost():
	default:
		t.Fatal("expected Lost to be closed")
	}
}
