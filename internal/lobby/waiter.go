package lobby

import (
	"context"
	"sync"
	"time"
)

// startWaiter holds at most one delayed action. Scheduling a new one
// cancels the previous and waits for its goroutine to exit.
type startWaiter struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func (w *startWaiter) Schedule(parent context.Context, delay time.Duration, fn func()) {
	w.Cancel()

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	w.mu.Lock()
	w.cancel, w.done = cancel, done
	w.mu.Unlock()

	go func() {
		defer close(done)
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
		case <-t.C:
			fn()
		}
	}()
}

// Cancel stops the pending action, if any, and returns once it can no
// longer run.
func (w *startWaiter) Cancel() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Pending reports whether an action is scheduled and has not run yet.
func (w *startWaiter) Pending() bool {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}
