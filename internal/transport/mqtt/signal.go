package mqtt

import (
	"context"
	"sync"
	"time"
)

// signal is a resettable level-triggered event. Set closes the current
// channel so every waiter wakes; Clear swaps in a fresh channel so future
// waiters block again. Used for connection state and per-device readiness.
type signal struct {
	mu  sync.Mutex
	ch  chan struct{}
	set bool
}

func newSignal() *signal {
	return &signal{ch: make(chan struct{})}
}

// Set marks the signal and releases all current waiters. Idempotent.
func (s *signal) Set() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		s.set = true
		close(s.ch)
	}
}

// Clear resets the signal so subsequent Wait calls block. Idempotent.
func (s *signal) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set {
		s.set = false
		s.ch = make(chan struct{})
	}
}

// IsSet reports the current level.
func (s *signal) IsSet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set
}

// Wait blocks until the signal is set, the timeout elapses, or ctx is
// canceled. Returns true only if the signal was set.
func (s *signal) Wait(ctx context.Context, timeout time.Duration) bool {
	s.mu.Lock()
	set := s.set
	ch := s.ch
	s.mu.Unlock()

	if set {
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ch:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}
