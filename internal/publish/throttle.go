// Package publish decouples the arrival rate of state changes from the
// bounded rate at which snapshots reach the presentation layer.
package publish

import (
	"sync"
	"time"
)

// DefaultInterval is the gap implied by the default rate of 4
// publications per second.
const DefaultInterval = 250 * time.Millisecond

// Throttle rate-limits publication of values. The first value after a
// quiet period is published immediately; values arriving faster than
// the interval are coalesced so that only the newest one in a burst is
// published, at most once per interval. The final value of any burst
// is always published within one interval.
type Throttle[T any] struct {
	interval time.Duration
	publish  func(T)

	mu        sync.Mutex
	last      time.Time
	pending   *time.Timer
	latest    T
	hasLatest bool
	stopped   bool
}

// NewThrottle creates a throttle calling publish at most once per
// interval. A non-positive interval falls back to DefaultInterval.
func NewThrottle[T any](interval time.Duration, publish func(T)) *Throttle[T] {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Throttle[T]{
		interval: interval,
		publish:  publish,
	}
}

// Notify offers a new candidate value. It either publishes it
// immediately (leading edge) or schedules a deferred publish that will
// carry whatever value is newest when it fires (trailing edge).
func (t *Throttle[T]) Notify(v T) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.latest = v
	t.hasLatest = true

	now := time.Now()
	if now.Sub(t.last) >= t.interval {
		t.last = now
		t.hasLatest = false
		if t.pending != nil {
			t.pending.Stop()
			t.pending = nil
		}
		t.mu.Unlock()
		t.publish(v)
		return
	}

	if t.pending == nil {
		wait := t.interval - now.Sub(t.last)
		t.pending = time.AfterFunc(wait, t.firePending)
	}
	t.mu.Unlock()
}

// firePending publishes the newest coalesced value.
func (t *Throttle[T]) firePending() {
	t.mu.Lock()
	t.pending = nil
	if t.stopped || !t.hasLatest {
		t.mu.Unlock()
		return
	}
	v := t.latest
	t.hasLatest = false
	t.last = time.Now()
	t.mu.Unlock()
	t.publish(v)
}

// Flush publishes the newest unpublished value immediately, if any.
// Used when the consumer resumes after a pause.
func (t *Throttle[T]) Flush() {
	t.mu.Lock()
	if t.stopped || !t.hasLatest {
		t.mu.Unlock()
		return
	}
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	v := t.latest
	t.hasLatest = false
	t.last = time.Now()
	t.mu.Unlock()
	t.publish(v)
}

// Stop cancels any deferred publish. Safe to call multiple times.
func (t *Throttle[T]) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}

// Interval returns the configured publication interval.
func (t *Throttle[T]) Interval() time.Duration {
	return t.interval
}
