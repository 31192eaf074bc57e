// Package ratelimit implements a per-key sliding-window rate limiter
// held in process memory.
//
// The original deployment fronted this with a hosted limiter and fell
// back to an in-memory window when it was unreachable; here the
// in-memory window is the implementation. State is per process, which
// is the accepted trade-off for a single-node server.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter tracks request timestamps per key over a sliding window.
type Limiter struct {
	limit  int
	window time.Duration

	mu        sync.Mutex
	hits      map[string][]time.Time
	lastSweep time.Time
	now       func() time.Time
}

// Decision describes the outcome of an Allow call.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Limit is the configured maximum for the window.
	Limit int

	// Remaining is how many further requests the key may make in the
	// current window.
	Remaining int

	// Reset is when the oldest counted request falls out of the window.
	Reset time.Time
}

// New returns a limiter allowing limit requests per key per window.
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:  limit,
		window: window,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow records a request for key and reports whether it fits in the
// window. Denied requests are not recorded, so a rejected caller does
// not extend its own penalty.
func (l *Limiter) Allow(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	windowStart := now.Add(-l.window)

	// Keys that go quiet would otherwise sit in the map forever; one
	// sweep per window bounds memory under client churn.
	if now.Sub(l.lastSweep) >= l.window {
		l.sweepLocked(windowStart)
		l.lastSweep = now
	}

	valid := l.hits[key][:0]
	for _, hit := range l.hits[key] {
		if hit.After(windowStart) {
			valid = append(valid, hit)
		}
	}

	if len(valid) >= l.limit {
		l.hits[key] = valid
		return Decision{
			Allowed:   false,
			Limit:     l.limit,
			Remaining: 0,
			Reset:     valid[0].Add(l.window),
		}
	}

	valid = append(valid, now)
	l.hits[key] = valid
	return Decision{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit - len(valid),
		Reset:     now.Add(l.window),
	}
}

// Sweep drops keys with no requests inside the window. Allow runs it
// once per window on its own; callers needing tighter bounds may also
// run it directly.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked(l.now().Add(-l.window))
}

func (l *Limiter) sweepLocked(windowStart time.Time) {
	for key, hits := range l.hits {
		live := false
		for _, hit := range hits {
			if hit.After(windowStart) {
				live = true
				break
			}
		}
		if !live {
			delete(l.hits, key)
		}
	}
}
