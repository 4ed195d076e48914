package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/repository"
)

const sweepInterval = time.Minute

type window struct {
	events []time.Time
	length time.Duration
}

// expired reports whether every event has left the window.
func (w window) expired(now time.Time) bool {
	return len(w.events) == 0 || !w.events[len(w.events)-1].After(now.Add(-w.length))
}

// RateLimiter keeps sliding-window timestamps in process memory. State is
// per instance and lost on restart; it backs deployments without Redis.
// Keys whose window has passed are swept at most once per sweepInterval.
type RateLimiter struct {
	mu        sync.Mutex
	keys      map[string]window
	now       func() time.Time
	nextSweep time.Time
}

var _ repository.RateLimiter = (*RateLimiter)(nil)

func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithClock(time.Now)
}

func NewRateLimiterWithClock(now func() time.Time) *RateLimiter {
	return &RateLimiter{keys: make(map[string]window), now: now}
}

func (l *RateLimiter) Allow(_ context.Context, key string, limit int, length time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	cutoff := now.Add(-length)
	w := l.keys[key]
	kept := w.events[:0]
	for _, t := range w.events {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= limit {
		if len(kept) == 0 {
			delete(l.keys, key)
		} else {
			l.keys[key] = window{events: kept, length: length}
		}
		return false, nil
	}
	l.keys[key] = window{events: append(kept, now), length: length}
	return true, nil
}

func (l *RateLimiter) sweep(now time.Time) {
	if now.Before(l.nextSweep) {
		return
	}
	for key, w := range l.keys {
		if w.expired(now) {
			delete(l.keys, key)
		}
	}
	l.nextSweep = now.Add(sweepInterval)
}
