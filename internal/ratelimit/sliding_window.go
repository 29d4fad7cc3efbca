package ratelimit

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// sweepEvery controls how often idle keys are dropped
const sweepEvery = 1024

// SlidingWindowLimiter admits at most limit requests per key within any trailing window.
// State lives in process memory and is lost on restart.
type SlidingWindowLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu    sync.Mutex
	hits  map[string][]time.Time
	calls int
}

// NewSlidingWindowLimiter creates an in-memory limiter.
func NewSlidingWindowLimiter(limit int, window time.Duration) (*SlidingWindowLimiter, error) {
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	return &SlidingWindowLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
	}, nil
}

// WithClock replaces the time source; used by tests.
func (l *SlidingWindowLimiter) WithClock(now func() time.Time) *SlidingWindowLimiter {
	l.now = now
	return l
}

// Allow returns true when the key is within quota and records the hit.
func (l *SlidingWindowLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := prune(l.hits[key], now.Add(-l.window))
	if len(recent) >= l.limit {
		l.hits[key] = recent
		return false
	}
	l.hits[key] = append(recent, now)

	l.calls++
	if l.calls%sweepEvery == 0 {
		l.sweep(now)
	}
	return true
}

// sweep drops keys with no hits inside the window. Caller holds mu.
func (l *SlidingWindowLimiter) sweep(now time.Time) {
	cutoff := now.Add(-l.window)
	for key, hits := range l.hits {
		if len(prune(hits, cutoff)) == 0 {
			delete(l.hits, key)
		}
	}
}

func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}
