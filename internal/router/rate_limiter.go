package router

import (
	"sync"
	"time"
)

// RateLimiter enforces a sliding-window event budget per connection.
type RateLimiter struct {
	mu       sync.Mutex
	events   map[string][]time.Time
	limit    int
	window   time.Duration
	shutdown chan struct{}
}

// NewRateLimiter creates a limiter allowing limit events per window for
// each key. A background sweep drops idle keys.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		events:   make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		shutdown: make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Allow reports whether the key may send another event right now, and
// records the event if so.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	recent := rl.events[key][:0]
	for _, t := range rl.events[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= rl.limit {
		rl.events[key] = recent
		return false
	}

	rl.events[key] = append(recent, now)
	return true
}

// Forget drops all state for a key, typically on disconnect.
func (rl *RateLimiter) Forget(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.events, key)
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.shutdown:
			return
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.window)
	for key, times := range rl.events {
		recent := times[:0]
		for _, t := range times {
			if t.After(cutoff) {
				recent = append(recent, t)
			}
		}
		if len(recent) == 0 {
			delete(rl.events, key)
		} else {
			rl.events[key] = recent
		}
	}
}

// Stop terminates the background sweep.
func (rl *RateLimiter) Stop() {
	close(rl.shutdown)
}
