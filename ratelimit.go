package main

import (
	"sync"
	"time"
)

// RouteLimit is the (max calls, trailing window) pair for one route.
type RouteLimit struct {
	MaxCalls int
	Window   time.Duration
}

var defaultRouteLimit = RouteLimit{MaxCalls: 10, Window: 60 * time.Second}

// clientWindow holds the request timestamps for one (client, route)
// pair. Entries older than the window are purged lazily on each check.
type clientWindow struct {
	mu    sync.Mutex
	times []time.Time
}

// RateLimiter implements sliding-window limiting per (client, route).
// Each window has its own mutex so unrelated clients never serialize
// on each other; the limiter-level RWMutex only guards the map.
type RateLimiter struct {
	mu      sync.RWMutex
	windows map[string]*clientWindow
	limits  map[string]RouteLimit
	now     func() time.Time
}

func NewRateLimiter(limits map[string]RouteLimit) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*clientWindow),
		limits:  limits,
		now:     time.Now,
	}
}

func (rl *RateLimiter) limitFor(routeKey string) RouteLimit {
	if l, ok := rl.limits[routeKey]; ok {
		return l
	}
	return defaultRouteLimit
}

func (rl *RateLimiter) getWindow(key string) *clientWindow {
	rl.mu.RLock()
	w, exists := rl.windows[key]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		// Double-check after acquiring write lock
		w, exists = rl.windows[key]
		if !exists {
			w = &clientWindow{}
			rl.windows[key] = w
		}
		rl.mu.Unlock()
	}

	return w
}

// Allow records the call and reports whether it is within the route's
// limit. A rejected call is not recorded.
func (rl *RateLimiter) Allow(clientKey, routeKey string) bool {
	limit := rl.limitFor(routeKey)
	w := rl.getWindow(clientKey + "|" + routeKey)

	now := rl.now()
	cutoff := now.Add(-limit.Window)

	w.mu.Lock()
	defer w.mu.Unlock()

	// drop timestamps that have rolled out of the window
	kept := w.times[:0]
	for _, t := range w.times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	w.times = kept

	if len(w.times) >= limit.MaxCalls {
		return false
	}
	w.times = append(w.times, now)
	return true
}
