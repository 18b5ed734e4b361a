package ratelimiter

import (
	"sync"
	"time"
)

// Config holds the limiter settings read from the environment.
type Config struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
}

// Limiter throttles callers by a client key, normally the remote IP.
type Limiter interface {
	Allow(key string) (bool, time.Duration)
}

// FixedWindowRateLimiter counts requests per key inside a fixed window.
// Payment initiation and webhook endpoints sit behind it so a
// misbehaving integration cannot hammer the provider APIs through us.
type FixedWindowRateLimiter struct {
	sync.RWMutex
	clients map[string]int
	limit   int
	window  time.Duration
}

func NewFixedWindowLimiter(limit int, window time.Duration) *FixedWindowRateLimiter {
	rl := &FixedWindowRateLimiter{
		clients: make(map[string]int),
		limit:   limit,
		window:  window,
	}
	go rl.cleanup()
	return rl
}

func (rl *FixedWindowRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	for range ticker.C {
		rl.Lock()
		rl.clients = make(map[string]int)
		rl.Unlock()
	}
}

// Allow reports whether the key may proceed; when denied it returns how
// long the caller should wait before retrying.
func (rl *FixedWindowRateLimiter) Allow(key string) (bool, time.Duration) {
	rl.RLock()
	count, exists := rl.clients[key]
	rl.RUnlock()

	if !exists || count < rl.limit {
		rl.Lock()
		if !exists {
			go rl.resetCount(key)
		}

		rl.clients[key]++
		rl.Unlock()
		return true, 0
	}

	return false, rl.window
}

func (rl *FixedWindowRateLimiter) resetCount(key string) {
	time.Sleep(rl.window)
	rl.Lock()
	delete(rl.clients, key)
	rl.Unlock()
}
