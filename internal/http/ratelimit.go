package http

import (
	"net/http"
	"sync"
	"time"
)

// rateLimiter caps mutating requests per client IP. Counters reset a
// minute after a client's last burst started; stale clients are swept
// periodically.
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientWindow
	limit        int
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientWindow struct {
	windowStart time.Time
	requests    int
}

func newRateLimiter(requestsPerMinute int) *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientWindow),
		limit:       requestsPerMinute,
		stopCleanup: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	c, ok := rl.clients[clientIP]
	if !ok || now.Sub(c.windowStart) > time.Minute {
		rl.clients[clientIP] = &clientWindow{windowStart: now, requests: 1}
		return true
	}
	c.requests++
	return c.requests <= rl.limit
}

func (rl *rateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := time.Now().Add(-10 * time.Minute)
			for ip, c := range rl.clients {
				if c.windowStart.Before(cutoff) {
					delete(rl.clients, ip)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() { close(rl.stopCleanup) })
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
