package web

// ratelimit.go implements a fixed-window request limiter per client IP.
// Counters reset each window; stale entries are swept in the background
// until the limiter is closed.

import (
	"net"
	"net/http"
	"sync"
	"time"
)

type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*windowCount
	rate    int
	window  time.Duration
	stop    chan struct{}
}

type windowCount struct {
	remaining int
	start     time.Time
}

// newRateLimiter allows rate requests per client per window. Callers own
// the limiter's lifecycle and must close it when done.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		clients: make(map[string]*windowCount),
		rate:    rate,
		window:  window,
		stop:    make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// close stops the background sweeper. Safe to call once.
func (rl *rateLimiter) close() {
	close(rl.stop)
}

// sweep drops clients that have been idle for two windows.
func (rl *rateLimiter) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, c := range rl.clients {
				if time.Since(c.start) > rl.window*2 {
					delete(rl.clients, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// allow consumes one request slot for ip, reporting whether it fit in the
// current window.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[ip]
	if !ok || time.Since(c.start) > rl.window {
		rl.clients[ip] = &windowCount{remaining: rl.rate - 1, start: time.Now()}
		return true
	}
	if c.remaining <= 0 {
		return false
	}
	c.remaining--
	return true
}

// middleware rejects requests over the per-IP budget with 429.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		// RealIP middleware rewrites RemoteAddr; strip any port.
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}

		if !rl.allow(ip) {
			w.Header().Set("Retry-After", "60")
			writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}
