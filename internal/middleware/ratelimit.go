package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"randomchallenge/api/internal/metrics"
	"randomchallenge/api/internal/utils"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	name     string
	limit    rate.Limit
	burst    int
	window   time.Duration
	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

// NewRateLimiter allows requests per window from each client, refilling
// continuously.
func NewRateLimiter(name string, requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		name:     name,
		limit:    rate.Every(window / time.Duration(requests)),
		burst:    requests,
		window:   window,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Cleanup forgets clients idle for longer than one window.
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.window)
	removed := 0
	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
			removed++
		}
	}
	return removed
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			metrics.RateLimited(rl.name)
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			utils.JSONError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}
