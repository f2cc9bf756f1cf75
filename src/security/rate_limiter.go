package security

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rafaavmsilva/Menu/src/logger"
)

// RateLimiter is a per-client sliding window limiter.
// The client map is never evicted; every distinct key seen stays in memory.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	history map[string][]time.Time
	now     func() time.Time
}

func NewRateLimiter(window time.Duration, limit int) *RateLimiter {
	return &RateLimiter{
		window:  window,
		limit:   limit,
		history: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow prunes timestamps older than the window, rejects when the remaining
// count is at the limit and otherwise records the call.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	calls := l.history[key]
	kept := calls[:0]
	for _, t := range calls {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.limit {
		l.history[key] = kept
		return false
	}
	l.history[key] = append(kept, now)
	return true
}

// Clients returns the number of tracked client keys.
func (l *RateLimiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.history)
}

// Middleware rejects requests over the limit with 429, keyed by client address.
// Mount it after middleware.RealIP so proxied addresses are honored.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !l.Allow(key) {
			logger.FromContext(r.Context()).Warn("Rate limit exceeded", "client", key, "path", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", retryAfterSeconds(l.window))
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "Rate limit exceeded. Please try again later."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfterSeconds(d time.Duration) string {
	secs := int(d / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
