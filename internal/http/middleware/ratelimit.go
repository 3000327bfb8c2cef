package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	evictEvery = 5 * time.Minute
	staleAfter = 10 * time.Minute
)

// RateLimiter is a per-key token bucket limiter.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	rate      float64 // tokens per second
	burst     int     // max tokens
	now       func() time.Time
	lastEvict time.Time
}

type bucket struct {
	tokens   float64
	lastTime time.Time
}

// NewRateLimiter allows rate requests/sec with the given burst per key.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	return newRateLimiter(rate, burst, time.Now)
}

func newRateLimiter(rate float64, burst int, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		buckets:   make(map[string]*bucket),
		rate:      rate,
		burst:     burst,
		now:       now,
		lastEvict: now(),
	}
}

// Allow reports whether a request for key is within the limit.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastEvict) >= evictEvery {
		rl.evict(now)
	}
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(rl.burst), lastTime: now}
		rl.buckets[key] = b
	}

	elapsed := now.Sub(b.lastTime).Seconds()
	b.tokens = min(b.tokens+elapsed*rl.rate, float64(rl.burst))
	b.lastTime = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (rl *RateLimiter) evict(now time.Time) {
	cutoff := now.Add(-staleAfter)
	for key, b := range rl.buckets {
		if b.lastTime.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
	rl.lastEvict = now
}

// KeyFunc picks the bucket for a request.
type KeyFunc func(r *http.Request) string

// ByClientIP keys on the client address, preferring X-Real-Ip set by chi's RealIP.
func ByClientIP(r *http.Request) string {
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// ByFormValue keys on a form field, such as the sender of an SMS webhook,
// and falls back to the client IP when the field is absent.
func ByFormValue(field string) KeyFunc {
	return func(r *http.Request) string {
		if v := strings.TrimSpace(r.FormValue(field)); v != "" {
			return field + ":" + v
		}
		return ByClientIP(r)
	}
}

// RateLimit rejects requests exceeding the configured rate with 429.
func RateLimit(rate float64, burst int, key KeyFunc) func(http.Handler) http.Handler {
	return rateLimit(NewRateLimiter(rate, burst), key)
}

func rateLimit(limiter *RateLimiter, key KeyFunc) func(http.Handler) http.Handler {
	if key == nil {
		key = ByClientIP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(key(r)) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
