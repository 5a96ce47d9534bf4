package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/model"
)

// RateLimiter is a per-client token bucket. Buckets refill continuously at
// Rate tokens per Window up to Rate+Burst.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	rate     int
	window   time.Duration
	capacity float64
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	tokens  float64
	updated time.Time
}

// RateLimitConfig holds rate limiter configuration
type RateLimitConfig struct {
	Rate    int           // Requests per window (default 300)
	Window  time.Duration // Time window (default 1 minute)
	Burst   int           // Extra tokens above Rate (default 50)
	Cleanup time.Duration // Cleanup interval for idle buckets (default 5 minutes)
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Rate == 0 {
		cfg.Rate = 300
	}
	if cfg.Window == 0 {
		cfg.Window = time.Minute
	}
	if cfg.Burst == 0 {
		cfg.Burst = 50
	}
	if cfg.Cleanup == 0 {
		cfg.Cleanup = 5 * time.Minute
	}

	rl := &RateLimiter{
		buckets:  make(map[string]*bucket),
		rate:     cfg.Rate,
		window:   cfg.Window,
		capacity: float64(cfg.Rate + cfg.Burst),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	go rl.cleanupLoop(cfg.Cleanup)

	return rl
}

// Stop stops the rate limiter cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopChan) })
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupIdle()
		case <-rl.stopChan:
			return
		}
	}
}

// cleanupIdle drops buckets untouched for two windows.
func (rl *RateLimiter) cleanupIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-2 * rl.window)
	for key, b := range rl.buckets {
		if b.updated.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
}

// Allow takes one token for key. When denied, retryAfter is the time until
// the next token is available.
func (rl *RateLimiter) Allow(key string) (allowed bool, remaining int, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.capacity, updated: now}
		rl.buckets[key] = b
	}

	perToken := rl.window / time.Duration(rl.rate)
	elapsed := now.Sub(b.updated)
	b.tokens = math.Min(rl.capacity, b.tokens+float64(elapsed)/float64(perToken))
	b.updated = now

	if b.tokens >= 1 {
		b.tokens--
		return true, int(b.tokens), 0
	}

	wait := time.Duration((1 - b.tokens) * float64(perToken))
	return false, 0, wait
}

// RateLimit returns a middleware that limits each client. Event streams are
// exempt since one stream is a single long request.
func RateLimit(limiter *RateLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isEventStream(r) {
				next.ServeHTTP(w, r)
				return
			}

			allowed, remaining, wait := limiter.Allow(clientID(r))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.rate))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				retryAfter := int(math.Ceil(wait.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

				model.NewRateLimitError(retryAfter).WriteJSON(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
