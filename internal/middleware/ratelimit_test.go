package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(t *testing.T, rate, burst int) (*RateLimiter, *fakeClock) {
	t.Helper()
	rl := NewRateLimiter(RateLimitConfig{Rate: rate, Burst: burst, Window: time.Minute})
	t.Cleanup(rl.Stop)
	clock := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	rl.now = clock.Now
	return rl, clock
}

func TestRateLimiter_AllowsCapacityThenDenies(t *testing.T) {
	t.Parallel()
	rl, _ := newTestLimiter(t, 3, 2)

	for i := 0; i < 5; i++ {
		if ok, _, _ := rl.Allow("a"); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	ok, remaining, wait := rl.Allow("a")
	if ok {
		t.Fatal("sixth request should be denied")
	}
	if remaining != 0 {
		t.Errorf("expected 0 remaining, got %d", remaining)
	}
	if wait <= 0 || wait > 20*time.Second {
		t.Errorf("expected wait up to one token interval, got %v", wait)
	}
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	t.Parallel()
	rl, clock := newTestLimiter(t, 6, 1)

	for i := 0; i < 7; i++ {
		rl.Allow("a")
	}
	if ok, _, _ := rl.Allow("a"); ok {
		t.Fatal("bucket should be empty")
	}

	clock.Advance(10 * time.Second)
	if ok, _, _ := rl.Allow("a"); !ok {
		t.Error("one token should have refilled after 10s")
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	t.Parallel()
	rl, _ := newTestLimiter(t, 1, 1)

	rl.Allow("a")
	rl.Allow("a")
	if ok, _, _ := rl.Allow("b"); !ok {
		t.Error("other client should not be limited")
	}
}

func TestRateLimiter_CleanupIdle(t *testing.T) {
	t.Parallel()
	rl, clock := newTestLimiter(t, 1, 1)

	rl.Allow("a")
	clock.Advance(3 * time.Minute)
	rl.cleanupIdle()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.buckets) != 0 {
		t.Errorf("expected idle bucket removed, got %d", len(rl.buckets))
	}
}

func TestRateLimit_Returns429WithRetryAfter(t *testing.T) {
	t.Parallel()
	rl, _ := newTestLimiter(t, 1, 1)
	handler := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	var rr *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		rr = httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/service-dates/2025-06-01/units", nil))
	}

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if rr.Header().Get("Content-Type") != "application/problem+json" {
		t.Error("expected problem details body")
	}
}

func TestRateLimit_EventStreamExempt(t *testing.T) {
	t.Parallel()
	rl, _ := newTestLimiter(t, 1, 1)
	handler := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i := 0; i < 5; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/service-dates/2025-06-01/events", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("event stream request %d limited", i+1)
		}
	}
}
