package ratelimit

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
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(perMinute int) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	return newLimiter(Config{RequestsPerMinute: perMinute}, clock.Now), clock
}

func TestAllowWindow(t *testing.T) {
	rl, clock := newTestLimiter(3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.1.1.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.1.1.1") {
		t.Fatal("fourth request should be rejected")
	}
	if !rl.Allow("2.2.2.2") {
		t.Fatal("other client should have its own window")
	}
	if rl.Rejected() != 1 {
		t.Errorf("Rejected() = %d, want 1", rl.Rejected())
	}

	clock.Advance(30 * time.Second)
	if got := rl.RetryAfter("1.1.1.1"); got != 30*time.Second {
		t.Errorf("RetryAfter = %v, want 30s", got)
	}

	clock.Advance(30 * time.Second)
	if !rl.Allow("1.1.1.1") {
		t.Fatal("new window should allow again")
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, clock := newTestLimiter(10)
	rl.Allow("a")
	clock.Advance(45 * time.Second)
	rl.Allow("b")
	clock.Advance(20 * time.Second)

	rl.cleanupStaleEntries()
	if got := rl.ActiveClients(); got != 1 {
		t.Errorf("ActiveClients() = %d, want 1", got)
	}
}

func TestDefaultsApplied(t *testing.T) {
	rl := newLimiter(Config{}, time.Now)
	if rl.requestsPerMinute != 60 {
		t.Errorf("requestsPerMinute = %d, want 60", rl.requestsPerMinute)
	}
	if rl.cleanupInterval != 5*time.Minute {
		t.Errorf("cleanupInterval = %v, want 5m", rl.cleanupInterval)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	rl.Stop()
	rl.Stop()
}

func TestMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(1)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	ip := func(*http.Request) string { return "9.9.9.9" }

	limited := 0
	handler := rl.Middleware(ip, func(w http.ResponseWriter, r *http.Request) {
		limited++
		w.WriteHeader(http.StatusTooManyRequests)
	})(next)

	tests := []struct {
		method string
		want   int
	}{
		{http.MethodPost, http.StatusNoContent},
		{http.MethodGet, http.StatusNoContent},
		{http.MethodDelete, http.StatusTooManyRequests},
		{http.MethodGet, http.StatusNoContent},
	}

	for i, tt := range tests {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(tt.method, "/expenses", nil))
		if rec.Code != tt.want {
			t.Errorf("step %d %s: status = %d, want %d", i, tt.method, rec.Code, tt.want)
		}
	}
	if limited != 1 {
		t.Errorf("onLimit called %d times, want 1", limited)
	}
}

func TestMiddlewareDefaultRejection(t *testing.T) {
	rl, _ := newTestLimiter(1)
	handler := rl.Middleware(func(*http.Request) string { return "x" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}
}
