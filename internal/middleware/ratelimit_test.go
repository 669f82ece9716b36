package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiter_BurstThenThrottle(t *testing.T) {
	rl := NewRateLimiter(1, 3)
	defer rl.Stop()

	handler := rl.Middleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents", nil)
		req.RemoteAddr = "10.0.0.1:54321"
		w := httptest.NewRecorder()
		handler(w, req)
		return w.Code
	}

	for i := 0; i < 3; i++ {
		if code := send(); code != http.StatusAccepted {
			t.Fatalf("Request %d: expected 202 within the burst, got %d", i+1, code)
		}
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 past the burst, got %d", code)
	}
}

func TestRateLimiter_ClientsAreIndependent(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Stop()

	if !rl.allow("10.0.0.1") {
		t.Fatal("Expected the first request to pass")
	}
	if rl.allow("10.0.0.1") {
		t.Error("Expected the same client throttled")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("Expected a different client to have its own bucket")
	}
}

func TestRateLimiter_TokensRefill(t *testing.T) {
	rl := NewRateLimiter(50, 1)
	defer rl.Stop()

	if !rl.allow("10.0.0.1") {
		t.Fatal("Expected the first request to pass")
	}
	if rl.allow("10.0.0.1") {
		t.Fatal("Expected the bucket drained")
	}

	// At 50 tokens/second a fresh token arrives within tens of milliseconds.
	deadline := time.Now().Add(time.Second)
	for !rl.allow("10.0.0.1") {
		if time.Now().After(deadline) {
			t.Fatal("Bucket never refilled")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClientAddr_SharesBucketAcrossPorts(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Stop()

	handler := rl.Middleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	first := httptest.NewRequest(http.MethodPost, "/", nil)
	first.RemoteAddr = "10.0.0.1:1111"
	w := httptest.NewRecorder()
	handler(w, first)
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", w.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/", nil)
	second.RemoteAddr = "10.0.0.1:2222"
	w = httptest.NewRecorder()
	handler(w, second)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected the same host throttled across ports, got %d", w.Code)
	}
}
