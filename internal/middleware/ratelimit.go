package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/citypulse/citypulse-ai/internal/metrics"
)

// RateLimiter implements a per-client token bucket for the ingest endpoints.
type RateLimiter struct {
	mu            sync.Mutex
	clients       map[string]*bucket
	rate          float64 // tokens added per second
	burst         float64
	cleanupTicker *time.Ticker
	stopCh        chan struct{}
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter creates a rate limiter allowing ratePerSecond sustained
// requests with the given burst per client address.
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		clients:       make(map[string]*bucket),
		rate:          ratePerSecond,
		burst:         float64(burst),
		cleanupTicker: time.NewTicker(5 * time.Minute),
		stopCh:        make(chan struct{}),
	}

	// Drop stale client entries in the background
	go rl.cleanup()

	return rl
}

// Middleware returns an HTTP middleware that enforces rate limiting.
func (rl *RateLimiter) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientAddr(r)) {
			metrics.RequestsThrottled.Inc()
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		next(w, r)
	}
}

// allow checks if a request from the given client should be allowed.
func (rl *RateLimiter) allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, exists := rl.clients[client]

	if !exists {
		rl.clients[client] = &bucket{
			tokens:     rl.burst - 1,
			lastRefill: now,
		}
		return true
	}

	b.tokens += now.Sub(b.lastRefill).Seconds() * rl.rate
	if b.tokens > rl.burst {
		b.tokens = rl.burst
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}

	return false
}

// cleanup removes client entries idle for more than 10 minutes.
func (rl *RateLimiter) cleanup() {
	for {
		select {
		case <-rl.stopCh:
			return
		case <-rl.cleanupTicker.C:
			rl.mu.Lock()
			now := time.Now()
			for client, b := range rl.clients {
				if now.Sub(b.lastRefill) > 10*time.Minute {
					delete(rl.clients, client)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Stop stops the background cleanup.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
	rl.cleanupTicker.Stop()
}

// clientAddr strips the port so all connections from one host share a bucket.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
