package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"drivebid/pkg/logger"
)

// ClientKeyExtractor derives the rate-limit bucket key for a request.
type ClientKeyExtractor func(r *http.Request) string

// DefaultClientExtractor keys by the submitting renter when the header is
// present and falls back to the remote address.
func DefaultClientExtractor(r *http.Request) string {
	if renter := r.Header.Get("X-Renter-Email"); renter != "" {
		return renter
	}
	if owner := r.Header.Get("X-Owner-ID"); owner != "" {
		return owner
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ClientRateLimiter enforces a fixed-window request cap per client key.
type ClientRateLimiter struct {
	limit     int
	window    time.Duration
	extractor ClientKeyExtractor
	log       *logger.Logger

	mu      sync.Mutex
	buckets map[string]*bucket
	done    chan struct{}
	once    sync.Once
}

type bucket struct {
	count       int
	windowStart time.Time
}

func NewClientRateLimiter(limit int, window time.Duration, extractor ClientKeyExtractor, log *logger.Logger) *ClientRateLimiter {
	rl := &ClientRateLimiter{
		limit:     limit,
		window:    window,
		extractor: extractor,
		log:       log,
		buckets:   make(map[string]*bucket),
		done:      make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *ClientRateLimiter) allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok || now.Sub(b.windowStart) >= rl.window {
		rl.buckets[key] = &bucket{count: 1, windowStart: now}
		return true
	}

	if b.count >= rl.limit {
		return false
	}
	b.count++
	return true
}

func (rl *ClientRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for key, b := range rl.buckets {
				if now.Sub(b.windowStart) >= rl.window {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *ClientRateLimiter) Stop() {
	rl.once.Do(func() {
		close(rl.done)
	})
}

func ClientRateLimit(rl *ClientRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rl.extractor(r)
			if !rl.allow(key) {
				rl.log.Warn("Rate limit exceeded",
					"request_id", RequestIDFrom(r.Context()),
					"client", key,
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"Too many requests"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
