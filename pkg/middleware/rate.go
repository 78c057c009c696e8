// Package middleware provides the HTTP middleware used by the bazaar kernel.
package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/shashiranjanraj/bazaar/pkg/ctx"
	"github.com/shashiranjanraj/bazaar/pkg/response"
)

// bucket is a fixed-window request count for one client.
type bucket struct {
	count   int
	resetAt time.Time
}

// limiter holds the buckets for a single RateLimit middleware, so separate
// routes do not share quotas.
type limiter struct {
	mu        sync.Mutex
	max       int
	window    time.Duration
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

func newLimiter(max int, window time.Duration) *limiter {
	return &limiter{
		max:     max,
		window:  window,
		buckets: map[string]*bucket{},
		now:     time.Now,
	}
}

// allow records a hit for key and reports whether it is within quota, plus
// the time until the window resets.
func (l *limiter) allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok || now.After(b.resetAt) {
		b = &bucket{resetAt: now.Add(l.window)}
		l.buckets[key] = b
	}
	b.count++
	return b.count <= l.max, b.resetAt.Sub(now)
}

// sweep evicts expired buckets at most once per window.
func (l *limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for k, b := range l.buckets {
		if now.After(b.resetAt) {
			delete(l.buckets, k)
		}
	}
}

// RateLimit limits each client IP to max requests per window. A max of zero
// or less disables the limit.
//
//	middleware.RateLimit(10, time.Minute)
func RateLimit(max int, window time.Duration) func(http.Handler) http.Handler {
	l := newLimiter(max, window)
	return func(next http.Handler) http.Handler {
		if max <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retry := l.allow(ctx.ClientIP(r))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
				response.TooManyRequests(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
