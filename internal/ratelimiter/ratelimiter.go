// Package ratelimiter provides per-caller request rate limiting for the
// registry API using the token bucket algorithm.
package ratelimiter

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter enforces a token bucket per caller identity.
//
// Each caller gets an independent bucket: tokens accrue at the configured
// sustained rate and each request consumes one, so one noisy client cannot
// starve the others. Buckets are created lazily on first sight of an
// identity and capped in number; when the cap is reached the table is
// reset, which briefly refills every bucket. That is an acceptable
// trade against unbounded growth from identity churn.
//
// A zero requestsPerSecond disables limiting entirely.
//
// Thread safety:
// All methods are safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter

	limit rate.Limit
	burst int

	// maxBuckets bounds the table size before it is reset.
	maxBuckets int
}

// DefaultMaxBuckets bounds the per-caller bucket table.
const DefaultMaxBuckets = 16384

// New creates a Limiter with the given sustained rate and burst capacity.
//
// Special cases:
//   - requestsPerSecond = 0: no limiting, Allow always returns true
//   - burst < 1: clamped to 1 so a full bucket admits at least one request
func New(requestsPerSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		buckets:    make(map[string]*rate.Limiter),
		limit:      rate.Limit(requestsPerSecond),
		burst:      burst,
		maxBuckets: DefaultMaxBuckets,
	}
}

// Allow reports whether caller may proceed, consuming one token from the
// caller's bucket. Never blocks.
func (l *Limiter) Allow(caller string) bool {
	if l.limit == 0 {
		return true
	}
	return l.bucket(caller).Allow()
}

// bucket returns the caller's limiter, creating it on first use.
func (l *Limiter) bucket(caller string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.buckets[caller]; ok {
		return b
	}
	if len(l.buckets) >= l.maxBuckets {
		l.buckets = make(map[string]*rate.Limiter)
	}
	b := rate.NewLimiter(l.limit, l.burst)
	l.buckets[caller] = b
	return b
}

// Tokens returns the number of tokens currently available to caller.
// Primarily useful for monitoring and tests; the value may change
// immediately after the call.
func (l *Limiter) Tokens(caller string) float64 {
	if l.limit == 0 {
		return 0
	}
	return l.bucket(caller).Tokens()
}
