package ratelimiter

import (
	"testing"
	"time"
)

// TestNew verifies limiter creation with different parameters.
func TestNew(t *testing.T) {
	tests := []struct {
		name              string
		requestsPerSecond float64
		burst             int
	}{
		{
			name:              "standard rate",
			requestsPerSecond: 100,
			burst:             200,
		},
		{
			name:              "low rate",
			requestsPerSecond: 1,
			burst:             2,
		},
		{
			name:              "unlimited (zero rate)",
			requestsPerSecond: 0,
			burst:             0,
		},
		{
			name:              "zero burst clamped",
			requestsPerSecond: 10,
			burst:             0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := New(tt.requestsPerSecond, tt.burst)
			if limiter == nil {
				t.Fatal("New() returned nil")
			}
			if limiter.burst < 1 {
				t.Fatalf("burst not clamped: %d", limiter.burst)
			}
		})
	}
}

// TestAllow verifies burst enforcement and token replenishment.
func TestAllow(t *testing.T) {
	// 10 req/s sustained, burst of 10
	limiter := New(10, 10)

	for i := 0; i < 10; i++ {
		if !limiter.Allow("alice") {
			t.Fatalf("request %d should be allowed (within burst)", i)
		}
	}

	if limiter.Allow("alice") {
		t.Fatal("request should be rate-limited after burst exhausted")
	}

	// Wait for token replenishment (100ms for 10 req/s = 1 token)
	time.Sleep(110 * time.Millisecond)

	if !limiter.Allow("alice") {
		t.Fatal("request should be allowed after token replenishment")
	}
}

// TestAllow_PerCallerIsolation verifies one caller exhausting their bucket
// does not affect another.
func TestAllow_PerCallerIsolation(t *testing.T) {
	limiter := New(10, 5)

	for i := 0; i < 5; i++ {
		if !limiter.Allow("noisy") {
			t.Fatalf("noisy request %d should be allowed", i)
		}
	}
	if limiter.Allow("noisy") {
		t.Fatal("noisy caller should be limited")
	}

	if !limiter.Allow("quiet") {
		t.Fatal("quiet caller must not share the noisy caller's bucket")
	}
}

// TestAllow_Unlimited verifies a zero rate disables limiting.
func TestAllow_Unlimited(t *testing.T) {
	limiter := New(0, 0)

	for i := 0; i < 10000; i++ {
		if !limiter.Allow("anyone") {
			t.Fatalf("request %d rejected by unlimited limiter", i)
		}
	}
}

// TestBucketTableReset verifies the table resets at the cap instead of
// growing without bound.
func TestBucketTableReset(t *testing.T) {
	limiter := New(10, 10)
	limiter.maxBuckets = 4

	callers := []string{"a", "b", "c", "d", "e"}
	for _, caller := range callers {
		limiter.Allow(caller)
	}

	limiter.mu.Lock()
	size := len(limiter.buckets)
	limiter.mu.Unlock()
	if size > 4 {
		t.Fatalf("bucket table grew past cap: %d", size)
	}
}

// TestAllow_Concurrent exercises the limiter from multiple goroutines.
func TestAllow_Concurrent(t *testing.T) {
	limiter := New(1000, 1000)

	done := make(chan struct{})
	for g := 0; g < 8; g++ {
		go func(id int) {
			defer func() { done <- struct{}{} }()
			caller := string(rune('a' + id))
			for i := 0; i < 100; i++ {
				limiter.Allow(caller)
			}
		}(g)
	}
	for g := 0; g < 8; g++ {
		<-done
	}
}
