package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/sophialabs/stubhttp/internal/infrastructure/ports"
)

var _ ports.RateLimiter = (*TokenBucketStore)(nil)

type bucket struct {
	limiter  *rate.Limiter
	rate     float64
	burst    int
	lastUsed time.Time
}

// TokenBucketStore keeps one token bucket per key. Buckets idle for longer
// than the TTL are evicted lazily on access, so the store owns no goroutine.
type TokenBucketStore struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewTokenBucketStore creates a store with the given TTL for idle buckets.
func NewTokenBucketStore(ttl time.Duration) *TokenBucketStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &TokenBucketStore{
		buckets: make(map[string]*bucket),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Allow checks if a request for the given key is within limits.
func (s *TokenBucketStore) Allow(_ context.Context, key string, r float64, burst int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= s.ttl {
		s.evictLocked(now)
		s.lastSweep = now
	}

	b, ok := s.buckets[key]
	switch {
	case !ok:
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(r), burst), rate: r, burst: burst}
		s.buckets[key] = b
	case b.rate != r || b.burst != burst:
		// Same key re-registered with different parameters.
		b.limiter.SetLimitAt(now, rate.Limit(r))
		b.limiter.SetBurstAt(now, burst)
		b.rate = r
		b.burst = burst
	}

	b.lastUsed = now
	return b.limiter.AllowN(now, 1)
}

// Evict removes buckets idle for longer than the TTL.
func (s *TokenBucketStore) Evict() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(s.now())
}

func (s *TokenBucketStore) evictLocked(now time.Time) {
	cutoff := now.Add(-s.ttl)
	for key, b := range s.buckets {
		if b.lastUsed.Before(cutoff) {
			delete(s.buckets, key)
		}
	}
}

// Reset drops every bucket.
func (s *TokenBucketStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.buckets)
}

// Len returns the number of live buckets.
func (s *TokenBucketStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}
