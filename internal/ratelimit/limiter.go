// Package ratelimit provides token-bucket rate limiting for portal API calls.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Scope rates. The portal throttles the browse endpoints (listings and
// facets) at 10 req/sec per token and manifest generation at 1 req/sec;
// both targets sit at 80% of the published limit for headroom.
const (
	BrowseRatePerSec      = 8.0
	BrowseBurstCapacity   = 40.0
	ManifestRatePerSec    = 0.8
	ManifestBurstCapacity = 5.0
)

// RateLimiter implements a token bucket. It allows bursts up to the
// bucket capacity, then refills at a fixed rate.
type RateLimiter struct {
	tokens     float64
	maxTokens  float64
	refillRate float64
	lastRefill time.Time
	mu         sync.Mutex
}

// NewRateLimiter creates a limiter refilling at tokensPerSecond with the
// given burst capacity. The bucket starts full.
func NewRateLimiter(tokensPerSecond, burstSize float64) *RateLimiter {
	return &RateLimiter{
		tokens:     burstSize,
		maxTokens:  burstSize,
		refillRate: tokensPerSecond,
		lastRefill: time.Now(),
	}
}

// NewBrowseRateLimiter creates the limiter shared by listing and facet calls.
func NewBrowseRateLimiter() *RateLimiter {
	return NewRateLimiter(BrowseRatePerSec, BrowseBurstCapacity)
}

// NewManifestRateLimiter creates the limiter for manifest generation.
func NewManifestRateLimiter() *RateLimiter {
	return NewRateLimiter(ManifestRatePerSec, ManifestBurstCapacity)
}

// Wait blocks until a token is available or the context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if rl.tryAcquire() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rl.timeUntilNextToken()):
		}
	}
}

// tryAcquire attempts to take one token without blocking.
func (rl *RateLimiter) tryAcquire() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.tokens += elapsed * rl.refillRate
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = now

	if rl.tokens >= 1.0 {
		rl.tokens -= 1.0
		return true
	}
	return false
}

// timeUntilNextToken reports how long until at least one token is available.
func (rl *RateLimiter) timeUntilNextToken() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	needed := 1.0 - rl.tokens
	if needed <= 0 {
		return 0
	}
	return time.Duration(needed / rl.refillRate * float64(time.Second))
}

// GetCurrentTokens returns the current token count (testing/debugging).
func (rl *RateLimiter) GetCurrentTokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	elapsed := time.Since(rl.lastRefill).Seconds()
	tokens := rl.tokens + elapsed*rl.refillRate
	if tokens > rl.maxTokens {
		tokens = rl.maxTokens
	}
	return tokens
}
