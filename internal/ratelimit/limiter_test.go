package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestNewRateLimiterStartsFull(t *testing.T) {
	rl := NewRateLimiter(1.0, 10.0)
	if tokens := rl.GetCurrentTokens(); tokens < 9.9 {
		t.Errorf("expected ~10 tokens, got %.2f", tokens)
	}
}

func TestTryAcquireConsumesBurst(t *testing.T) {
	rl := NewRateLimiter(1.0, 5.0)

	for i := 0; i < 5; i++ {
		if !rl.tryAcquire() {
			t.Fatalf("tryAcquire() failed on attempt %d", i+1)
		}
	}

	if rl.tryAcquire() {
		t.Error("tryAcquire() should fail when bucket is empty")
	}
}

func TestWaitBlocksUntilRefill(t *testing.T) {
	rl := NewRateLimiter(100.0, 1.0) // fast refill for test speed

	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait() error = %v", err)
	}

	start := time.Now()
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("second Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Wait() took %v, expected quick refill", elapsed)
	}
}

func TestWaitRespectsCancellation(t *testing.T) {
	rl := NewRateLimiter(0.001, 1.0) // effectively never refills
	if !rl.tryAcquire() {
		t.Fatal("initial token should be available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := rl.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("Wait() = %v, want context.DeadlineExceeded", err)
	}
}
