package api

import (
	"testing"
	"time"
)

func TestRateLimiter_Burst(t *testing.T) {
	rl := newRateLimiter(3, 1)

	for i := 0; i < 3; i++ {
		if !rl.allow() {
			t.Fatalf("allow() = false on call %d, want true within burst", i+1)
		}
	}
	if rl.allow() {
		t.Error("allow() = true after burst exhausted, want false")
	}
}

func TestRateLimiter_Refill(t *testing.T) {
	rl := newRateLimiter(1, 10)
	if !rl.allow() {
		t.Fatal("allow() = false, want true for first call")
	}
	if rl.allow() {
		t.Fatal("allow() = true, want false with empty bucket")
	}

	// Pretend the last refill happened over a second ago.
	rl.mu.Lock()
	rl.lastRefill = time.Now().Add(-1100 * time.Millisecond)
	rl.mu.Unlock()

	if !rl.allow() {
		t.Error("allow() = false after refill window, want true")
	}
}

func TestRateLimiter_CapsAtMax(t *testing.T) {
	rl := newRateLimiter(2, 100)

	rl.mu.Lock()
	rl.lastRefill = time.Now().Add(-time.Minute)
	rl.mu.Unlock()

	for i := 0; i < 2; i++ {
		if !rl.allow() {
			t.Fatalf("allow() = false on call %d, want true", i+1)
		}
	}
	if rl.allow() {
		t.Error("allow() = true beyond bucket capacity, want false")
	}
}
