package middleware

import (
	"testing"
	"time"
)

func TestRateLimiterExhaustsBudget(t *testing.T) {
	rl := NewRateLimiter(5, 15*time.Minute)

	for i := 0; i < 5; i++ {
		if !rl.Allow("alice@example.com") {
			t.Fatalf("attempt %d unexpectedly denied", i+1)
		}
	}

	if rl.Allow("alice@example.com") {
		t.Error("expected denial after budget exhausted")
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	if !rl.Allow("a") {
		t.Fatal("first attempt for key a denied")
	}
	if rl.Allow("a") {
		t.Error("second attempt for key a should be denied")
	}
	if !rl.Allow("b") {
		t.Error("key b should have its own budget")
	}
}
