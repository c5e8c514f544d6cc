package domain_test

import (
	"testing"
	"time"

	"stayhub/internal/domain"
)

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to domain.BookingStatus
		want     bool
	}{
		{domain.StatusHold, domain.StatusConfirmed, true},
		{domain.StatusHold, domain.StatusCancelled, true},
		{domain.StatusPending, domain.StatusConfirmed, true},
		{domain.StatusPending, domain.StatusCancelled, true},
		{domain.StatusConfirmed, domain.StatusCancelled, true},
		{domain.StatusConfirmed, domain.StatusCompleted, true},
		{domain.StatusCancelled, domain.StatusConfirmed, false},
		{domain.StatusCancelled, domain.StatusHold, false},
		{domain.StatusCompleted, domain.StatusCancelled, false},
		{domain.StatusHold, domain.StatusCompleted, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.want {
			t.Fatalf("%s -> %s = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	if domain.StatusHold.Terminal() || domain.StatusConfirmed.Terminal() {
		t.Fatalf("HOLD/CONFIRMED must not be terminal")
	}
	if !domain.StatusCancelled.Terminal() || !domain.StatusCompleted.Terminal() {
		t.Fatalf("CANCELLED/COMPLETED must be terminal")
	}
}

func TestHoldExpired(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	b := domain.Booking{Status: domain.StatusHold, HoldExpiresAt: &past}
	if !b.HoldExpired(now) {
		t.Fatalf("expected expired")
	}
	b.HoldExpiresAt = &future
	if b.HoldExpired(now) {
		t.Fatalf("not yet expired")
	}
	// expiry only applies to holds
	b.Status = domain.StatusConfirmed
	b.HoldExpiresAt = &past
	if b.HoldExpired(now) {
		t.Fatalf("confirmed booking cannot expire")
	}
}
