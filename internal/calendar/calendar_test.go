package calendar_test

import (
	"testing"
	"time"

	"stayhub/internal/calendar"
)

func TestNormalize(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	in := time.Date(2026, 9, 10, 1, 30, 0, 0, loc) // 2026-09-09 22:30 UTC
	got := calendar.Normalize(in)
	want := time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Normalize = %v, want %v", got, want)
	}
	if got.Location() != time.UTC {
		t.Fatalf("Normalize location = %v, want UTC", got.Location())
	}
}

func TestNights(t *testing.T) {
	in := time.Date(2026, 9, 10, 14, 0, 0, 0, time.UTC)
	out := time.Date(2026, 9, 13, 11, 0, 0, 0, time.UTC)

	nights, err := calendar.Nights(in, out)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(nights) != 3 {
		t.Fatalf("expected 3 nights, got %d", len(nights))
	}
	// checkout night excluded
	last := nights[len(nights)-1]
	if !last.Equal(time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected last night %v", last)
	}
}

func TestNights_InvalidRange(t *testing.T) {
	day := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)

	if _, err := calendar.Nights(day, day); err != calendar.ErrInvalidRange {
		t.Fatalf("same-day: expected ErrInvalidRange, got %v", err)
	}
	if _, err := calendar.Nights(day, day.AddDate(0, 0, -1)); err != calendar.ErrInvalidRange {
		t.Fatalf("reversed: expected ErrInvalidRange, got %v", err)
	}
	// intra-day times still collapse to the same calendar day
	if _, err := calendar.Nights(day.Add(9*time.Hour), day.Add(17*time.Hour)); err != calendar.ErrInvalidRange {
		t.Fatalf("same-day with hours: expected ErrInvalidRange, got %v", err)
	}
}

func TestNights_StayTooLong(t *testing.T) {
	in := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)

	if _, err := calendar.Nights(in, in.AddDate(0, 0, calendar.MaxStayNights+1)); err != calendar.ErrStayTooLong {
		t.Fatalf("expected ErrStayTooLong, got %v", err)
	}
	// exactly at the limit is allowed
	nights, err := calendar.Nights(in, in.AddDate(0, 0, calendar.MaxStayNights))
	if err != nil {
		t.Fatalf("err at limit: %v", err)
	}
	if len(nights) != calendar.MaxStayNights {
		t.Fatalf("expected %d nights, got %d", calendar.MaxStayNights, len(nights))
	}
}
