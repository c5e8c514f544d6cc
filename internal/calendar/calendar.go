// Package calendar holds the pure date arithmetic used by the booking
// engine: day normalization and the inclusive-exclusive night range of a
// stay.
package calendar

import (
	"errors"
	"time"
)

// MaxStayNights bounds a single stay; longer ranges are rejected before any
// transaction is opened.
const MaxStayNights = 30

var (
	ErrInvalidRange = errors.New("check-out must be after check-in")
	ErrStayTooLong  = errors.New("stay exceeds maximum nights")
)

// Normalize truncates t to UTC midnight of its calendar day.
func Normalize(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Nights enumerates the occupied nights [checkIn, checkOut), one entry per
// night; the checkout night is excluded.
func Nights(checkIn, checkOut time.Time) ([]time.Time, error) {
	in, out := Normalize(checkIn), Normalize(checkOut)
	if !out.After(in) {
		return nil, ErrInvalidRange
	}
	n := int(out.Sub(in).Hours() / 24)
	if n > MaxStayNights {
		return nil, ErrStayTooLong
	}
	nights := make([]time.Time, 0, n)
	for d := in; d.Before(out); d = d.AddDate(0, 0, 1) {
		nights = append(nights, d)
	}
	return nights, nil
}
