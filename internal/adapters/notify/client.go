// Package notify posts booking lifecycle events to the messaging gateway
// (email/WhatsApp dispatch lives behind it). Called only after the booking
// transaction commits; a lost notification never fails a booking.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"stayhub/internal/adapters/observability"
	"stayhub/internal/domain"
)

type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) *Client {
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: base,
		hc:   &http.Client{Timeout: 10 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}
}

type eventPayload struct {
	Kind       string    `json:"kind"`
	BookingID  string    `json:"booking_id"`
	PropertyID int64     `json:"property_id"`
	RoomTypeID int64     `json:"room_type_id"`
	Status     string    `json:"status"`
	CheckIn    string    `json:"check_in"`
	CheckOut   string    `json:"check_out"`
	Rooms      int       `json:"rooms"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notify posts the event with client-side rate limiting and retries on 429
// and transient 5xx, honoring Retry-After when provided.
func (c *Client) Notify(ctx context.Context, ev domain.BookingEvent) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(eventPayload{
		Kind:       string(ev.Kind),
		BookingID:  ev.BookingID,
		PropertyID: ev.PropertyID,
		RoomTypeID: ev.RoomTypeID,
		Status:     string(ev.Status),
		CheckIn:    ev.CheckIn.Format("2006-01-02"),
		CheckOut:   ev.CheckOut.Format("2006-01-02"),
		Rooms:      ev.Rooms,
		Email:      ev.Email,
		OccurredAt: ev.OccurredAt,
	})
	if err != nil {
		return err
	}

	url := c.base + "/v1/events"
	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.key != "" {
			req.Header.Set("X-API-Key", c.key)
		}

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		observability.ObserveExternal("notify", "/v1/events", resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("notify: status %d", resp.StatusCode)
			wait := time.Duration(i+1) * 500 * time.Millisecond
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil {
					wait = time.Duration(secs) * time.Second
				}
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		default:
			return fmt.Errorf("notify: status %d", resp.StatusCode)
		}
	}
	return lastErr
}
