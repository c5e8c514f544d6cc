package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"stayhub/internal/adapters/notify"
	"stayhub/internal/domain"
)

func testEvent() domain.BookingEvent {
	return domain.BookingEvent{
		Kind:       domain.EventHoldCreated,
		BookingID:  "b1",
		PropertyID: 1,
		RoomTypeID: 10,
		Status:     domain.StatusHold,
		CheckIn:    time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		Rooms:      1,
		Email:      "ada@example.com",
		OccurredAt: time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNotify_PostsEvent(t *testing.T) {
	var got map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/events" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "test-key" {
			t.Errorf("missing api key header")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(202)
	}))
	defer ts.Close()

	cl := notify.New(ts.URL, "test-key", 100) // high RPS for tests
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := cl.Notify(ctx, testEvent()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got["kind"] != "hold.created" || got["booking_id"] != "b1" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if got["check_in"] != "2026-09-10" {
		t.Fatalf("check_in = %v", got["check_in"])
	}
}

func TestNotify_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1:
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(429)
		case 2:
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(500)
		default:
			w.WriteHeader(200)
		}
	}))
	defer ts.Close()

	cl := notify.New(ts.URL, "", 100)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := cl.Notify(ctx, testEvent()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestNotify_PermanentFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(400)
	}))
	defer ts.Close()

	cl := notify.New(ts.URL, "", 100)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := cl.Notify(ctx, testEvent()); err == nil {
		t.Fatalf("expected error for 400")
	}
}
