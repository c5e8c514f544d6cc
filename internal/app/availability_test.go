package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"stayhub/internal/app"
	"stayhub/internal/clock"
	"stayhub/internal/domain"
)

func availFixture() (*app.AvailabilityService, *fixture) {
	fx := newFixture()
	avail := app.NewAvailabilityService(fx.store, fx.store, fx.cache, clock.NewFixed(testNow), time.Minute, 365)
	return avail, fx
}

func availQuery() app.AvailabilityQuery {
	return app.AvailabilityQuery{
		PropertyID: 1,
		RoomTypeID: 10,
		StartDate:  time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC),
	}
}

func TestGetAvailability_MaterializesRange(t *testing.T) {
	avail, _ := availFixture()

	page, err := avail.GetAvailability(context.Background(), availQuery())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(page.RoomTypes) != 1 {
		t.Fatalf("room types = %d", len(page.RoomTypes))
	}
	rta := page.RoomTypes[0]
	if len(rta.Nights) != 3 {
		t.Fatalf("nights = %d", len(rta.Nights))
	}
	for _, n := range rta.Nights {
		if n.Sellable != 10 || n.FreeToSell != 10 || n.Booked != 0 || n.Holds != 0 {
			t.Fatalf("unexpected night: %+v", n)
		}
	}
	s := rta.Summary
	if s.Nights != 3 || s.TotalSellable != 30 || s.MinFreeToSell != 10 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestGetAvailability_AllRoomTypes(t *testing.T) {
	avail, fx := availFixture()
	fx.store.roomTypes[11] = domain.RoomType{
		ID: 11, PropertyID: 1, Name: "Suite", BaseRooms: 4, CapacityPerRoom: 4,
		BaseRateCents: 30000, Active: true,
	}

	q := availQuery()
	q.RoomTypeID = 0
	page, err := avail.GetAvailability(context.Background(), q)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(page.RoomTypes) != 2 {
		t.Fatalf("room types = %d, want both", len(page.RoomTypes))
	}
}

func TestGetAvailability_ServesFromCache(t *testing.T) {
	avail, fx := availFixture()

	if _, err := avail.GetAvailability(context.Background(), availQuery()); err != nil {
		t.Fatalf("err: %v", err)
	}

	// mutate the store behind the cache's back: the cached page must win
	// until the generation counter moves
	row := fx.store.ledger[ledgerKey(10, availQuery().StartDate)]
	row.Holds = 5
	row.FreeToSell = 5
	fx.store.ledger[ledgerKey(10, availQuery().StartDate)] = row

	page, err := avail.GetAvailability(context.Background(), availQuery())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if page.RoomTypes[0].Nights[0].FreeToSell != 10 {
		t.Fatalf("expected stale cached page, got %+v", page.RoomTypes[0].Nights[0])
	}
}

func TestGetAvailability_InvalidatedByBookingWrites(t *testing.T) {
	avail, fx := availFixture()

	before, err := avail.GetAvailability(context.Background(), availQuery())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if before.RoomTypes[0].Summary.MinFreeToSell != 10 {
		t.Fatalf("unexpected baseline: %+v", before.RoomTypes[0].Summary)
	}

	// a hold through the booking service bumps the property generation
	if _, err := fx.svc.CreateHold(context.Background(), holdInput("k1")); err != nil {
		t.Fatalf("hold: %v", err)
	}

	after, err := avail.GetAvailability(context.Background(), availQuery())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if got := after.RoomTypes[0].Summary.MinFreeToSell; got != 9 {
		t.Fatalf("minFreeToSell = %d, want 9 after hold", got)
	}
	if after.RoomTypes[0].Summary.TotalHolds != 3 {
		t.Fatalf("totalHolds = %d", after.RoomTypes[0].Summary.TotalHolds)
	}
}

func TestGetAvailability_RangeValidation(t *testing.T) {
	avail, _ := availFixture()

	q := availQuery()
	q.EndDate = q.StartDate
	if _, err := avail.GetAvailability(context.Background(), q); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	q = availQuery()
	q.StartDate = testNow.AddDate(0, 0, 400)
	q.EndDate = q.StartDate.AddDate(0, 0, 2)
	if _, err := avail.GetAvailability(context.Background(), q); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation beyond window, got %v", err)
	}

	q = availQuery()
	q.PropertyID = 999
	if _, err := avail.GetAvailability(context.Background(), q); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
