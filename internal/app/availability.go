package app

import (
	"context"
	"fmt"
	"time"

	"stayhub/internal/calendar"
	"stayhub/internal/clock"
	"stayhub/internal/domain"
)

// AvailabilityService serves the per-night free-to-sell read path. Results
// are cached in redis under a per-property generation counter that write
// paths bump, so stale pages age out without key enumeration.
type AvailabilityService struct {
	repo      domain.BookingRepository
	ledger    domain.InventoryLedger
	cache     domain.Cache
	clock     clock.Clock
	cacheTTL  time.Duration
	lookahead int
}

func NewAvailabilityService(repo domain.BookingRepository, ledger domain.InventoryLedger, cache domain.Cache, clk clock.Clock, cacheTTL time.Duration, lookaheadDays int) *AvailabilityService {
	if lookaheadDays <= 0 {
		lookaheadDays = 365
	}
	return &AvailabilityService{
		repo:      repo,
		ledger:    ledger,
		cache:     cache,
		clock:     clk,
		cacheTTL:  cacheTTL,
		lookahead: lookaheadDays,
	}
}

type AvailabilityQuery struct {
	PropertyID int64
	RoomTypeID int64 // 0 means all room types of the property
	StartDate  time.Time
	EndDate    time.Time
}

type NightAvailability struct {
	Date          string `json:"date"`
	BaseAvailable int    `json:"base_available"`
	BufferPercent int    `json:"buffer_percent"`
	Sellable      int    `json:"sellable"`
	Booked        int    `json:"booked"`
	Holds         int    `json:"holds"`
	FreeToSell    int    `json:"free_to_sell"`
}

type AvailabilitySummary struct {
	Nights        int `json:"nights"`
	TotalSellable int `json:"total_sellable"`
	TotalBooked   int `json:"total_booked"`
	TotalHolds    int `json:"total_holds"`
	MinFreeToSell int `json:"min_free_to_sell"`
}

type RoomTypeAvailability struct {
	RoomTypeID   int64               `json:"room_type_id"`
	RoomTypeName string              `json:"room_type_name"`
	Nights       []NightAvailability `json:"nights"`
	Summary      AvailabilitySummary `json:"summary"`
}

type AvailabilityPage struct {
	PropertyID int64                  `json:"property_id"`
	StartDate  string                 `json:"start_date"`
	EndDate    string                 `json:"end_date"`
	RoomTypes  []RoomTypeAvailability `json:"room_types"`
}

func availabilityGenKey(propertyID int64) string {
	return fmt.Sprintf("inv:gen:%d", propertyID)
}

func (s *AvailabilityService) GetAvailability(ctx context.Context, q AvailabilityQuery) (AvailabilityPage, error) {
	start := calendar.Normalize(q.StartDate)
	end := calendar.Normalize(q.EndDate)
	if !end.After(start) {
		return AvailabilityPage{}, fmt.Errorf("%w: end_date must be after start_date", domain.ErrValidation)
	}
	horizon := calendar.Normalize(s.clock.Now()).AddDate(0, 0, s.lookahead)
	if end.After(horizon) {
		return AvailabilityPage{}, fmt.Errorf("%w: range beyond %d-day window", domain.ErrValidation, s.lookahead)
	}

	var gen int64
	if s.cache != nil {
		gen, _ = s.cache.Generation(ctx, availabilityGenKey(q.PropertyID))
	}
	key := fmt.Sprintf("avail:%d:%d:%s:%s:g%d",
		q.PropertyID, q.RoomTypeID, start.Format(dateLayout), end.Format(dateLayout), gen)

	var page AvailabilityPage
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &page); ok {
			return page, nil
		}
	}

	page, err := s.materialize(ctx, q, start, end)
	if err != nil {
		return AvailabilityPage{}, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, page, int(s.cacheTTL.Seconds()))
	}
	return page, nil
}

// materialize ensures ledger rows exist for every night of the range (the
// lazy-creation contract) and assembles the page. One short transaction;
// row locks release at commit.
func (s *AvailabilityService) materialize(ctx context.Context, q AvailabilityQuery, start, end time.Time) (AvailabilityPage, error) {
	page := AvailabilityPage{
		PropertyID: q.PropertyID,
		StartDate:  start.Format(dateLayout),
		EndDate:    end.Format(dateLayout),
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		prop, err := s.repo.GetProperty(txCtx, q.PropertyID)
		if err != nil {
			return err
		}

		var roomTypes []domain.RoomType
		if q.RoomTypeID != 0 {
			rt, err := s.repo.GetRoomType(txCtx, q.RoomTypeID)
			if err != nil {
				return err
			}
			if rt.PropertyID != prop.ID {
				return domain.ErrNotFound
			}
			roomTypes = []domain.RoomType{rt}
		} else {
			roomTypes, err = s.repo.ListRoomTypes(txCtx, prop.ID)
			if err != nil {
				return err
			}
		}

		for _, rt := range roomTypes {
			rta := RoomTypeAvailability{RoomTypeID: rt.ID, RoomTypeName: rt.Name}
			first := true
			for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
				row, err := s.ledger.EnsureRow(txCtx, prop, rt, d)
				if err != nil {
					return err
				}
				rta.Nights = append(rta.Nights, NightAvailability{
					Date:          row.StayDate.Format(dateLayout),
					BaseAvailable: row.BaseAvailable,
					BufferPercent: row.BufferPercent,
					Sellable:      row.Sellable,
					Booked:        row.Booked,
					Holds:         row.Holds,
					FreeToSell:    row.FreeToSell,
				})
				rta.Summary.Nights++
				rta.Summary.TotalSellable += row.Sellable
				rta.Summary.TotalBooked += row.Booked
				rta.Summary.TotalHolds += row.Holds
				if first || row.FreeToSell < rta.Summary.MinFreeToSell {
					rta.Summary.MinFreeToSell = row.FreeToSell
					first = false
				}
			}
			page.RoomTypes = append(page.RoomTypes, rta)
		}
		return nil
	})
	if err != nil {
		return AvailabilityPage{}, err
	}
	return page, nil
}
