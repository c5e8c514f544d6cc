package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"stayhub/internal/adapters/observability"
	"stayhub/internal/calendar"
	"stayhub/internal/clock"
	"stayhub/internal/domain"
)

const defaultHoldTTL = 15 * time.Minute

// BookingService owns the booking lifecycle: HOLD -> CONFIRMED/CANCELLED,
// with ledger adjustments applied in lockstep inside one serializable
// transaction per call.
type BookingService struct {
	repo      domain.BookingRepository
	ledger    domain.InventoryLedger
	idem      domain.IdempotencyStore
	cache     domain.Cache
	notify    domain.Notifier
	clock     clock.Clock
	holdTTL   time.Duration
	lookahead int // days
}

type BookingConfig struct {
	HoldTTL       time.Duration
	LookaheadDays int
}

func NewBookingService(
	repo domain.BookingRepository,
	ledger domain.InventoryLedger,
	idem domain.IdempotencyStore,
	cache domain.Cache,
	notify domain.Notifier,
	clk clock.Clock,
	cfg BookingConfig,
) *BookingService {
	if cfg.HoldTTL <= 0 {
		cfg.HoldTTL = defaultHoldTTL
	}
	if cfg.LookaheadDays <= 0 {
		cfg.LookaheadDays = 365
	}
	return &BookingService{
		repo:      repo,
		ledger:    ledger,
		idem:      idem,
		cache:     cache,
		notify:    notify,
		clock:     clk,
		holdTTL:   cfg.HoldTTL,
		lookahead: cfg.LookaheadDays,
	}
}

// Result carries the HTTP-style status and response body of an operation.
// Replayed results come verbatim from the idempotency store.
type Result struct {
	Status   int
	Body     []byte
	Replayed bool
}

type CreateHoldInput struct {
	IdempotencyKey  string
	RequestHash     string
	Method          string
	Path            string
	PropertyID      int64
	RoomTypeID      int64
	RatePlanID      *int64
	GuestName       string
	Email           string
	Phone           *string
	CheckIn         time.Time
	CheckOut        time.Time
	Guests          int
	Rooms           int
	SpecialRequests *string
	Source          string
}

type HoldResponse struct {
	BookingID     string    `json:"booking_id"`
	Status        string    `json:"status"`
	HoldToken     string    `json:"hold_token"`
	HoldExpiresAt time.Time `json:"hold_expires_at"`
	TotalCents    int64     `json:"total_cents"`
}

type BookingResponse struct {
	BookingID     string     `json:"booking_id"`
	PropertyID    int64      `json:"property_id"`
	RoomTypeID    int64      `json:"room_type_id"`
	GuestName     string     `json:"guest_name"`
	CheckIn       string     `json:"check_in"`
	CheckOut      string     `json:"check_out"`
	Rooms         int        `json:"rooms"`
	Guests        int        `json:"guests"`
	TotalCents    int64      `json:"total_cents"`
	Status        string     `json:"status"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`
	PaymentRef    *string    `json:"payment_ref,omitempty"`
	CancelReason  *string    `json:"cancel_reason,omitempty"`
}

const dateLayout = "2006-01-02"

func bookingResponse(b domain.Booking) BookingResponse {
	return BookingResponse{
		BookingID:     b.ID,
		PropertyID:    b.PropertyID,
		RoomTypeID:    b.RoomTypeID,
		GuestName:     b.GuestName,
		CheckIn:       b.CheckIn.Format(dateLayout),
		CheckOut:      b.CheckOut.Format(dateLayout),
		Rooms:         b.Rooms,
		Guests:        b.Guests,
		TotalCents:    b.TotalCents,
		Status:        string(b.Status),
		HoldExpiresAt: b.HoldExpiresAt,
		PaymentRef:    b.PaymentRef,
		CancelReason:  b.CancelReason,
	}
}

// CreateHold places a time-limited hold on every night of the stay, or
// nothing at all: an insufficient night rolls back the whole range.
func (s *BookingService) CreateHold(ctx context.Context, in CreateHoldInput) (Result, error) {
	replay, err := s.checkIdempotency(ctx, in.IdempotencyKey, in.RequestHash)
	if err != nil {
		return Result{}, err
	}
	if replay != nil {
		return *replay, nil
	}

	res, err := s.createHold(ctx, in)
	if err != nil {
		s.persistFailure(ctx, in.IdempotencyKey, in.Method, in.Path, in.RequestHash, &in.PropertyID, err)
		observability.ObserveBooking("hold", "error")
		return Result{}, err
	}

	s.persistSuccess(ctx, in.IdempotencyKey, in.Method, in.Path, in.RequestHash, &in.PropertyID, res)
	s.invalidateAvailability(ctx, in.PropertyID)
	observability.ObserveBooking("hold", "ok")
	return res, nil
}

func (s *BookingService) createHold(ctx context.Context, in CreateHoldInput) (Result, error) {
	if err := validateHoldInput(in); err != nil {
		return Result{}, err
	}

	nights, err := calendar.Nights(in.CheckIn, in.CheckOut)
	if err != nil {
		return Result{}, err
	}
	now := s.clock.Now()
	horizon := calendar.Normalize(now).AddDate(0, 0, s.lookahead)
	if nights[len(nights)-1].After(horizon) {
		return Result{}, fmt.Errorf("%w: stay beyond %d-day booking window", domain.ErrValidation, s.lookahead)
	}

	var booking domain.Booking
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		prop, err := s.repo.GetProperty(txCtx, in.PropertyID)
		if err != nil {
			return err
		}
		if !prop.Active {
			return domain.ErrNotFound
		}
		rt, err := s.repo.GetRoomType(txCtx, in.RoomTypeID)
		if err != nil {
			return err
		}
		if !rt.Active || rt.PropertyID != prop.ID {
			return domain.ErrNotFound
		}
		if in.Guests > in.Rooms*rt.CapacityPerRoom {
			return fmt.Errorf("%w: %d guests exceed capacity of %d rooms", domain.ErrValidation, in.Guests, in.Rooms)
		}

		nightlyRate := rt.BaseRateCents
		if in.RatePlanID != nil {
			rp, err := s.repo.GetRatePlan(txCtx, *in.RatePlanID)
			if err != nil {
				return err
			}
			if !rp.Active || rp.RoomTypeID != rt.ID {
				return domain.ErrNotFound
			}
			nightlyRate = rp.NightlyRateCents
		}

		for _, night := range nights {
			row, err := s.ledger.EnsureRow(txCtx, prop, rt, night)
			if err != nil {
				return err
			}
			if err := row.ApplyHold(in.Rooms, prop.OverbookingEnabled); err != nil {
				observability.ObserveOversell()
				return err
			}
			if row.Overbooked() {
				observability.ObserveOverbook()
				log.Warn().
					Int64("room_type", rt.ID).
					Time("date", night).
					Int("booked", row.Booked).
					Int("holds", row.Holds).
					Int("sellable", row.Sellable).
					Msg("overbooking breach recorded")
			}
			if err := s.ledger.SaveCounts(txCtx, row); err != nil {
				return err
			}
		}

		token := newHoldToken()
		expiresAt := now.Add(s.holdTTL)
		source := in.Source
		if source == "" {
			source = "direct"
		}
		booking = domain.Booking{
			ID:              newBookingID(),
			PropertyID:      prop.ID,
			RoomTypeID:      rt.ID,
			RatePlanID:      in.RatePlanID,
			GuestName:       in.GuestName,
			Email:           in.Email,
			Phone:           in.Phone,
			CheckIn:         nights[0],
			CheckOut:        calendar.Normalize(in.CheckOut),
			Rooms:           in.Rooms,
			Guests:          in.Guests,
			TotalCents:      nightlyRate * int64(len(nights)) * int64(in.Rooms),
			Status:          domain.StatusHold,
			HoldToken:       &token,
			HoldExpiresAt:   &expiresAt,
			SpecialRequests: in.SpecialRequests,
			Source:          source,
		}
		if err := s.repo.CreateBooking(txCtx, booking); err != nil {
			return err
		}
		return s.repo.CreateHoldLog(txCtx, domain.HoldLog{
			BookingID:  booking.ID,
			RoomTypeID: rt.ID,
			CheckIn:    booking.CheckIn,
			CheckOut:   booking.CheckOut,
			Rooms:      booking.Rooms,
			Status:     domain.HoldLogActive,
		})
	})
	if err != nil {
		return Result{}, err
	}

	s.dispatch(ctx, domain.EventHoldCreated, booking)

	body, err := json.Marshal(HoldResponse{
		BookingID:     booking.ID,
		Status:        string(booking.Status),
		HoldToken:     *booking.HoldToken,
		HoldExpiresAt: *booking.HoldExpiresAt,
		TotalCents:    booking.TotalCents,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Status: http.StatusCreated, Body: body}, nil
}

type ConfirmHoldInput struct {
	IdempotencyKey string
	RequestHash    string
	Method         string
	Path           string
	BookingID      string
	HoldToken      string
	PaymentRef     *string
	PaymentCents   *int64
}

// ConfirmHold promotes a hold to a confirmed booking. Confirm is naturally
// idempotent per booking: an already-confirmed booking is a no-op success.
func (s *BookingService) ConfirmHold(ctx context.Context, in ConfirmHoldInput) (Result, error) {
	replay, err := s.checkIdempotency(ctx, in.IdempotencyKey, in.RequestHash)
	if err != nil {
		return Result{}, err
	}
	if replay != nil {
		return *replay, nil
	}
	if in.BookingID == "" && in.HoldToken == "" {
		return Result{}, fmt.Errorf("%w: booking_id or hold_token required", domain.ErrValidation)
	}

	now := s.clock.Now()
	var booking domain.Booking
	var confirmed bool

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		if in.BookingID != "" {
			booking, err = s.repo.LockBooking(txCtx, in.BookingID)
		} else {
			booking, err = s.repo.LockBookingByHoldToken(txCtx, in.HoldToken)
		}
		if err != nil {
			return err
		}

		if booking.Status == domain.StatusConfirmed {
			return nil // retry of a completed confirm
		}
		if !booking.Status.CanTransitionTo(domain.StatusConfirmed) {
			return fmt.Errorf("%w: %s -> CONFIRMED", domain.ErrInvalidStateTransition, booking.Status)
		}
		if booking.HoldExpired(now) {
			return domain.ErrHoldExpired
		}
		if in.PaymentCents != nil && *in.PaymentCents != booking.TotalCents {
			return fmt.Errorf("%w: payment of %d does not match booking total %d",
				domain.ErrValidation, *in.PaymentCents, booking.TotalCents)
		}

		nights, err := calendar.Nights(booking.CheckIn, booking.CheckOut)
		if err != nil {
			return err
		}
		rows, err := s.ledger.LockRows(txCtx, booking.RoomTypeID, nights)
		if err != nil {
			return err
		}
		for i := range rows {
			rows[i].ApplyConfirm(booking.Rooms)
			if err := s.ledger.SaveCounts(txCtx, rows[i]); err != nil {
				return err
			}
		}

		booking.Status = domain.StatusConfirmed
		booking.HoldToken = nil
		booking.HoldExpiresAt = nil
		if in.PaymentRef != nil {
			booking.PaymentRef = in.PaymentRef
		}
		if err := s.repo.UpdateBooking(txCtx, booking); err != nil {
			return err
		}
		confirmed = true
		return s.repo.SetHoldLogStatus(txCtx, booking.ID, domain.HoldLogConfirmed)
	})
	if err != nil {
		s.persistFailure(ctx, in.IdempotencyKey, in.Method, in.Path, in.RequestHash, nil, err)
		observability.ObserveBooking("confirm", "error")
		return Result{}, err
	}

	if confirmed {
		s.invalidateAvailability(ctx, booking.PropertyID)
		s.dispatch(ctx, domain.EventBookingConfirmed, booking)
	}

	body, err := json.Marshal(bookingResponse(booking))
	if err != nil {
		return Result{}, err
	}
	res := Result{Status: http.StatusOK, Body: body}
	s.persistSuccess(ctx, in.IdempotencyKey, in.Method, in.Path, in.RequestHash, &booking.PropertyID, res)
	observability.ObserveBooking("confirm", "ok")
	return res, nil
}

// CancelBooking releases held or booked capacity for every night of the
// stay. Cancelling an already-terminal booking is a no-op success, which
// makes double-release safe for the reaper and for retried clients.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID string, reason *string) (Result, error) {
	if bookingID == "" {
		return Result{}, fmt.Errorf("%w: booking_id required", domain.ErrValidation)
	}

	var booking domain.Booking
	var released bool

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		booking, err = s.repo.LockBooking(txCtx, bookingID)
		if err != nil {
			return err
		}
		if booking.Status.Terminal() {
			return nil // already cancelled/completed
		}

		nights, err := calendar.Nights(booking.CheckIn, booking.CheckOut)
		if err != nil {
			return err
		}
		rows, err := s.ledger.LockRows(txCtx, booking.RoomTypeID, nights)
		if err != nil {
			return err
		}
		for i := range rows {
			if clamped := rows[i].Release(booking.Rooms, booking.Status); clamped {
				log.Warn().
					Str("booking", booking.ID).
					Time("date", rows[i].StayDate).
					Msg("release clamped ledger count at zero")
			}
			if err := s.ledger.SaveCounts(txCtx, rows[i]); err != nil {
				return err
			}
		}

		booking.Status = domain.StatusCancelled
		booking.HoldToken = nil
		booking.HoldExpiresAt = nil
		booking.CancelReason = reason
		if err := s.repo.UpdateBooking(txCtx, booking); err != nil {
			return err
		}
		released = true
		return s.repo.SetHoldLogStatus(txCtx, booking.ID, domain.HoldLogReleased)
	})
	if err != nil {
		observability.ObserveBooking("cancel", "error")
		return Result{}, err
	}

	if released {
		s.invalidateAvailability(ctx, booking.PropertyID)
		s.dispatch(ctx, domain.EventBookingCancelled, booking)
	}
	observability.ObserveBooking("cancel", "ok")

	body, err := json.Marshal(bookingResponse(booking))
	if err != nil {
		return Result{}, err
	}
	return Result{Status: http.StatusOK, Body: body}, nil
}

// GetBooking is a plain read of the booking header.
func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (BookingResponse, error) {
	b, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return BookingResponse{}, err
	}
	return bookingResponse(b), nil
}

// ExpiredHolds lists holds whose TTL passed; the reaper cancels each one
// through CancelBooking.
func (s *BookingService) ExpiredHolds(ctx context.Context, limit int) ([]domain.Booking, error) {
	return s.repo.ListExpiredHolds(ctx, s.clock.Now(), limit)
}

// ResyncRoomType re-derives sellable capacity for every materialized ledger
// row of a room type inside the booking window, after admin edits to base
// rooms or buffer rules. One transaction; booked and held counts keep.
func (s *BookingService) ResyncRoomType(ctx context.Context, roomTypeID int64) (int, error) {
	var updated int
	var propertyID int64
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		rt, err := s.repo.GetRoomType(txCtx, roomTypeID)
		if err != nil {
			return err
		}
		prop, err := s.repo.GetProperty(txCtx, rt.PropertyID)
		if err != nil {
			return err
		}
		propertyID = prop.ID

		from := calendar.Normalize(s.clock.Now())
		to := from.AddDate(0, 0, s.lookahead)
		existing, err := s.ledger.Rows(txCtx, rt.ID, from, to)
		if err != nil {
			return err
		}
		dates := make([]time.Time, len(existing))
		for i, row := range existing {
			dates[i] = row.StayDate
		}
		rows, err := s.ledger.LockRows(txCtx, rt.ID, dates)
		if err != nil {
			return err
		}
		for i := range rows {
			buffer, err := s.ledger.EffectiveBuffer(txCtx, prop, rt, rows[i].StayDate)
			if err != nil {
				return err
			}
			rows[i].Resync(rt.BaseRooms, buffer)
			if err := s.ledger.SaveCounts(txCtx, rows[i]); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.invalidateAvailability(ctx, propertyID)
	return updated, nil
}

// ---- idempotency plumbing ----

// checkIdempotency returns a replay result when the key was seen before with
// the same request hash, an ErrIdempotencyConflict when the hash differs,
// and nil/nil for first use.
func (s *BookingService) checkIdempotency(ctx context.Context, key, hash string) (*Result, error) {
	if key == "" {
		return nil, domain.ErrIdempotencyKeyRequired
	}
	rec, err := s.idem.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	if rec.RequestHash != hash {
		return nil, domain.ErrIdempotencyConflict
	}
	if rec.ResponseStatus == 0 {
		return nil, nil
	}
	observability.ObserveIdemReplay()
	return &Result{Status: rec.ResponseStatus, Body: rec.ResponseBody, Replayed: true}, nil
}

func (s *BookingService) persistSuccess(ctx context.Context, key, method, path, hash string, propertyID *int64, res Result) {
	s.persistIdem(ctx, key, method, path, hash, propertyID, res.Status, res.Body)
}

// persistFailure records deterministic 4xx outcomes so retries short-circuit.
// 5xx results are not stored: a transient failure must stay retryable fresh.
func (s *BookingService) persistFailure(ctx context.Context, key, method, path, hash string, propertyID *int64, opErr error) {
	if opErr == domain.ErrIdempotencyConflict || opErr == domain.ErrIdempotencyKeyRequired {
		return
	}
	status := StatusForError(opErr)
	if status < 400 || status >= 500 {
		return
	}
	s.persistIdem(ctx, key, method, path, hash, propertyID, status, problemBody(opErr))
}

func (s *BookingService) persistIdem(ctx context.Context, key, method, path, hash string, propertyID *int64, status int, body []byte) {
	err := s.idem.Persist(ctx, domain.IdempotencyRecord{
		Key:            key,
		Method:         method,
		Path:           path,
		RequestHash:    hash,
		ResponseStatus: status,
		ResponseBody:   body,
		PropertyID:     propertyID,
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("persist idempotency record failed")
	}
}

// ---- post-commit collaborators ----

func (s *BookingService) invalidateAvailability(ctx context.Context, propertyID int64) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Bump(ctx, availabilityGenKey(propertyID)); err != nil {
		log.Warn().Err(err).Int64("property", propertyID).Msg("availability cache bump failed")
	}
}

func (s *BookingService) dispatch(ctx context.Context, kind domain.BookingEventKind, b domain.Booking) {
	if s.notify == nil {
		return
	}
	ev := domain.BookingEvent{
		Kind:       kind,
		BookingID:  b.ID,
		PropertyID: b.PropertyID,
		RoomTypeID: b.RoomTypeID,
		Status:     b.Status,
		CheckIn:    b.CheckIn,
		CheckOut:   b.CheckOut,
		Rooms:      b.Rooms,
		Email:      b.Email,
		OccurredAt: s.clock.Now(),
	}
	if err := s.notify.Notify(ctx, ev); err != nil {
		log.Warn().Err(err).Str("booking", b.ID).Str("event", string(kind)).Msg("notification dispatch failed")
	}
}

func validateHoldInput(in CreateHoldInput) error {
	if in.PropertyID <= 0 || in.RoomTypeID <= 0 {
		return fmt.Errorf("%w: property_id and room_type_id required", domain.ErrValidation)
	}
	if in.GuestName == "" || in.Email == "" {
		return fmt.Errorf("%w: guest_name and email required", domain.ErrValidation)
	}
	if in.Rooms <= 0 {
		return fmt.Errorf("%w: rooms must be positive", domain.ErrValidation)
	}
	if in.Guests <= 0 {
		return fmt.Errorf("%w: guests must be positive", domain.ErrValidation)
	}
	return nil
}
