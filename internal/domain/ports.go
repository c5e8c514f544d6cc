package domain

import (
	"context"
	"time"
)

// BookingRepository persists bookings, hold logs and master data. WithTx
// runs fn inside one serializable transaction; every method called with
// the ctx it passes to fn joins that transaction.
type BookingRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	GetProperty(ctx context.Context, id int64) (Property, error)
	GetRoomType(ctx context.Context, id int64) (RoomType, error)
	ListRoomTypes(ctx context.Context, propertyID int64) ([]RoomType, error)
	GetRatePlan(ctx context.Context, id int64) (RatePlan, error)

	CreateBooking(ctx context.Context, b Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	// LockBooking loads the booking under a row lock (SELECT ... FOR UPDATE)
	// so a concurrent confirm and cancel cannot both observe HOLD.
	LockBooking(ctx context.Context, id string) (Booking, error)
	LockBookingByHoldToken(ctx context.Context, token string) (Booking, error)
	UpdateBooking(ctx context.Context, b Booking) error

	CreateHoldLog(ctx context.Context, hl HoldLog) error
	SetHoldLogStatus(ctx context.Context, bookingID string, status HoldLogStatus) error

	// ListExpiredHolds returns bookings still in HOLD whose TTL passed
	// before now; used by the reaper.
	ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]Booking, error)
}

// InventoryLedger owns the per (room type, calendar day) accounting rows.
// All operations execute inside the caller's transaction, never their own.
type InventoryLedger interface {
	// EnsureRow returns the locked ledger row for the day, creating it
	// lazily from the room type's base capacity and the effective buffer
	// percent (per-date rule override, else property default). Concurrent
	// callers converge on one row.
	EnsureRow(ctx context.Context, p Property, rt RoomType, date time.Time) (LedgerRow, error)
	// SaveCounts persists booked/holds/free-to-sell after a domain-side
	// mutation of the locked row.
	SaveCounts(ctx context.Context, row LedgerRow) error
	// Rows reads existing ledger rows for [from, to) without locking.
	Rows(ctx context.Context, roomTypeID int64, from, to time.Time) ([]LedgerRow, error)
	// LockRows loads and locks all ledger rows of a room type for the
	// given nights.
	LockRows(ctx context.Context, roomTypeID int64, dates []time.Time) ([]LedgerRow, error)
	// EffectiveBuffer resolves the buffer percent for a night: a per-date
	// rule override when one exists, else the property default.
	EffectiveBuffer(ctx context.Context, p Property, rt RoomType, date time.Time) (int, error)
}

// IdempotencyStore maps client keys to the original request hash and the
// response that was served. Persist is an atomic keyed upsert: concurrent
// identical retries may race to insert, and the request hash of the first
// write always wins.
type IdempotencyStore interface {
	Lookup(ctx context.Context, key string) (*IdempotencyRecord, error)
	Persist(ctx context.Context, rec IdempotencyRecord) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
	// Bump increments and returns a generation counter, used to invalidate
	// derived cache keys without enumerating them.
	Bump(ctx context.Context, key string) (int64, error)
	// Generation reads the counter without incrementing (0 when unset).
	Generation(ctx context.Context, key string) (int64, error)
}

type BookingEventKind string

const (
	EventHoldCreated      BookingEventKind = "hold.created"
	EventBookingConfirmed BookingEventKind = "booking.confirmed"
	EventBookingCancelled BookingEventKind = "booking.cancelled"
)

type BookingEvent struct {
	Kind       BookingEventKind
	BookingID  string
	PropertyID int64
	RoomTypeID int64
	Status     BookingStatus
	CheckIn    time.Time
	CheckOut   time.Time
	Rooms      int
	Email      string
	OccurredAt time.Time
}

// Notifier dispatches guest/ops notifications. Implementations are invoked
// only after the booking transaction commits; errors are logged, never
// propagated into the booking flow.
type Notifier interface {
	Notify(ctx context.Context, ev BookingEvent) error
}
