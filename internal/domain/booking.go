package domain

import "time"

type BookingStatus string

const (
	StatusHold      BookingStatus = "HOLD"
	StatusPending   BookingStatus = "PENDING"
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusCancelled BookingStatus = "CANCELLED"
	StatusCompleted BookingStatus = "COMPLETED"
)

// Terminal statuses allow no further transitions.
func (s BookingStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// ReleasesFromHolds reports whether cancelling a booking in this status
// returns capacity from the holds count rather than booked. PENDING is
// treated like HOLD: its rooms were never moved into booked.
func (s BookingStatus) ReleasesFromHolds() bool {
	return s == StatusHold || s == StatusPending
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case StatusHold, StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCancelled || next == StatusCompleted
	default:
		return false
	}
}

// Booking is the guest reservation header. HoldToken and HoldExpiresAt are
// set only while the booking is a hold.
type Booking struct {
	ID              string
	PropertyID      int64
	RoomTypeID      int64
	RatePlanID      *int64
	GuestName       string
	Email           string
	Phone           *string
	CheckIn         time.Time
	CheckOut        time.Time
	Rooms           int
	Guests          int
	TotalCents      int64
	Status          BookingStatus
	HoldToken       *string
	HoldExpiresAt   *time.Time
	PaymentRef      *string
	CancelReason    *string
	SpecialRequests *string
	Source          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HoldExpired reports whether the booking is a hold whose TTL has passed.
// Expiry is observed lazily; there is no stored transition.
func (b Booking) HoldExpired(now time.Time) bool {
	return b.Status == StatusHold && b.HoldExpiresAt != nil && !b.HoldExpiresAt.After(now)
}

type HoldLogStatus string

const (
	HoldLogActive    HoldLogStatus = "ACTIVE"
	HoldLogConfirmed HoldLogStatus = "CONFIRMED"
	HoldLogReleased  HoldLogStatus = "RELEASED"
)

// HoldLog is the immutable audit trail of a hold, kept for reconciliation
// independent of the mutable booking row.
type HoldLog struct {
	ID         int64
	BookingID  string
	RoomTypeID int64
	CheckIn    time.Time
	CheckOut   time.Time
	Rooms      int
	Status     HoldLogStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IdempotencyRecord maps a client-supplied key to the hash of the original
// request and the response that was returned. The request hash is written
// once and never updated.
type IdempotencyRecord struct {
	Key            string
	Method         string
	Path           string
	RequestHash    string
	ResponseStatus int
	ResponseBody   []byte
	PropertyID     *int64
	LastUsedAt     time.Time
	CreatedAt      time.Time
}
