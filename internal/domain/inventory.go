package domain

import "time"

type Property struct {
	ID                   int64
	Name                 string
	DefaultBufferPercent int
	OverbookingEnabled   bool
	Active               bool
}

type RoomType struct {
	ID              int64
	PropertyID      int64
	Name            string
	BaseRooms       int
	CapacityPerRoom int
	BaseRateCents   int64
	Active          bool
}

type RatePlan struct {
	ID               int64
	PropertyID       int64
	RoomTypeID       int64
	Name             string
	NightlyRateCents int64
	Active           bool
}

// LedgerRow is the per-room-type-per-day inventory accounting record.
// All count mutation goes through ApplyHold/ApplyConfirm/Release so the
// accounting invariant (booked+holds <= sellable, freeToSell >= 0) is
// enforced in one place.
type LedgerRow struct {
	ID            int64
	PropertyID    int64
	RoomTypeID    int64
	StayDate      time.Time
	BaseAvailable int
	BufferPercent int
	Sellable      int
	Booked        int
	Holds         int
	FreeToSell    int
}

// SellableRooms withholds the buffer percentage from base capacity,
// rounding down.
func SellableRooms(baseAvailable, bufferPercent int) int {
	if baseAvailable <= 0 {
		return 0
	}
	if bufferPercent < 0 {
		bufferPercent = 0
	}
	if bufferPercent > 100 {
		bufferPercent = 100
	}
	return baseAvailable * (100 - bufferPercent) / 100
}

func (r *LedgerRow) recalc() {
	fts := r.Sellable - r.Booked - r.Holds
	if fts < 0 {
		fts = 0
	}
	r.FreeToSell = fts
}

// ApplyHold reserves rooms against free-to-sell capacity. With
// allowOverbooking the capacity check is skipped; callers are expected to
// record the breach.
func (r *LedgerRow) ApplyHold(rooms int, allowOverbooking bool) error {
	if rooms <= 0 {
		return ErrValidation
	}
	if !allowOverbooking && r.FreeToSell < rooms {
		return ErrInsufficientInventory
	}
	r.Holds += rooms
	r.recalc()
	return nil
}

// Overbooked reports whether confirmed plus held rooms exceed sellable
// capacity.
func (r *LedgerRow) Overbooked() bool {
	return r.Booked+r.Holds > r.Sellable
}

// ApplyConfirm moves rooms from holds to booked. Free-to-sell is unchanged:
// the capacity was already debited when the hold was applied. At-most-once
// per booking per night is the state machine's job, not the ledger's.
func (r *LedgerRow) ApplyConfirm(rooms int) {
	r.Holds -= rooms
	if r.Holds < 0 {
		r.Holds = 0
	}
	r.Booked += rooms
	r.recalc()
}

// Release returns rooms to free-to-sell, decrementing holds or booked
// depending on the status the booking is leaving. Counts never go negative;
// a clamp is reported (true) so the caller can log the discrepancy, making
// double-release safe.
func (r *LedgerRow) Release(rooms int, from BookingStatus) (clamped bool) {
	if from.ReleasesFromHolds() {
		r.Holds -= rooms
		if r.Holds < 0 {
			r.Holds = 0
			clamped = true
		}
	} else {
		r.Booked -= rooms
		if r.Booked < 0 {
			r.Booked = 0
			clamped = true
		}
	}
	r.recalc()
	return clamped
}

// Resync re-derives sellable and free-to-sell after an admin edit to base
// rooms or the buffer percentage. Booked and held counts are preserved.
func (r *LedgerRow) Resync(baseAvailable, bufferPercent int) {
	r.BaseAvailable = baseAvailable
	r.BufferPercent = bufferPercent
	r.Sellable = SellableRooms(baseAvailable, bufferPercent)
	r.recalc()
}
