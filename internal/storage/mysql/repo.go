package mysql

import (
	"context"
	"database/sql"
	"time"

	"stayhub/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC()
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.db, fn)
}

// ---- master data ----

func (r *Repo) GetProperty(ctx context.Context, id int64) (domain.Property, error) {
	var p domain.Property
	err := r.q(ctx).QueryRowContext(ctx, getPropertySQL, id).
		Scan(&p.ID, &p.Name, &p.DefaultBufferPercent, &p.OverbookingEnabled, &p.Active)
	if err == sql.ErrNoRows {
		return domain.Property{}, domain.ErrNotFound
	}
	return p, err
}

func (r *Repo) GetRoomType(ctx context.Context, id int64) (domain.RoomType, error) {
	var rt domain.RoomType
	err := r.q(ctx).QueryRowContext(ctx, getRoomTypeSQL, id).
		Scan(&rt.ID, &rt.PropertyID, &rt.Name, &rt.BaseRooms, &rt.CapacityPerRoom, &rt.BaseRateCents, &rt.Active)
	if err == sql.ErrNoRows {
		return domain.RoomType{}, domain.ErrNotFound
	}
	return rt, err
}

func (r *Repo) ListRoomTypes(ctx context.Context, propertyID int64) ([]domain.RoomType, error) {
	rows, err := r.q(ctx).QueryContext(ctx, listRoomTypesSQL, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RoomType
	for rows.Next() {
		var rt domain.RoomType
		if err := rows.Scan(&rt.ID, &rt.PropertyID, &rt.Name, &rt.BaseRooms, &rt.CapacityPerRoom, &rt.BaseRateCents, &rt.Active); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (r *Repo) GetRatePlan(ctx context.Context, id int64) (domain.RatePlan, error) {
	var rp domain.RatePlan
	err := r.q(ctx).QueryRowContext(ctx, getRatePlanSQL, id).
		Scan(&rp.ID, &rp.PropertyID, &rp.RoomTypeID, &rp.Name, &rp.NightlyRateCents, &rp.Active)
	if err == sql.ErrNoRows {
		return domain.RatePlan{}, domain.ErrNotFound
	}
	return rp, err
}

// ---- bookings ----

func (r *Repo) CreateBooking(ctx context.Context, b domain.Booking) error {
	_, err := r.q(ctx).ExecContext(ctx, insertBookingSQL,
		b.ID,
		b.PropertyID,
		b.RoomTypeID,
		valInt64(b.RatePlanID),
		b.GuestName,
		b.Email,
		valStr(b.Phone),
		b.CheckIn.UTC(),
		b.CheckOut.UTC(),
		b.Rooms,
		b.Guests,
		b.TotalCents,
		string(b.Status),
		valStr(b.HoldToken),
		valTime(b.HoldExpiresAt),
		valStr(b.PaymentRef),
		valStr(b.CancelReason),
		valStr(b.SpecialRequests),
		b.Source,
	)
	return err
}

func (r *Repo) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	return r.scanBooking(r.q(ctx).QueryRowContext(ctx, getBookingSQL, id))
}

func (r *Repo) LockBooking(ctx context.Context, id string) (domain.Booking, error) {
	return r.scanBooking(r.q(ctx).QueryRowContext(ctx, lockBookingSQL, id))
}

func (r *Repo) LockBookingByHoldToken(ctx context.Context, token string) (domain.Booking, error) {
	return r.scanBooking(r.q(ctx).QueryRowContext(ctx, lockBookingByTokenSQL, token))
}

func (r *Repo) UpdateBooking(ctx context.Context, b domain.Booking) error {
	_, err := r.q(ctx).ExecContext(ctx, updateBookingSQL,
		string(b.Status),
		valStr(b.HoldToken),
		valTime(b.HoldExpiresAt),
		valStr(b.PaymentRef),
		valStr(b.CancelReason),
		b.ID,
	)
	return err
}

func (r *Repo) ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]domain.Booking, error) {
	rows, err := r.q(ctx).QueryContext(ctx, listExpiredHoldsSQL, now.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBookingRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func (r *Repo) scanBooking(row *sql.Row) (domain.Booking, error) {
	b, err := scanBookingRow(row)
	if err == sql.ErrNoRows {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, err
}

func scanBookingRow(row rowScanner) (domain.Booking, error) {
	var (
		b               domain.Booking
		ratePlanID      sql.NullInt64
		phone           sql.NullString
		status          string
		holdToken       sql.NullString
		holdExpiresAt   sql.NullTime
		paymentRef      sql.NullString
		cancelReason    sql.NullString
		specialRequests sql.NullString
	)
	err := row.Scan(
		&b.ID, &b.PropertyID, &b.RoomTypeID, &ratePlanID, &b.GuestName, &b.Email, &phone,
		&b.CheckIn, &b.CheckOut, &b.Rooms, &b.Guests, &b.TotalCents, &status, &holdToken,
		&holdExpiresAt, &paymentRef, &cancelReason, &specialRequests, &b.Source,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return domain.Booking{}, err
	}
	b.Status = domain.BookingStatus(status)
	if ratePlanID.Valid {
		v := ratePlanID.Int64
		b.RatePlanID = &v
	}
	if phone.Valid {
		v := phone.String
		b.Phone = &v
	}
	if holdToken.Valid {
		v := holdToken.String
		b.HoldToken = &v
	}
	if holdExpiresAt.Valid {
		v := holdExpiresAt.Time.UTC()
		b.HoldExpiresAt = &v
	}
	if paymentRef.Valid {
		v := paymentRef.String
		b.PaymentRef = &v
	}
	if cancelReason.Valid {
		v := cancelReason.String
		b.CancelReason = &v
	}
	if specialRequests.Valid {
		v := specialRequests.String
		b.SpecialRequests = &v
	}
	return b, nil
}

// ---- hold log ----

func (r *Repo) CreateHoldLog(ctx context.Context, hl domain.HoldLog) error {
	_, err := r.q(ctx).ExecContext(ctx, insertHoldLogSQL,
		hl.BookingID, hl.RoomTypeID, hl.CheckIn.UTC(), hl.CheckOut.UTC(), hl.Rooms, string(hl.Status))
	return err
}

func (r *Repo) SetHoldLogStatus(ctx context.Context, bookingID string, status domain.HoldLogStatus) error {
	_, err := r.q(ctx).ExecContext(ctx, setHoldLogStatusSQL, string(status), bookingID)
	return err
}
