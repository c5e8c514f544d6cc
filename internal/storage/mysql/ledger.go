package mysql

import (
	"context"
	"database/sql"
	"time"

	"stayhub/internal/domain"
)

// EnsureRow lazily creates the ledger row for a night and returns it locked.
// The insert is a no-op under the (room_type_id, stay_date) unique key, so
// concurrent transactions converge on one row; the FOR UPDATE read then
// serializes them.
func (r *Repo) EnsureRow(ctx context.Context, p domain.Property, rt domain.RoomType, date time.Time) (domain.LedgerRow, error) {
	day := date.UTC()

	buffer, err := r.EffectiveBuffer(ctx, p, rt, day)
	if err != nil {
		return domain.LedgerRow{}, err
	}

	sellable := domain.SellableRooms(rt.BaseRooms, buffer)
	if _, err := r.q(ctx).ExecContext(ctx, ensureInventorySQL,
		p.ID, rt.ID, day, rt.BaseRooms, buffer, sellable, sellable); err != nil {
		return domain.LedgerRow{}, err
	}

	return r.lockRow(ctx, rt.ID, day)
}

func (r *Repo) EffectiveBuffer(ctx context.Context, p domain.Property, rt domain.RoomType, date time.Time) (int, error) {
	var override int
	err := r.q(ctx).QueryRowContext(ctx, getBufferRuleSQL, rt.ID, date.UTC()).Scan(&override)
	switch err {
	case nil:
		return override, nil
	case sql.ErrNoRows:
		return p.DefaultBufferPercent, nil
	default:
		return 0, err
	}
}

func (r *Repo) lockRow(ctx context.Context, roomTypeID int64, day time.Time) (domain.LedgerRow, error) {
	var row domain.LedgerRow
	err := r.q(ctx).QueryRowContext(ctx, lockInventorySQL, roomTypeID, day).Scan(
		&row.ID, &row.PropertyID, &row.RoomTypeID, &row.StayDate,
		&row.BaseAvailable, &row.BufferPercent, &row.Sellable,
		&row.Booked, &row.Holds, &row.FreeToSell,
	)
	if err == sql.ErrNoRows {
		return domain.LedgerRow{}, domain.ErrNotFound
	}
	return row, err
}

func (r *Repo) LockRows(ctx context.Context, roomTypeID int64, dates []time.Time) ([]domain.LedgerRow, error) {
	out := make([]domain.LedgerRow, 0, len(dates))
	for _, d := range dates {
		row, err := r.lockRow(ctx, roomTypeID, d)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func (r *Repo) SaveCounts(ctx context.Context, row domain.LedgerRow) error {
	_, err := r.q(ctx).ExecContext(ctx, saveInventoryCountsSQL,
		row.BaseAvailable, row.BufferPercent, row.Sellable,
		row.Booked, row.Holds, row.FreeToSell, row.ID)
	return err
}

func (r *Repo) Rows(ctx context.Context, roomTypeID int64, from, to time.Time) ([]domain.LedgerRow, error) {
	rows, err := r.q(ctx).QueryContext(ctx, selectInventoryRangeSQL, roomTypeID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LedgerRow
	for rows.Next() {
		var row domain.LedgerRow
		if err := rows.Scan(
			&row.ID, &row.PropertyID, &row.RoomTypeID, &row.StayDate,
			&row.BaseAvailable, &row.BufferPercent, &row.Sellable,
			&row.Booked, &row.Holds, &row.FreeToSell,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
