package mysql

import (
	"context"
	"database/sql"

	"stayhub/internal/domain"
)

// IdempotencyStore persists keyed request/response records. Kept separate
// from Repo because it deliberately runs outside the booking transaction:
// a rolled-back booking must still leave its 4xx result replayable.
type IdempotencyStore struct{ db *sql.DB }

func NewIdempotencyStore(db *sql.DB) *IdempotencyStore { return &IdempotencyStore{db: db} }

func (s *IdempotencyStore) Lookup(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	var (
		rec        domain.IdempotencyRecord
		body       []byte
		propertyID sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, getIdempotencySQL, key).Scan(
		&rec.Key, &rec.Method, &rec.Path, &rec.RequestHash,
		&rec.ResponseStatus, &body, &propertyID, &rec.LastUsedAt, &rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(body) > 0 {
		rec.ResponseBody = append([]byte(nil), body...)
	}
	if propertyID.Valid {
		v := propertyID.Int64
		rec.PropertyID = &v
	}
	return &rec, nil
}

func (s *IdempotencyStore) Persist(ctx context.Context, rec domain.IdempotencyRecord) error {
	_, err := s.db.ExecContext(ctx, upsertIdempotencySQL,
		rec.Key, rec.Method, rec.Path, rec.RequestHash,
		rec.ResponseStatus, rec.ResponseBody, valInt64(rec.PropertyID),
	)
	return err
}
