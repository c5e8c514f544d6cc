package domain

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrValidation             = errors.New("validation failed")
	ErrInsufficientInventory  = errors.New("insufficient inventory")
	ErrIdempotencyKeyRequired = errors.New("idempotency key required")
	ErrIdempotencyConflict    = errors.New("idempotency key conflict")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrHoldExpired            = errors.New("hold expired")
)
