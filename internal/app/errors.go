package app

import (
	"encoding/json"
	"errors"
	"net/http"

	"stayhub/internal/calendar"
	"stayhub/internal/domain"
)

// Problem is the error payload written for failed operations. Deterministic
// 4xx outcomes are persisted in the idempotency store in exactly this shape
// so a retried request replays the same bytes.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// StatusForError maps domain failures to HTTP-style statuses (taxonomy:
// validation 400, not found 404, conflicts 409, expired holds 410,
// everything else 500).
func StatusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrIdempotencyKeyRequired),
		errors.Is(err, domain.ErrInvalidStateTransition),
		errors.Is(err, calendar.ErrInvalidRange),
		errors.Is(err, calendar.ErrStayTooLong):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientInventory),
		errors.Is(err, domain.ErrIdempotencyConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrHoldExpired):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// ProblemFor builds the canonical payload for an error.
func ProblemFor(err error) Problem {
	status := StatusForError(err)
	return Problem{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: err.Error(),
	}
}

func problemBody(err error) []byte {
	b, _ := json.Marshal(ProblemFor(err))
	return b
}
