package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"stayhub/internal/app"
	"stayhub/internal/domain"
)

const maxBodyBytes = 64 << 10

// BookingAPI is the slice of the booking service the handlers need; tests
// substitute a fake.
type BookingAPI interface {
	CreateHold(ctx context.Context, in app.CreateHoldInput) (app.Result, error)
	ConfirmHold(ctx context.Context, in app.ConfirmHoldInput) (app.Result, error)
	CancelBooking(ctx context.Context, bookingID string, reason *string) (app.Result, error)
	GetBooking(ctx context.Context, bookingID string) (app.BookingResponse, error)
	ResyncRoomType(ctx context.Context, roomTypeID int64) (int, error)
}

type AvailabilityAPI interface {
	GetAvailability(ctx context.Context, q app.AvailabilityQuery) (app.AvailabilityPage, error)
}

type Handlers struct {
	B BookingAPI
	A AvailabilityAPI
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Post("/v1/bookings/hold", h.createHold)
	s.mux.Post("/v1/bookings/confirm", h.confirmHold)
	s.mux.Post("/v1/bookings/{id}/cancel", h.cancelBooking)
	s.mux.Get("/v1/bookings/{id}", h.getBooking)
	s.mux.Get("/v1/availability", h.getAvailability)
	s.mux.Post("/v1/admin/room-types/{id}/resync", h.resyncRoomType)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	p := app.Problem{Type: "about:blank", Title: title, Status: status, Detail: detail}
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeProblemErr(w http.ResponseWriter, err error) {
	p := app.ProblemFor(err)
	if p.Status >= 500 {
		log.Error().Err(err).Msg("request failed")
		p.Detail = "internal error"
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	if werr := json.NewEncoder(w).Encode(p); werr != nil {
		log.Error().Err(werr).Msg("write JSON problem response failed")
	}
}

// writeResult emits a service result; replayed bodies go out byte for byte.
func writeResult(w http.ResponseWriter, res app.Result) {
	ct := "application/json"
	if res.Status >= 400 {
		ct = "application/problem+json"
	}
	w.Header().Set("Content-Type", ct)
	if res.Replayed {
		w.Header().Set("Idempotency-Replayed", "true")
	}
	w.WriteHeader(res.Status)
	if _, err := w.Write(res.Body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON body")
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "unreadable request body")
		return nil, false
	}
	return body, true
}

const dateLayout = "2006-01-02"

type createHoldRequest struct {
	PropertyID      int64   `json:"property_id"`
	RoomTypeID      int64   `json:"room_type_id"`
	RatePlanID      *int64  `json:"rate_plan_id,omitempty"`
	GuestName       string  `json:"guest_name"`
	Email           string  `json:"email"`
	Phone           *string `json:"phone,omitempty"`
	CheckIn         string  `json:"check_in"`
	CheckOut        string  `json:"check_out"`
	Guests          int     `json:"guests"`
	Rooms           int     `json:"rooms"`
	SpecialRequests *string `json:"special_requests,omitempty"`
	Source          string  `json:"source,omitempty"`
}

func (h *Handlers) createHold(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("Idempotency-Key")
	if key == "" {
		writeProblemErr(w, domain.ErrIdempotencyKeyRequired)
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	var req createHoldRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	checkIn, err := time.Parse(dateLayout, req.CheckIn)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "check_in must be YYYY-MM-DD")
		return
	}
	checkOut, err := time.Parse(dateLayout, req.CheckOut)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "check_out must be YYYY-MM-DD")
		return
	}

	res, err := h.B.CreateHold(r.Context(), app.CreateHoldInput{
		IdempotencyKey:  key,
		RequestHash:     app.HashRequest(r.Method, r.URL.Path, body),
		Method:          r.Method,
		Path:            r.URL.Path,
		PropertyID:      req.PropertyID,
		RoomTypeID:      req.RoomTypeID,
		RatePlanID:      req.RatePlanID,
		GuestName:       req.GuestName,
		Email:           req.Email,
		Phone:           req.Phone,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Guests:          req.Guests,
		Rooms:           req.Rooms,
		SpecialRequests: req.SpecialRequests,
		Source:          req.Source,
	})
	if err != nil {
		writeProblemErr(w, err)
		return
	}
	writeResult(w, res)
}

type confirmHoldRequest struct {
	BookingID    string  `json:"booking_id,omitempty"`
	HoldToken    string  `json:"hold_token,omitempty"`
	PaymentRef   *string `json:"payment_ref,omitempty"`
	PaymentCents *int64  `json:"payment_cents,omitempty"`
}

func (h *Handlers) confirmHold(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("Idempotency-Key")
	if key == "" {
		writeProblemErr(w, domain.ErrIdempotencyKeyRequired)
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	var req confirmHoldRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}

	res, err := h.B.ConfirmHold(r.Context(), app.ConfirmHoldInput{
		IdempotencyKey: key,
		RequestHash:    app.HashRequest(r.Method, r.URL.Path, body),
		Method:         r.Method,
		Path:           r.URL.Path,
		BookingID:      req.BookingID,
		HoldToken:      req.HoldToken,
		PaymentRef:     req.PaymentRef,
		PaymentCents:   req.PaymentCents,
	})
	if err != nil {
		writeProblemErr(w, err)
		return
	}
	writeResult(w, res)
}

type cancelBookingRequest struct {
	Reason *string `json:"reason,omitempty"`
}

func (h *Handlers) cancelBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req cancelBookingRequest
	if body, ok := readBody(w, r); !ok {
		return
	} else if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
			return
		}
	}

	res, err := h.B.CancelBooking(r.Context(), id, req.Reason)
	if err != nil {
		writeProblemErr(w, err)
		return
	}
	writeResult(w, res)
}

func (h *Handlers) getBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.B.GetBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeProblemErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handlers) getAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	propertyID, err := strconv.ParseInt(q.Get("property_id"), 10, 64)
	if err != nil || propertyID <= 0 {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "property_id must be a positive integer")
		return
	}
	var roomTypeID int64
	if v := q.Get("room_type_id"); v != "" {
		roomTypeID, err = strconv.ParseInt(v, 10, 64)
		if err != nil || roomTypeID <= 0 {
			writeProblem(w, http.StatusBadRequest, "Bad Request", "room_type_id must be a positive integer")
			return
		}
	}
	start, err := time.Parse(dateLayout, q.Get("start"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "start must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse(dateLayout, q.Get("end"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "end must be YYYY-MM-DD")
		return
	}

	page, err := h.A.GetAvailability(r.Context(), app.AvailabilityQuery{
		PropertyID: propertyID,
		RoomTypeID: roomTypeID,
		StartDate:  start,
		EndDate:    end,
	})
	if err != nil {
		writeProblemErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handlers) resyncRoomType(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "id must be a positive integer")
		return
	}
	n, err := h.B.ResyncRoomType(r.Context(), id)
	if err != nil {
		writeProblemErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"room_type_id": id, "rows_updated": n})
}
