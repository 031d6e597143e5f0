package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/classroom-booking/internal/application"
	"github.com/example/classroom-booking/internal/booking"
	"github.com/example/classroom-booking/internal/export"
)

type bookingService interface {
	CreateBooking(ctx context.Context, params application.CreateBookingParams) (booking.Booking, error)
	DecideBooking(ctx context.Context, params application.DecideBookingParams) (booking.Booking, error)
	CancelBooking(ctx context.Context, principal application.Principal, bookingID string) (booking.Booking, error)
	RefundBooking(ctx context.Context, principal application.Principal, bookingID string) (booking.Booking, error)
	ListMyBookings(ctx context.Context, principal application.Principal) ([]application.BookingDetails, error)
	ListPendingBookings(ctx context.Context, principal application.Principal) ([]application.BookingDetails, error)
	ListBookings(ctx context.Context, params application.ListBookingsParams) ([]application.BookingDetails, error)
}

type BookingHandler struct {
	service   bookingService
	validator *requestValidator
	responder responder
	location  *time.Location
	now       func() time.Time
	logger    *slog.Logger
}

// NewBookingHandler builds the booking endpoints. location is used to render calendar
// exports; now stamps them.
func NewBookingHandler(service bookingService, location *time.Location, now func() time.Time, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	if location == nil {
		location = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &BookingHandler{
		service:   service,
		validator: newRequestValidator(),
		responder: newResponder(base),
		location:  location,
		now:       now,
		logger:    base,
	}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if fieldErrs := h.validator.Validate(req); fieldErrs != nil {
		h.responder.handleServiceError(r.Context(), w, &application.ValidationError{FieldErrors: fieldErrs})
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	created, err := h.service.CreateBooking(r.Context(), application.CreateBookingParams{
		Principal:    principal,
		ClassroomRef: req.Classroom,
		Date:         req.Date,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "booking creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("booking_id", created.ID).InfoContext(r.Context(), "booking created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookingResponse{
		Message: "Booking created (pending approval)",
		Booking: toBookingDTO(application.BookingDetails{Booking: created}),
	})
}

func (h *BookingHandler) Decide(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	principal, _ := PrincipalFromContext(r.Context())

	var req decideBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Decide", "principal_id", principal.UserID, "booking_id", id, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode decision", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if fieldErrs := h.validator.Validate(req); fieldErrs != nil {
		h.responder.handleServiceError(r.Context(), w, &application.ValidationError{FieldErrors: fieldErrs})
		return
	}

	logger := h.log(r.Context(), "Decide", "principal_id", principal.UserID, "booking_id", id)

	decided, err := h.service.DecideBooking(r.Context(), application.DecideBookingParams{
		Principal: principal,
		BookingID: id,
		Action:    req.Action,
		Reason:    req.Reason,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "booking decision failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("status", string(decided.Status)).InfoContext(r.Context(), "booking decided")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{
		Message: "Booking " + string(decided.Status),
		Booking: toBookingDTO(application.BookingDetails{Booking: decided}),
	})
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Cancel", "Booking cancelled.", func(ctx context.Context, principal application.Principal, id string) (booking.Booking, error) {
		return h.service.CancelBooking(ctx, principal, id)
	})
}

func (h *BookingHandler) Refund(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Refund", "Booking refunded successfully.", func(ctx context.Context, principal application.Principal, id string) (booking.Booking, error) {
		return h.service.RefundBooking(ctx, principal, id)
	})
}

func (h *BookingHandler) transition(w http.ResponseWriter, r *http.Request, operation, message string, apply func(context.Context, application.Principal, string) (booking.Booking, error)) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), operation, "principal_id", principal.UserID, "booking_id", id)

	updated, err := apply(r.Context(), principal, id)
	if err != nil {
		logger.ErrorContext(r.Context(), "booking update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{
		Message: message,
		Booking: toBookingDTO(application.BookingDetails{Booking: updated}),
	})
}

func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "ListMine", func(ctx context.Context, principal application.Principal) ([]application.BookingDetails, error) {
		return h.service.ListMyBookings(ctx, principal)
	})
}

func (h *BookingHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "ListPending", func(ctx context.Context, principal application.Principal) ([]application.BookingDetails, error) {
		return h.service.ListPendingBookings(ctx, principal)
	})
}

func (h *BookingHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "ListAll", func(ctx context.Context, principal application.Principal) ([]application.BookingDetails, error) {
		return h.service.ListBookings(ctx, adminListParams(r, principal))
	})
}

func (h *BookingHandler) list(w http.ResponseWriter, r *http.Request, operation string, load func(context.Context, application.Principal) ([]application.BookingDetails, error)) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), operation, "principal_id", principal.UserID)

	items, err := load(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "booking list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(items)).InfoContext(r.Context(), "bookings listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Bookings: toBookingDTOs(items)})
}

// Calendar serves the caller's approved bookings as an iCalendar feed.
func (h *BookingHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	items, err := h.service.ListMyBookings(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeFile(r.Context(), w, "text/calendar; charset=utf-8", "bookings.ics", func(out io.Writer) error {
		return export.Calendar(out, items, h.location, h.now())
	})
}

// Report serves the filtered administrator listing as a spreadsheet.
func (h *BookingHandler) Report(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	items, err := h.service.ListBookings(r.Context(), adminListParams(r, principal))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeFile(r.Context(), w,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "bookings.xlsx",
		func(out io.Writer) error { return export.Report(out, items) })
}

func adminListParams(r *http.Request, principal application.Principal) application.ListBookingsParams {
	q := r.URL.Query()
	return application.ListBookingsParams{
		Principal:   principal,
		Status:      q.Get("status"),
		ClassroomID: q.Get("classroom"),
		DateFrom:    q.Get("from"),
		DateTo:      q.Get("to"),
	}
}

type createBookingRequest struct {
	Classroom string `json:"classroom" validate:"required"`
	Date      string `json:"date" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

type decideBookingRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
	Reason string `json:"reason"`
}

type bookingResponse struct {
	Message string     `json:"message,omitempty"`
	Booking bookingDTO `json:"booking"`
}

type listBookingsResponse struct {
	Bookings []bookingDTO `json:"bookings"`
}

type bookingDTO struct {
	ID                string  `json:"id"`
	UserID            string  `json:"user_id"`
	ClassroomID       string  `json:"classroom_id"`
	ClassroomName     string  `json:"classroom_name,omitempty"`
	ClassroomLocation string  `json:"classroom_location,omitempty"`
	Date              string  `json:"date"`
	StartTime         string  `json:"start_time"`
	EndTime           string  `json:"end_time"`
	Status            string  `json:"status"`
	RejectionReason   *string `json:"rejection_reason,omitempty"`
	Refunded          bool    `json:"refunded"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

func toBookingDTO(item application.BookingDetails) bookingDTO {
	return bookingDTO{
		ID:                item.ID,
		UserID:            item.UserID,
		ClassroomID:       item.ClassroomID,
		ClassroomName:     item.ClassroomName,
		ClassroomLocation: item.ClassroomLocation,
		Date:              item.Date.String(),
		StartTime:         item.Window.Start.String(),
		EndTime:           item.Window.End.String(),
		Status:            string(item.Status),
		RejectionReason:   item.RejectionReason,
		Refunded:          item.Refunded,
		CreatedAt:         item.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:         item.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toBookingDTOs(items []application.BookingDetails) []bookingDTO {
	out := make([]bookingDTO, 0, len(items))
	for _, item := range items {
		out = append(out, toBookingDTO(item))
	}
	return out
}
