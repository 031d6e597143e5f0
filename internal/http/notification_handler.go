package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/classroom-booking/internal/application"
	"github.com/example/classroom-booking/internal/booking"
)

type notificationService interface {
	ListNotifications(ctx context.Context, principal application.Principal) ([]booking.Notification, error)
	DeleteNotification(ctx context.Context, principal application.Principal, id string) error
}

type NotificationHandler struct {
	service   notificationService
	responder responder
	logger    *slog.Logger
}

func NewNotificationHandler(service notificationService, logger *slog.Logger) *NotificationHandler {
	base := defaultLogger(logger)
	return &NotificationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	items, err := h.service.ListNotifications(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]notificationDTO, 0, len(items))
	for _, n := range items {
		out = append(out, notificationDTO{
			ID:        n.ID,
			Message:   n.Message,
			Kind:      string(n.Kind),
			BookingID: n.BookingID,
			CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listNotificationsResponse{Notifications: out})
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	logger := handlerLogger(r.Context(), h.logger, "NotificationHandler", "Delete", "principal_id", principal.UserID, "notification_id", id)
	if err := h.service.DeleteNotification(r.Context(), principal, id); err != nil {
		logger.ErrorContext(r.Context(), "notification delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type listNotificationsResponse struct {
	Notifications []notificationDTO `json:"notifications"`
}

type notificationDTO struct {
	ID        string  `json:"id"`
	Message   string  `json:"message"`
	Kind      string  `json:"kind"`
	BookingID *string `json:"booking_id,omitempty"`
	CreatedAt string  `json:"created_at"`
}
