package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/classroom-booking/internal/booking"
	"github.com/example/classroom-booking/internal/persistence"
)

// NotificationService exposes a user's notifications.
type NotificationService struct {
	notifications persistence.NotificationRepository
	logger        *slog.Logger
}

// NewNotificationService constructs a notification service.
func NewNotificationService(notifications persistence.NotificationRepository, logger *slog.Logger) *NotificationService {
	return &NotificationService{notifications: notifications, logger: defaultLogger(logger)}
}

// ListNotifications returns the principal's notifications, newest first.
func (s *NotificationService) ListNotifications(ctx context.Context, principal Principal) ([]booking.Notification, error) {
	if s == nil || s.notifications == nil {
		return nil, fmt.Errorf("notification repository not configured")
	}
	items, err := s.notifications.ListNotifications(ctx, principal.UserID)
	if err != nil {
		serviceLogger(ctx, s.logger, "NotificationService", "ListNotifications", "principal_id", principal.UserID).
			ErrorContext(ctx, "failed to list notifications", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return items, nil
}

// DeleteNotification removes one of the principal's own notifications.
func (s *NotificationService) DeleteNotification(ctx context.Context, principal Principal, id string) (err error) {
	if s == nil || s.notifications == nil {
		return fmt.Errorf("notification repository not configured")
	}

	logger := serviceLogger(ctx, s.logger, "NotificationService", "DeleteNotification",
		"principal_id", principal.UserID,
		"notification_id", id,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete notification", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "notification deleted")
	}()

	var n booking.Notification
	n, err = s.notifications.GetNotification(ctx, id)
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}
	if n.UserID != principal.UserID {
		err = ErrForbidden
		return
	}
	if err = s.notifications.DeleteNotification(ctx, id); err != nil {
		err = mapBookingRepoError(err)
	}
	return
}
