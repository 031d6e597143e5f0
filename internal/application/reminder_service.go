package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/classroom-booking/internal/booking"
	"github.com/example/classroom-booking/internal/persistence"
)

// ReminderService emits a single reminder for each approved booking that starts soon.
type ReminderService struct {
	classrooms    persistence.ClassroomRepository
	bookings      persistence.BookingRepository
	notifications persistence.NotificationRepository
	idGenerator   func() string
	now           func() time.Time
	location      *time.Location
	lookahead     time.Duration
	logger        *slog.Logger
}

// ReminderOptions tunes reminder evaluation. Zero values use the defaults.
type ReminderOptions struct {
	Location  *time.Location
	Lookahead time.Duration
	Logger    *slog.Logger
}

// NewReminderService constructs a reminder service.
func NewReminderService(classrooms persistence.ClassroomRepository, bookings persistence.BookingRepository, notifications persistence.NotificationRepository, idGenerator func() string, now func() time.Time, opts ReminderOptions) *ReminderService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Lookahead <= 0 {
		opts.Lookahead = booking.ReminderLookahead
	}
	return &ReminderService{
		classrooms:    classrooms,
		bookings:      bookings,
		notifications: notifications,
		idGenerator:   idGenerator,
		now:           now,
		location:      opts.Location,
		lookahead:     opts.Lookahead,
		logger:        defaultLogger(opts.Logger),
	}
}

// RunTick creates the reminders due at the current time and returns them. A booking that has
// already been reminded is skipped. Errors for individual bookings do not stop the tick; they
// are joined and returned alongside the reminders that were created.
func (s *ReminderService) RunTick(ctx context.Context) ([]booking.Notification, error) {
	if s == nil || s.bookings == nil || s.notifications == nil {
		return nil, fmt.Errorf("reminder repositories not configured")
	}

	now := s.now().In(s.location)
	today := booking.DateOf(now)
	logger := serviceLogger(ctx, s.logger, "ReminderService", "RunTick", "date", today.String())

	approved, err := s.bookings.ListBookings(ctx, persistence.BookingFilter{
		Statuses: []booking.Status{booking.StatusApproved},
		DateFrom: &today,
		DateTo:   &today,
	}, persistence.OrderByCreated)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load approved bookings", "error", err)
		return nil, err
	}

	var (
		created []booking.Notification
		errs    []error
	)
	for _, b := range approved {
		until := b.Date.At(b.Window.Start, s.location).Sub(now)
		if until <= 0 || until > s.lookahead {
			continue
		}

		name := b.ClassroomID
		if s.classrooms != nil {
			if classroom, err := s.classrooms.GetClassroom(ctx, b.ClassroomID); err == nil {
				name = classroom.Name
			}
		}

		bookingID := b.ID
		dedupKey := booking.ReminderDedupKey(b.ID)
		n := booking.Notification{
			ID:        s.idGenerator(),
			UserID:    b.UserID,
			Message:   booking.ReminderMessage(name, b.Window.Start),
			Kind:      booking.NotificationReminder,
			BookingID: &bookingID,
			DedupKey:  &dedupKey,
			CreatedAt: now,
		}
		if err := s.notifications.CreateNotification(ctx, n); err != nil {
			if errors.Is(err, persistence.ErrDuplicate) {
				continue
			}
			logger.ErrorContext(ctx, "failed to record reminder", "booking_id", b.ID, "error", err)
			errs = append(errs, fmt.Errorf("reminder for booking %s: %w", b.ID, err))
			continue
		}
		created = append(created, n)
	}

	if len(created) > 0 {
		logger.InfoContext(ctx, "reminders sent", "count", len(created))
	}
	return created, errors.Join(errs...)
}
