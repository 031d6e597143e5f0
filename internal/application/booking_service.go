package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/classroom-booking/internal/booking"
	"github.com/example/classroom-booking/internal/lock"
	"github.com/example/classroom-booking/internal/persistence"
)

// BookingService runs the booking lifecycle: admission, decisions, cancellation, and refunds.
type BookingService struct {
	classrooms    persistence.ClassroomRepository
	bookings      persistence.BookingRepository
	notifications persistence.NotificationRepository
	availability  *AvailabilityChecker
	quota         *QuotaEngine
	locker        lock.Locker
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewBookingService constructs a booking service with the provided dependencies.
// A nil locker falls back to an in-process keyed mutex.
func NewBookingService(classrooms persistence.ClassroomRepository, bookings persistence.BookingRepository, notifications persistence.NotificationRepository, locker lock.Locker, idGenerator func() string, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(classrooms, bookings, notifications, locker, idGenerator, now, nil)
}

// NewBookingServiceWithLogger constructs a booking service with a specified logger.
func NewBookingServiceWithLogger(classrooms persistence.ClassroomRepository, bookings persistence.BookingRepository, notifications persistence.NotificationRepository, locker lock.Locker, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	return &BookingService{
		classrooms:    classrooms,
		bookings:      bookings,
		notifications: notifications,
		availability:  NewAvailabilityChecker(bookings),
		quota:         NewQuotaEngine(bookings),
		locker:        locker,
		idGenerator:   idGenerator,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

func (s *BookingService) ready() error {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}
	if s.classrooms == nil || s.bookings == nil {
		return fmt.Errorf("booking repositories not configured")
	}
	return nil
}

// CreateBooking admits a pending booking after the quota and availability checks pass.
func (s *BookingService) CreateBooking(ctx context.Context, params CreateBookingParams) (created booking.Booking, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "CreateBooking",
		"principal_id", params.Principal.UserID,
		"role", string(params.Principal.Role),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_id", created.ID).InfoContext(ctx, "booking created")
	}()

	date, window, vErr := validateBookingRequest(params)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var classroom booking.Classroom
	classroom, err = s.resolveClassroom(ctx, params.ClassroomRef)
	if err != nil {
		return
	}

	var unlock func()
	unlock, err = s.locker.Lock(ctx, userLockKey(params.Principal.UserID), classroomLockKey(classroom.ID, date))
	if err != nil {
		return
	}
	defer unlock()

	var decision booking.Decision
	decision, err = s.quota.CheckQuota(ctx, params.Principal.UserID, params.Principal.Role, date)
	if err != nil {
		return
	}
	if !decision.Allowed {
		err = &QuotaError{Reason: decision.Reason}
		return
	}

	var conflict bool
	conflict, err = s.availability.HasConflict(ctx, classroom.ID, date, window)
	if err != nil {
		return
	}
	if conflict {
		err = ErrConflict
		return
	}

	now := s.now()
	created = booking.Booking{
		ID:          s.idGenerator(),
		UserID:      params.Principal.UserID,
		ClassroomID: classroom.ID,
		Date:        date,
		Window:      window,
		Status:      booking.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err = s.bookings.CreateBooking(ctx, created); err != nil {
		err = mapBookingRepoError(err)
		return
	}
	return
}

// DecideBooking approves or rejects a pending booking on behalf of an administrator and
// notifies the owner.
func (s *BookingService) DecideBooking(ctx context.Context, params DecideBookingParams) (decided booking.Booking, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "DecideBooking",
		"principal_id", params.Principal.UserID,
		"booking_id", params.BookingID,
		"action", params.Action,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to decide booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", string(decided.Status)).InfoContext(ctx, "booking decided")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrForbidden
		return
	}

	action, parseErr := booking.ParseDecision(params.Action)
	if parseErr != nil {
		err = newValidationError("action", "action must be approve or reject")
		return
	}
	reason := strings.TrimSpace(params.Reason)
	if action == booking.ActionReject && reason == "" {
		err = newValidationError("reason", "rejection reason is required")
		return
	}

	var unlock func()
	unlock, err = s.locker.Lock(ctx, bookingLockKey(params.BookingID))
	if err != nil {
		return
	}
	defer unlock()

	decided, err = s.bookings.GetBooking(ctx, params.BookingID)
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}

	var next booking.Status
	next, err = booking.Transition(decided.Status, action)
	if err != nil {
		err = fmt.Errorf("%w: booking already processed", ErrInvalidTransition)
		return
	}

	if action == booking.ActionApprove {
		var unlockDay func()
		unlockDay, err = s.locker.Lock(ctx, classroomLockKey(decided.ClassroomID, decided.Date))
		if err != nil {
			return
		}
		defer unlockDay()

		var conflicts []booking.Conflict
		conflicts, err = s.availability.Conflicts(ctx, decided.Slot())
		if err != nil {
			return
		}
		if len(conflicts) > 0 {
			err = ErrConflict
			return
		}
	}

	decided.Status = next
	decided.UpdatedAt = s.now()
	if action == booking.ActionReject {
		decided.RejectionReason = &reason
	}
	if err = s.bookings.UpdateBooking(ctx, decided); err != nil {
		err = mapBookingRepoError(err)
		return
	}

	name := s.classroomName(ctx, decided.ClassroomID)
	var message string
	kind := booking.NotificationApproved
	if action == booking.ActionApprove {
		message = booking.ApprovalMessage(name, decided.Date, decided.Window)
	} else {
		kind = booking.NotificationRejected
		message = booking.RejectionMessage(name, decided.Date, decided.Window, reason)
	}
	s.notify(ctx, logger, decided, kind, message)
	return
}

// CancelBooking lets the owner cancel an approved booking. Quota is not restored until an
// administrator refunds it.
func (s *BookingService) CancelBooking(ctx context.Context, principal Principal, bookingID string) (cancelled booking.Booking, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "CancelBooking",
		"principal_id", principal.UserID,
		"booking_id", bookingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking cancelled")
	}()

	var unlock func()
	unlock, err = s.locker.Lock(ctx, bookingLockKey(bookingID))
	if err != nil {
		return
	}
	defer unlock()

	cancelled, err = s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}
	if cancelled.UserID != principal.UserID {
		err = ErrForbidden
		return
	}

	var next booking.Status
	next, err = booking.Transition(cancelled.Status, booking.ActionCancel)
	if err != nil {
		err = fmt.Errorf("%w: only approved bookings can be cancelled", ErrInvalidTransition)
		return
	}

	cancelled.Status = next
	cancelled.UpdatedAt = s.now()
	if err = s.bookings.UpdateBooking(ctx, cancelled); err != nil {
		err = mapBookingRepoError(err)
		return
	}

	name := s.classroomName(ctx, cancelled.ClassroomID)
	s.notify(ctx, logger, cancelled, booking.NotificationCancelled,
		booking.CancellationMessage(name, cancelled.Date, cancelled.Window))
	return
}

// RefundBooking releases a booking's quota consumption. The status is left unchanged.
func (s *BookingService) RefundBooking(ctx context.Context, principal Principal, bookingID string) (refunded booking.Booking, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "RefundBooking",
		"principal_id", principal.UserID,
		"booking_id", bookingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to refund booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking refunded")
	}()

	if !principal.IsAdmin() {
		err = ErrForbidden
		return
	}

	var unlock func()
	unlock, err = s.locker.Lock(ctx, bookingLockKey(bookingID))
	if err != nil {
		return
	}
	defer unlock()

	refunded, err = s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}
	if refunded.Refunded {
		err = ErrAlreadyRefunded
		return
	}

	refunded.Refunded = true
	refunded.UpdatedAt = s.now()
	if err = s.bookings.UpdateBooking(ctx, refunded); err != nil {
		err = mapBookingRepoError(err)
		return
	}
	return
}

// GetBooking returns a booking visible to the principal: its owner or any administrator.
func (s *BookingService) GetBooking(ctx context.Context, principal Principal, bookingID string) (BookingDetails, error) {
	if err := s.ready(); err != nil {
		return BookingDetails{}, err
	}
	b, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return BookingDetails{}, mapBookingRepoError(err)
	}
	if b.UserID != principal.UserID && !principal.IsAdmin() {
		return BookingDetails{}, ErrForbidden
	}
	return s.withDetails(ctx, []booking.Booking{b})[0], nil
}

// ListMyBookings returns the principal's bookings, latest date first.
func (s *BookingService) ListMyBookings(ctx context.Context, principal Principal) (details []BookingDetails, err error) {
	if err = s.ready(); err != nil {
		return
	}

	var items []booking.Booking
	items, err = s.bookings.ListBookings(ctx, persistence.BookingFilter{UserID: principal.UserID}, persistence.OrderByDateDesc)
	if err != nil {
		s.loggerWith(ctx, "ListMyBookings", "principal_id", principal.UserID).
			ErrorContext(ctx, "failed to list bookings", "error", err, "error_kind", ErrorKind(err))
		return
	}
	details = s.withDetails(ctx, items)
	return
}

// ListPendingBookings returns the administrator review queue, oldest request first.
func (s *BookingService) ListPendingBookings(ctx context.Context, principal Principal) ([]BookingDetails, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if !principal.IsAdmin() {
		return nil, ErrForbidden
	}

	items, err := s.bookings.ListBookings(ctx, persistence.BookingFilter{
		Statuses: []booking.Status{booking.StatusPending},
	}, persistence.OrderByCreated)
	if err != nil {
		s.loggerWith(ctx, "ListPendingBookings", "principal_id", principal.UserID).
			ErrorContext(ctx, "failed to list pending bookings", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return s.withDetails(ctx, items), nil
}

// ListBookings returns every booking matching the administrator filters, latest date first.
func (s *BookingService) ListBookings(ctx context.Context, params ListBookingsParams) (details []BookingDetails, err error) {
	if err = s.ready(); err != nil {
		return
	}
	if !params.Principal.IsAdmin() {
		err = ErrForbidden
		return
	}

	logger := s.loggerWith(ctx, "ListBookings", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list bookings", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	filter, vErr := bookingFilterFromParams(params)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var items []booking.Booking
	items, err = s.bookings.ListBookings(ctx, filter, persistence.OrderByDateDesc)
	if err != nil {
		return
	}
	details = s.withDetails(ctx, items)
	return
}

// resolveClassroom turns a classroom ID or exact name into a live classroom.
func (s *BookingService) resolveClassroom(ctx context.Context, ref string) (booking.Classroom, error) {
	ref = strings.TrimSpace(ref)

	classroom, err := s.classrooms.GetClassroom(ctx, ref)
	if err == nil && !classroom.Deleted() {
		return classroom, nil
	}
	if err != nil && !errors.Is(err, persistence.ErrNotFound) {
		return booking.Classroom{}, err
	}

	classroom, err = s.classrooms.FindClassroomByName(ctx, ref)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return booking.Classroom{}, fmt.Errorf("%w: classroom %q", ErrNotFound, ref)
		}
		return booking.Classroom{}, err
	}
	return classroom, nil
}

func (s *BookingService) classroomName(ctx context.Context, classroomID string) string {
	classroom, err := s.classrooms.GetClassroom(ctx, classroomID)
	if err != nil {
		return classroomID
	}
	return classroom.Name
}

func (s *BookingService) withDetails(ctx context.Context, items []booking.Booking) []BookingDetails {
	cache := make(map[string]booking.Classroom)
	details := make([]BookingDetails, 0, len(items))
	for _, b := range items {
		classroom, ok := cache[b.ClassroomID]
		if !ok {
			var err error
			classroom, err = s.classrooms.GetClassroom(ctx, b.ClassroomID)
			if err != nil {
				classroom = booking.Classroom{ID: b.ClassroomID, Name: b.ClassroomID}
			}
			cache[b.ClassroomID] = classroom
		}
		details = append(details, BookingDetails{
			Booking:           b,
			ClassroomName:     classroom.Name,
			ClassroomLocation: classroom.Location,
		})
	}
	return details
}

// notify records a lifecycle notification for the booking owner. Failures are logged and do
// not undo the transition that has already been stored.
func (s *BookingService) notify(ctx context.Context, logger *slog.Logger, b booking.Booking, kind booking.NotificationKind, message string) {
	if s.notifications == nil {
		return
	}
	bookingID := b.ID
	n := booking.Notification{
		ID:        s.idGenerator(),
		UserID:    b.UserID,
		Message:   message,
		Kind:      kind,
		BookingID: &bookingID,
		CreatedAt: s.now(),
	}
	if err := s.notifications.CreateNotification(ctx, n); err != nil {
		logger.ErrorContext(ctx, "failed to record notification", "error", err, "kind", string(kind))
	}
}

func validateBookingRequest(params CreateBookingParams) (booking.Date, booking.Window, *ValidationError) {
	vErr := &ValidationError{}

	if strings.TrimSpace(params.ClassroomRef) == "" {
		vErr.add("classroom", "classroom is required")
	}

	date, err := booking.ParseDate(params.Date)
	if err != nil {
		vErr.add("date", "date must be YYYY-MM-DD")
	}

	window, wErr := parseWindowFields(params.StartTime, params.EndTime)
	vErr.merge(wErr)

	return date, window, vErr
}

func parseWindowFields(startValue, endValue string) (booking.Window, *ValidationError) {
	vErr := &ValidationError{}

	start, err := booking.ParseTimeOfDay(startValue)
	if err != nil {
		vErr.add("start_time", "start time must be HH:MM")
	}
	end, err := booking.ParseTimeOfDay(endValue)
	if err != nil {
		vErr.add("end_time", "end time must be HH:MM")
	}
	if vErr.HasErrors() {
		return booking.Window{}, vErr
	}

	window, err := booking.NewWindow(start, end)
	if err != nil {
		vErr.add("end_time", "end time must be after start time")
		return booking.Window{}, vErr
	}
	return window, vErr
}

func bookingFilterFromParams(params ListBookingsParams) (persistence.BookingFilter, *ValidationError) {
	vErr := &ValidationError{}
	filter := persistence.BookingFilter{ClassroomID: strings.TrimSpace(params.ClassroomID)}

	if strings.TrimSpace(params.Status) != "" {
		status, err := booking.ParseStatus(params.Status)
		if err != nil {
			vErr.add("status", "status must be pending, approved, rejected or cancelled")
		} else {
			filter.Statuses = []booking.Status{status}
		}
	}
	if strings.TrimSpace(params.DateFrom) != "" {
		d, err := booking.ParseDate(params.DateFrom)
		if err != nil {
			vErr.add("from", "from must be YYYY-MM-DD")
		} else {
			filter.DateFrom = &d
		}
	}
	if strings.TrimSpace(params.DateTo) != "" {
		d, err := booking.ParseDate(params.DateTo)
		if err != nil {
			vErr.add("to", "to must be YYYY-MM-DD")
		} else {
			filter.DateTo = &d
		}
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateTo.Before(*filter.DateFrom) {
		vErr.add("to", "to must not be before from")
	}

	return filter, vErr
}

func userLockKey(userID string) string {
	return "user:" + userID
}

func classroomLockKey(classroomID string, date booking.Date) string {
	return "classroom:" + classroomID + ":" + date.String()
}

func bookingLockKey(bookingID string) string {
	return "booking:" + bookingID
}

func mapBookingRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		return fmt.Errorf("%w: classroom", ErrNotFound)
	}
	return err
}
