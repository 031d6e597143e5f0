package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/classroom-booking/internal/booking"
	"github.com/example/classroom-booking/internal/persistence"
)

// ClassroomService orchestrates validation, authorization, and persistence for the classroom catalog.
type ClassroomService struct {
	classrooms   persistence.ClassroomRepository
	availability *AvailabilityChecker
	idGenerator  func() string
	now          func() time.Time
	location     *time.Location
	logger       *slog.Logger
}

// NewClassroomService constructs a classroom service with the provided dependencies.
func NewClassroomService(classrooms persistence.ClassroomRepository, bookings persistence.BookingRepository, idGenerator func() string, now func() time.Time, location *time.Location) *ClassroomService {
	return NewClassroomServiceWithLogger(classrooms, bookings, idGenerator, now, location, nil)
}

// NewClassroomServiceWithLogger constructs a classroom service with a specified logger.
func NewClassroomServiceWithLogger(classrooms persistence.ClassroomRepository, bookings persistence.BookingRepository, idGenerator func() string, now func() time.Time, location *time.Location, logger *slog.Logger) *ClassroomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if location == nil {
		location = time.Local
	}
	return &ClassroomService{
		classrooms:   classrooms,
		availability: NewAvailabilityChecker(bookings),
		idGenerator:  idGenerator,
		now:          now,
		location:     location,
		logger:       defaultLogger(logger),
	}
}

func (s *ClassroomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ClassroomService", operation, attrs...)
}

// CreateClassroom validates input and adds a classroom to the catalog for administrators.
func (s *ClassroomService) CreateClassroom(ctx context.Context, params CreateClassroomParams) (classroom booking.Classroom, err error) {
	if s == nil {
		err = fmt.Errorf("ClassroomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateClassroom",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create classroom", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("classroom_id", classroom.ID).InfoContext(ctx, "classroom created")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrForbidden
		return
	}

	vErr := validateClassroomInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	classroom = booking.Classroom{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(params.Input.Name),
		Location:  strings.TrimSpace(params.Input.Location),
		Capacity:  params.Input.Capacity,
		Level:     params.Input.Level,
		Equipment: normalizeEquipment(params.Input.Equipment),
		CreatedAt: s.now(),
	}

	if s.classrooms == nil {
		return
	}
	if err = s.classrooms.CreateClassroom(ctx, classroom); err != nil {
		err = mapClassroomRepoError(err)
		return
	}
	return
}

// GetClassroom returns a live classroom with its current availability.
func (s *ClassroomService) GetClassroom(ctx context.Context, principal Principal, id string) (view ClassroomView, err error) {
	if s == nil || s.classrooms == nil {
		err = fmt.Errorf("classroom repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "GetClassroom", "principal_id", principal.UserID, "classroom_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to get classroom", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var classroom booking.Classroom
	classroom, err = s.classrooms.GetClassroom(ctx, strings.TrimSpace(id))
	if err != nil {
		err = mapClassroomRepoError(err)
		return
	}
	if classroom.Deleted() {
		err = ErrNotFound
		return
	}

	now := s.now().In(s.location)
	today := booking.DateOf(now)
	var approved []booking.Booking
	approved, err = s.availability.ApprovedOn(ctx, classroom.ID, today)
	if err != nil {
		return
	}
	view = ClassroomView{
		Classroom:    classroom,
		Availability: deriveAvailability(classroom.ID, approved, approved, today, booking.ClockTime(now), nil, today),
	}
	return
}

// ListClassrooms filters the catalog and derives each classroom's availability.
func (s *ClassroomService) ListClassrooms(ctx context.Context, params ListClassroomsParams) (views []ClassroomView, err error) {
	if s == nil || s.classrooms == nil {
		err = fmt.Errorf("classroom repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ListClassrooms",
		"principal_id", params.Principal.UserID,
		"only_available", params.OnlyAvailable,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list classrooms", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(views)).InfoContext(ctx, "classrooms listed")
	}()

	now := s.now().In(s.location)
	today := booking.DateOf(now)

	target, window, vErr := parseAvailabilityQuery(params, today)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var classrooms []booking.Classroom
	classrooms, err = s.classrooms.ListClassrooms(ctx, persistence.ClassroomFilter{
		Level:       params.Level,
		Location:    params.Location,
		MinCapacity: params.MinCapacity,
		Equipment:   params.Equipment,
	})
	if err != nil {
		return
	}

	var targetApproved, todayApproved []booking.Booking
	targetApproved, err = s.availability.ApprovedOn(ctx, "", target)
	if err != nil {
		return
	}
	todayApproved = targetApproved
	if target != today {
		todayApproved, err = s.availability.ApprovedOn(ctx, "", today)
		if err != nil {
			return
		}
	}

	views = make([]ClassroomView, 0, len(classrooms))
	for _, classroom := range classrooms {
		if params.OnlyAvailable && window != nil {
			candidate := booking.Slot{ClassroomID: classroom.ID, Date: target, Window: *window}
			if len(booking.DetectConflicts(booking.ApprovedSlots(targetApproved), candidate)) > 0 {
				continue
			}
		}
		views = append(views, ClassroomView{
			Classroom:    classroom,
			Availability: deriveAvailability(classroom.ID, targetApproved, todayApproved, target, booking.ClockTime(now), window, today),
		})
	}
	return
}

// ListLevels returns the distinct floor levels present in the catalog.
func (s *ClassroomService) ListLevels(ctx context.Context, principal Principal) (levels []int, err error) {
	if s == nil || s.classrooms == nil {
		err = fmt.Errorf("classroom repository not configured")
		return
	}
	levels, err = s.classrooms.ListLevels(ctx)
	if err != nil {
		s.loggerWith(ctx, "ListLevels", "principal_id", principal.UserID).
			ErrorContext(ctx, "failed to list levels", "error", err, "error_kind", ErrorKind(err))
	}
	return
}

// DeleteClassroom withdraws a classroom from the catalog when requested by an administrator.
// Existing bookings keep referring to it.
func (s *ClassroomService) DeleteClassroom(ctx context.Context, principal Principal, classroomID string) error {
	if s == nil {
		return fmt.Errorf("ClassroomService is nil")
	}
	if !principal.IsAdmin() {
		return ErrForbidden
	}
	if s.classrooms == nil {
		return fmt.Errorf("classroom repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteClassroom",
		"principal_id", principal.UserID,
		"classroom_id", classroomID,
	)

	if err := s.classrooms.DeleteClassroom(ctx, classroomID, s.now()); err != nil {
		err = mapClassroomRepoError(err)
		logger.ErrorContext(ctx, "failed to delete classroom", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "classroom deleted")
	return nil
}

func parseAvailabilityQuery(params ListClassroomsParams, today booking.Date) (booking.Date, *booking.Window, *ValidationError) {
	vErr := &ValidationError{}

	if params.MinCapacity != nil && *params.MinCapacity < 0 {
		vErr.add("capacity", "capacity must not be negative")
	}

	target := today
	if strings.TrimSpace(params.Date) != "" {
		d, err := booking.ParseDate(params.Date)
		if err != nil {
			vErr.add("date", "date must be YYYY-MM-DD")
		} else {
			target = d
		}
	}

	hasStart := strings.TrimSpace(params.StartTime) != ""
	hasEnd := strings.TrimSpace(params.EndTime) != ""
	if !hasStart && !hasEnd {
		return target, nil, vErr
	}

	window, wErr := parseWindowFields(params.StartTime, params.EndTime)
	if wErr.HasErrors() {
		vErr.merge(wErr)
		return target, nil, vErr
	}
	return target, &window, vErr
}

// deriveAvailability reports in_use when an approved booking today covers now, booked when an
// approved booking on target overlaps window (or, without a window, has not yet finished), and
// available otherwise.
func deriveAvailability(classroomID string, targetApproved, todayApproved []booking.Booking, target booking.Date, now booking.TimeOfDay, window *booking.Window, today booking.Date) booking.Availability {
	for _, b := range todayApproved {
		if b.ClassroomID == classroomID && b.Date == today && b.Window.Contains(now) {
			return booking.AvailabilityInUse
		}
	}
	for _, b := range targetApproved {
		if b.ClassroomID != classroomID || b.Date != target {
			continue
		}
		if window != nil {
			if b.Window.Overlaps(*window) {
				return booking.AvailabilityBooked
			}
			continue
		}
		if target != today || b.Window.End > now {
			return booking.AvailabilityBooked
		}
	}
	return booking.AvailabilityAvailable
}

func validateClassroomInput(input ClassroomInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if strings.TrimSpace(input.Location) == "" {
		vErr.add("location", "location is required")
	}
	if input.Capacity < 0 {
		vErr.add("capacity", "capacity must not be negative")
	}

	return vErr
}

func normalizeEquipment(items []string) []string {
	var out []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		duplicate := false
		for _, existing := range out {
			if strings.EqualFold(existing, item) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, item)
		}
	}
	return out
}

func mapClassroomRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		return newValidationError("capacity", "capacity must not be negative")
	}
	return err
}
