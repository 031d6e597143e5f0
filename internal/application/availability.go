package application

import (
	"context"
	"fmt"

	"github.com/example/classroom-booking/internal/booking"
	"github.com/example/classroom-booking/internal/persistence"
)

// AvailabilityChecker answers whether approved bookings already occupy a classroom window.
// Pending, rejected and cancelled bookings never block.
type AvailabilityChecker struct {
	bookings persistence.BookingRepository
}

// NewAvailabilityChecker constructs a checker over the booking repository.
func NewAvailabilityChecker(bookings persistence.BookingRepository) *AvailabilityChecker {
	return &AvailabilityChecker{bookings: bookings}
}

// HasConflict reports whether an approved booking for the classroom on date overlaps window.
func (a *AvailabilityChecker) HasConflict(ctx context.Context, classroomID string, date booking.Date, window booking.Window) (bool, error) {
	conflicts, err := a.Conflicts(ctx, booking.Slot{ClassroomID: classroomID, Date: date, Window: window})
	if err != nil {
		return false, err
	}
	return len(conflicts) > 0, nil
}

// Conflicts lists the approved bookings overlapping candidate, excluding candidate itself.
func (a *AvailabilityChecker) Conflicts(ctx context.Context, candidate booking.Slot) ([]booking.Conflict, error) {
	approved, err := a.ApprovedOn(ctx, candidate.ClassroomID, candidate.Date)
	if err != nil {
		return nil, err
	}
	return booking.DetectConflicts(booking.ApprovedSlots(approved), candidate), nil
}

// ApprovedOn returns the approved bookings on date. An empty classroomID matches every classroom.
func (a *AvailabilityChecker) ApprovedOn(ctx context.Context, classroomID string, date booking.Date) ([]booking.Booking, error) {
	if a == nil || a.bookings == nil {
		return nil, fmt.Errorf("booking repository not configured")
	}
	day := date
	return a.bookings.ListBookings(ctx, persistence.BookingFilter{
		ClassroomID: classroomID,
		Statuses:    []booking.Status{booking.StatusApproved},
		DateFrom:    &day,
		DateTo:      &day,
	}, persistence.OrderByCreated)
}

// QuotaEngine applies the per-role booking limits to a user's week.
type QuotaEngine struct {
	bookings persistence.BookingRepository
}

// NewQuotaEngine constructs a quota engine over the booking repository.
func NewQuotaEngine(bookings persistence.BookingRepository) *QuotaEngine {
	return &QuotaEngine{bookings: bookings}
}

// CheckQuota decides whether userID acting as role may request a booking on date.
func (q *QuotaEngine) CheckQuota(ctx context.Context, userID string, role booking.Role, date booking.Date) (booking.Decision, error) {
	if q == nil || q.bookings == nil {
		return booking.Decision{}, fmt.Errorf("booking repository not configured")
	}
	start, end := booking.Week(date)
	existing, err := q.bookings.ListBookings(ctx, persistence.BookingFilter{
		UserID:   userID,
		DateFrom: &start,
		DateTo:   &end,
	}, persistence.OrderByCreated)
	if err != nil {
		return booking.Decision{}, err
	}
	return booking.CheckQuota(role, date, existing), nil
}
