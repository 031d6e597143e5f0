package application

import "github.com/example/classroom-booking/internal/booking"

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Role   booking.Role
}

// IsAdmin reports whether the principal may perform administrator operations.
func (p Principal) IsAdmin() bool {
	return p.Role == booking.RoleAdmin
}

// ClassroomInput captures caller provided classroom fields.
type ClassroomInput struct {
	Name      string
	Location  string
	Capacity  int
	Level     int
	Equipment []string
}

// CreateClassroomParams wraps the data required to create a classroom.
type CreateClassroomParams struct {
	Principal Principal
	Input     ClassroomInput
}

// ListClassroomsParams filters the classroom catalog. Empty values match everything.
// OnlyAvailable applies only when StartTime and EndTime are given. Date defaults to today.
type ListClassroomsParams struct {
	Principal     Principal
	Level         *int
	Location      string
	MinCapacity   *int
	Equipment     []string
	Date          string
	StartTime     string
	EndTime       string
	OnlyAvailable bool
}

// ClassroomView is a classroom with its occupancy derived at read time.
type ClassroomView struct {
	booking.Classroom
	Availability booking.Availability
}

// CreateBookingParams wraps the data required to request a booking.
// ClassroomRef is a classroom ID or, failing that, an exact classroom name.
type CreateBookingParams struct {
	Principal    Principal
	ClassroomRef string
	Date         string
	StartTime    string
	EndTime      string
}

// DecideBookingParams wraps an administrator decision on a pending booking.
type DecideBookingParams struct {
	Principal Principal
	BookingID string
	Action    string
	Reason    string
}

// ListBookingsParams filters the administrator booking listing.
type ListBookingsParams struct {
	Principal   Principal
	Status      string
	ClassroomID string
	DateFrom    string
	DateTo      string
}

// BookingDetails is a booking joined with the classroom it reserves.
type BookingDetails struct {
	booking.Booking
	ClassroomName     string
	ClassroomLocation string
}
