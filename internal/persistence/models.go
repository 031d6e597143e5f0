package persistence

import "github.com/example/classroom-booking/internal/booking"

// ClassroomFilter narrows classroom queries. Zero values match everything.
type ClassroomFilter struct {
	Level          *int
	Location       string
	MinCapacity    *int
	Equipment      []string
	IncludeDeleted bool
}

// BookingFilter narrows booking queries. Zero values match everything.
type BookingFilter struct {
	UserID      string
	ClassroomID string
	Statuses    []booking.Status
	DateFrom    *booking.Date
	DateTo      *booking.Date
}

// BookingOrder selects the ordering of booking listings.
type BookingOrder int

const (
	// OrderByCreated sorts oldest first.
	OrderByCreated BookingOrder = iota
	// OrderByDateDesc sorts the latest booked day first, then the latest start.
	OrderByDateDesc
)
