package persistence

import (
	"slices"
	"sort"
	"strings"

	"github.com/example/classroom-booking/internal/booking"
)

// Matches reports whether the classroom satisfies the filter.
func (f ClassroomFilter) Matches(c booking.Classroom) bool {
	if c.Deleted() && !f.IncludeDeleted {
		return false
	}
	if f.Level != nil && c.Level != *f.Level {
		return false
	}
	if loc := strings.TrimSpace(f.Location); loc != "" && !strings.Contains(strings.ToLower(c.Location), strings.ToLower(loc)) {
		return false
	}
	if f.MinCapacity != nil && c.Capacity < *f.MinCapacity {
		return false
	}
	return c.HasEquipment(f.Equipment)
}

// Matches reports whether the booking satisfies the filter.
func (f BookingFilter) Matches(b booking.Booking) bool {
	if f.UserID != "" && b.UserID != f.UserID {
		return false
	}
	if f.ClassroomID != "" && b.ClassroomID != f.ClassroomID {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, b.Status) {
		return false
	}
	if f.DateFrom != nil && b.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && b.Date.After(*f.DateTo) {
		return false
	}
	return true
}

// SortBookings orders bookings in place.
func SortBookings(bookings []booking.Booking, order BookingOrder) {
	sort.SliceStable(bookings, func(i, j int) bool {
		a, b := bookings[i], bookings[j]
		if order == OrderByDateDesc {
			if c := a.Date.Compare(b.Date); c != 0 {
				return c > 0
			}
			if a.Window.Start != b.Window.Start {
				return a.Window.Start > b.Window.Start
			}
			return a.ID < b.ID
		}
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

// SortClassrooms orders classrooms by name, case insensitive, then ID.
func SortClassrooms(classrooms []booking.Classroom) {
	sort.SliceStable(classrooms, func(i, j int) bool {
		a, b := strings.ToLower(classrooms[i].Name), strings.ToLower(classrooms[j].Name)
		if a == b {
			return classrooms[i].ID < classrooms[j].ID
		}
		return a < b
	})
}
