package persistence

import (
	"context"
	"time"

	"github.com/example/classroom-booking/internal/booking"
)

// ClassroomRepository stores the classroom catalog.
type ClassroomRepository interface {
	CreateClassroom(ctx context.Context, classroom booking.Classroom) error
	// GetClassroom returns the classroom even when it has been soft deleted.
	GetClassroom(ctx context.Context, id string) (booking.Classroom, error)
	// FindClassroomByName matches the exact name among classrooms that are not deleted.
	FindClassroomByName(ctx context.Context, name string) (booking.Classroom, error)
	ListClassrooms(ctx context.Context, filter ClassroomFilter) ([]booking.Classroom, error)
	ListLevels(ctx context.Context) ([]int, error)
	DeleteClassroom(ctx context.Context, id string, deletedAt time.Time) error
}

// BookingRepository stores booking requests. Bookings are never removed.
type BookingRepository interface {
	CreateBooking(ctx context.Context, b booking.Booking) error
	UpdateBooking(ctx context.Context, b booking.Booking) error
	GetBooking(ctx context.Context, id string) (booking.Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter, order BookingOrder) ([]booking.Booking, error)
}

// NotificationRepository stores user notifications.
type NotificationRepository interface {
	// CreateNotification returns ErrDuplicate when the dedup key is already used.
	CreateNotification(ctx context.Context, n booking.Notification) error
	GetNotification(ctx context.Context, id string) (booking.Notification, error)
	ListNotifications(ctx context.Context, userID string) ([]booking.Notification, error)
	DeleteNotification(ctx context.Context, id string) error
}

// Store groups every repository a backend provides.
type Store interface {
	ClassroomRepository
	BookingRepository
	NotificationRepository
	Close() error
}
