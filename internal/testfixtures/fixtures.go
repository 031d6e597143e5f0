package testfixtures

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/classroom-booking/internal/application"
	"github.com/example/classroom-booking/internal/booking"
)

var (
	classroomCounter    uint64
	bookingCounter      uint64
	notificationCounter uint64
)

// Wednesday 12 June 2024, 08:30 UTC. Its booking week runs 9–15 June.
var referenceTime = time.Date(2024, time.June, 12, 8, 30, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate is the calendar date of ReferenceTime.
func ReferenceDate() booking.Date {
	return booking.DateOf(referenceTime)
}

// MustWindow parses "HH:MM" bounds and panics on malformed input.
func MustWindow(start, end string) booking.Window {
	w, err := booking.ParseWindow(start, end)
	if err != nil {
		panic(fmt.Sprintf("testfixtures: invalid window %s-%s: %v", start, end, err))
	}
	return w
}

// MustDate parses a YYYY-MM-DD date and panics on malformed input.
func MustDate(value string) booking.Date {
	d, err := booking.ParseDate(value)
	if err != nil {
		panic(fmt.Sprintf("testfixtures: invalid date %q: %v", value, err))
	}
	return d
}

// ----------------------------- Principals -----------------------------

func Student(id string) application.Principal {
	return application.Principal{UserID: id, Role: booking.RoleStudent}
}

func Teacher(id string) application.Principal {
	return application.Principal{UserID: id, Role: booking.RoleTeacher}
}

func Admin(id string) application.Principal {
	return application.Principal{UserID: id, Role: booking.RoleAdmin}
}

// ----------------------------- Classroom fixtures -----------------------------

// ClassroomOption configures a generated classroom.
type ClassroomOption func(*booking.Classroom)

// NewClassroom returns a deterministic classroom with optional overrides.
func NewClassroom(opts ...ClassroomOption) booking.Classroom {
	idx := atomic.AddUint64(&classroomCounter, 1)
	classroom := booking.Classroom{
		ID:        fmt.Sprintf("classroom-%03d", idx),
		Name:      fmt.Sprintf("Room %03d", idx),
		Capacity:  30,
		Location:  "Main Building",
		Level:     1,
		Equipment: []string{"Projector"},
		CreatedAt: referenceTime.Add(-24 * time.Hour),
	}
	for _, opt := range opts {
		opt(&classroom)
	}
	return classroom
}

func WithClassroomID(id string) ClassroomOption {
	return func(c *booking.Classroom) { c.ID = id }
}

func WithClassroomName(name string) ClassroomOption {
	return func(c *booking.Classroom) { c.Name = name }
}

func WithClassroomCapacity(capacity int) ClassroomOption {
	return func(c *booking.Classroom) { c.Capacity = capacity }
}

func WithClassroomLocation(location string) ClassroomOption {
	return func(c *booking.Classroom) { c.Location = location }
}

func WithClassroomLevel(level int) ClassroomOption {
	return func(c *booking.Classroom) { c.Level = level }
}

// WithClassroomEquipment replaces the equipment list.
func WithClassroomEquipment(items ...string) ClassroomOption {
	return func(c *booking.Classroom) { c.Equipment = append([]string(nil), items...) }
}

func WithClassroomCreatedAt(t time.Time) ClassroomOption {
	return func(c *booking.Classroom) { c.CreatedAt = t }
}

// WithClassroomDeletedAt marks the classroom as soft deleted.
func WithClassroomDeletedAt(t time.Time) ClassroomOption {
	return func(c *booking.Classroom) { c.DeletedAt = &t }
}

// ----------------------------- Booking fixtures -----------------------------

// BookingOption configures a generated booking.
type BookingOption func(*booking.Booking)

// NewBooking returns a pending 09:00-10:00 booking on ReferenceDate.
func NewBooking(opts ...BookingOption) booking.Booking {
	idx := atomic.AddUint64(&bookingCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Second)
	b := booking.Booking{
		ID:          fmt.Sprintf("booking-%03d", idx),
		UserID:      "student-1",
		ClassroomID: "classroom-001",
		Date:        ReferenceDate(),
		Window:      MustWindow("09:00", "10:00"),
		Status:      booking.StatusPending,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func WithBookingID(id string) BookingOption {
	return func(b *booking.Booking) { b.ID = id }
}

func WithBookingUser(userID string) BookingOption {
	return func(b *booking.Booking) { b.UserID = userID }
}

func WithBookingClassroom(classroomID string) BookingOption {
	return func(b *booking.Booking) { b.ClassroomID = classroomID }
}

func WithBookingDate(d booking.Date) BookingOption {
	return func(b *booking.Booking) { b.Date = d }
}

// WithBookingWindow sets the window from "HH:MM" bounds.
func WithBookingWindow(start, end string) BookingOption {
	return func(b *booking.Booking) { b.Window = MustWindow(start, end) }
}

func WithBookingStatus(status booking.Status) BookingOption {
	return func(b *booking.Booking) { b.Status = status }
}

// WithBookingRejected marks the booking rejected with reason.
func WithBookingRejected(reason string) BookingOption {
	return func(b *booking.Booking) {
		b.Status = booking.StatusRejected
		trimmed := strings.TrimSpace(reason)
		b.RejectionReason = &trimmed
	}
}

func WithBookingRefunded() BookingOption {
	return func(b *booking.Booking) { b.Refunded = true }
}

// WithBookingTimestamps overrides both creation and update times.
func WithBookingTimestamps(created, updated time.Time) BookingOption {
	return func(b *booking.Booking) {
		b.CreatedAt = created
		b.UpdatedAt = updated
	}
}

// ----------------------------- Notification fixtures -----------------------------

// NotificationOption configures a generated notification.
type NotificationOption func(*booking.Notification)

// NewNotification returns an approval notice for student-1.
func NewNotification(opts ...NotificationOption) booking.Notification {
	idx := atomic.AddUint64(&notificationCounter, 1)
	n := booking.Notification{
		ID:        fmt.Sprintf("notification-%03d", idx),
		UserID:    "student-1",
		Message:   fmt.Sprintf("Notification %03d", idx),
		Kind:      booking.NotificationApproved,
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Second),
	}
	for _, opt := range opts {
		opt(&n)
	}
	return n
}

func WithNotificationID(id string) NotificationOption {
	return func(n *booking.Notification) { n.ID = id }
}

func WithNotificationUser(userID string) NotificationOption {
	return func(n *booking.Notification) { n.UserID = userID }
}

func WithNotificationKind(kind booking.NotificationKind) NotificationOption {
	return func(n *booking.Notification) { n.Kind = kind }
}

func WithNotificationMessage(message string) NotificationOption {
	return func(n *booking.Notification) { n.Message = message }
}

func WithNotificationBooking(bookingID string) NotificationOption {
	return func(n *booking.Notification) { n.BookingID = &bookingID }
}

func WithNotificationDedupKey(key string) NotificationOption {
	return func(n *booking.Notification) { n.DedupKey = &key }
}

func WithNotificationCreatedAt(t time.Time) NotificationOption {
	return func(n *booking.Notification) { n.CreatedAt = t }
}
