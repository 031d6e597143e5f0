package booking

import (
	"strings"
	"time"
)

// Role identifies the kind of user asserted by the identity provider.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// ParseRole normalises a role claim. Unknown roles are returned verbatim and carry no quota.
func ParseRole(value string) Role {
	return Role(strings.ToLower(strings.TrimSpace(value)))
}

// Availability is the derived occupancy state of a classroom.
type Availability string

const (
	AvailabilityAvailable Availability = "available"
	AvailabilityBooked    Availability = "booked"
	AvailabilityInUse     Availability = "in_use"
)

// Classroom is a bookable room.
type Classroom struct {
	ID        string
	Name      string
	Capacity  int
	Location  string
	Level     int
	Equipment []string
	CreatedAt time.Time
	DeletedAt *time.Time
}

// Deleted reports whether the classroom has been withdrawn from the catalog.
func (c Classroom) Deleted() bool {
	return c.DeletedAt != nil
}

// HasEquipment reports whether every wanted item is present, ignoring case.
func (c Classroom) HasEquipment(wanted []string) bool {
	for _, item := range wanted {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		found := false
		for _, have := range c.Equipment {
			if strings.EqualFold(have, item) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Booking is a request to occupy a classroom during a window on a date.
type Booking struct {
	ID              string
	UserID          string
	ClassroomID     string
	Date            Date
	Window          Window
	Status          Status
	RejectionReason *string
	Refunded        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Slot returns the booking's occupancy of its classroom.
func (b Booking) Slot() Slot {
	return Slot{BookingID: b.ID, ClassroomID: b.ClassroomID, Date: b.Date, Window: b.Window}
}

// NotificationKind classifies a notification by the event that produced it.
type NotificationKind string

const (
	NotificationApproved  NotificationKind = "booking_approved"
	NotificationRejected  NotificationKind = "booking_rejected"
	NotificationCancelled NotificationKind = "booking_cancelled"
	NotificationReminder  NotificationKind = "booking_reminder"
)

// Notification is an append-only message addressed to a single user.
type Notification struct {
	ID        string
	UserID    string
	Message   string
	Kind      NotificationKind
	BookingID *string
	DedupKey  *string
	CreatedAt time.Time
}
