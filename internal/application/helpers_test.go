package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/example/classroom-booking/internal/booking"
	"github.com/example/classroom-booking/internal/persistence/memory"
)

// Wednesday; the enclosing week runs from Sunday 9 June to Saturday 15 June 2024.
var referenceNow = time.Date(2024, time.June, 12, 8, 30, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type sequence struct {
	mu     sync.Mutex
	prefix string
	next   int
}

func (s *sequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return fmt.Sprintf("%s-%d", s.prefix, s.next)
}

type serviceEnv struct {
	store         *memory.Storage
	clock         *fakeClock
	ids           *sequence
	classrooms    *ClassroomService
	bookings      *BookingService
	notifications *NotificationService
	reminders     *ReminderService
}

func newServiceEnv(t *testing.T) *serviceEnv {
	t.Helper()

	store := memory.New()
	clock := &fakeClock{now: referenceNow}
	ids := &sequence{prefix: "id"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &serviceEnv{
		store:         store,
		clock:         clock,
		ids:           ids,
		classrooms:    NewClassroomServiceWithLogger(store, store, ids.Next, clock.Now, time.UTC, logger),
		bookings:      NewBookingServiceWithLogger(store, store, store, nil, ids.Next, clock.Now, logger),
		notifications: NewNotificationService(store, logger),
		reminders: NewReminderService(store, store, store, ids.Next, clock.Now, ReminderOptions{
			Location: time.UTC,
			Logger:   logger,
		}),
	}
}

func (e *serviceEnv) addClassroom(t *testing.T, id, name string) booking.Classroom {
	t.Helper()
	classroom := booking.Classroom{
		ID:        id,
		Name:      name,
		Capacity:  30,
		Location:  "Block A",
		Level:     1,
		Equipment: []string{"Projector"},
		CreatedAt: referenceNow,
	}
	if err := e.store.CreateClassroom(context.Background(), classroom); err != nil {
		t.Fatalf("CreateClassroom failed: %v", err)
	}
	return classroom
}

// addBooking stores a booking directly, bypassing admission rules.
func (e *serviceEnv) addBooking(t *testing.T, id, userID, classroomID, date, start, end string, status booking.Status) booking.Booking {
	t.Helper()
	d, err := booking.ParseDate(date)
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}
	w, err := booking.ParseWindow(start, end)
	if err != nil {
		t.Fatalf("ParseWindow failed: %v", err)
	}
	b := booking.Booking{
		ID:          id,
		UserID:      userID,
		ClassroomID: classroomID,
		Date:        d,
		Window:      w,
		Status:      status,
		CreatedAt:   referenceNow,
		UpdatedAt:   referenceNow,
	}
	if err := e.store.CreateBooking(context.Background(), b); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}
	return b
}

func student(id string) Principal { return Principal{UserID: id, Role: booking.RoleStudent} }
func teacher(id string) Principal { return Principal{UserID: id, Role: booking.RoleTeacher} }
func admin() Principal            { return Principal{UserID: "admin", Role: booking.RoleAdmin} }
