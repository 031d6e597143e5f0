package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/classroom-booking/internal/booking"
	"github.com/example/classroom-booking/internal/persistence"
)

// Storage keeps classrooms, bookings and notifications in process memory.
type Storage struct {
	mu            sync.RWMutex
	classrooms    map[string]booking.Classroom
	bookings      map[string]booking.Booking
	notifications map[string]booking.Notification
	dedupKeys     map[string]string
}

var _ persistence.Store = (*Storage)(nil)

// New returns an empty Storage.
func New() *Storage {
	return &Storage{
		classrooms:    make(map[string]booking.Classroom),
		bookings:      make(map[string]booking.Booking),
		notifications: make(map[string]booking.Notification),
		dedupKeys:     make(map[string]string),
	}
}

// Close is a no-op.
func (s *Storage) Close() error {
	return nil
}

// --- ClassroomRepository implementation ---

// CreateClassroom stores a new classroom.
func (s *Storage) CreateClassroom(ctx context.Context, classroom booking.Classroom) error {
	if classroom.ID == "" || classroom.Capacity < 0 {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.classrooms[classroom.ID]; ok {
		return fmt.Errorf("memory: classroom %s: %w", classroom.ID, persistence.ErrDuplicate)
	}
	s.classrooms[classroom.ID] = cloneClassroom(classroom)
	return nil
}

// GetClassroom retrieves a classroom by ID, including soft deleted ones.
func (s *Storage) GetClassroom(ctx context.Context, id string) (booking.Classroom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	classroom, ok := s.classrooms[id]
	if !ok {
		return booking.Classroom{}, persistence.ErrNotFound
	}
	return cloneClassroom(classroom), nil
}

// FindClassroomByName returns the oldest live classroom with exactly the given name.
func (s *Storage) FindClassroomByName(ctx context.Context, name string) (booking.Classroom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		found booking.Classroom
		ok    bool
	)
	for _, classroom := range s.classrooms {
		if classroom.Deleted() || classroom.Name != name {
			continue
		}
		if !ok || classroom.CreatedAt.Before(found.CreatedAt) ||
			(classroom.CreatedAt.Equal(found.CreatedAt) && classroom.ID < found.ID) {
			found, ok = classroom, true
		}
	}
	if !ok {
		return booking.Classroom{}, persistence.ErrNotFound
	}
	return cloneClassroom(found), nil
}

// ListClassrooms returns matching classrooms ordered by name.
func (s *Storage) ListClassrooms(ctx context.Context, filter persistence.ClassroomFilter) ([]booking.Classroom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	classrooms := make([]booking.Classroom, 0, len(s.classrooms))
	for _, classroom := range s.classrooms {
		if filter.Matches(classroom) {
			classrooms = append(classrooms, cloneClassroom(classroom))
		}
	}
	persistence.SortClassrooms(classrooms)
	return classrooms, nil
}

// ListLevels returns the distinct levels of live classrooms in ascending order.
func (s *Storage) ListLevels(ctx context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int]struct{})
	for _, classroom := range s.classrooms {
		if !classroom.Deleted() {
			seen[classroom.Level] = struct{}{}
		}
	}
	levels := make([]int, 0, len(seen))
	for level := range seen {
		levels = append(levels, level)
	}
	sort.Ints(levels)
	return levels, nil
}

// DeleteClassroom marks a live classroom as deleted.
func (s *Storage) DeleteClassroom(ctx context.Context, id string, deletedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	classroom, ok := s.classrooms[id]
	if !ok || classroom.Deleted() {
		return persistence.ErrNotFound
	}
	classroom.DeletedAt = &deletedAt
	s.classrooms[id] = classroom
	return nil
}

// --- BookingRepository implementation ---

// CreateBooking stores a new booking.
func (s *Storage) CreateBooking(ctx context.Context, b booking.Booking) error {
	if b.ID == "" || b.Window.Start >= b.Window.End {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookings[b.ID]; ok {
		return fmt.Errorf("memory: booking %s: %w", b.ID, persistence.ErrDuplicate)
	}
	if _, ok := s.classrooms[b.ClassroomID]; !ok {
		return fmt.Errorf("memory: classroom %s: %w", b.ClassroomID, persistence.ErrConstraintViolation)
	}
	s.bookings[b.ID] = cloneBooking(b)
	return nil
}

// UpdateBooking replaces an existing booking.
func (s *Storage) UpdateBooking(ctx context.Context, b booking.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookings[b.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.bookings[b.ID] = cloneBooking(b)
	return nil
}

// GetBooking retrieves a booking by ID.
func (s *Storage) GetBooking(ctx context.Context, id string) (booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return booking.Booking{}, persistence.ErrNotFound
	}
	return cloneBooking(b), nil
}

// ListBookings returns bookings matching filter in the requested order.
func (s *Storage) ListBookings(ctx context.Context, filter persistence.BookingFilter, order persistence.BookingOrder) ([]booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bookings := make([]booking.Booking, 0)
	for _, b := range s.bookings {
		if filter.Matches(b) {
			bookings = append(bookings, cloneBooking(b))
		}
	}
	persistence.SortBookings(bookings, order)
	return bookings, nil
}

// --- NotificationRepository implementation ---

// CreateNotification stores a notification, enforcing unique dedup keys.
func (s *Storage) CreateNotification(ctx context.Context, n booking.Notification) error {
	if n.ID == "" || strings.TrimSpace(n.UserID) == "" {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notifications[n.ID]; ok {
		return fmt.Errorf("memory: notification %s: %w", n.ID, persistence.ErrDuplicate)
	}
	if n.DedupKey != nil {
		if _, taken := s.dedupKeys[*n.DedupKey]; taken {
			return fmt.Errorf("memory: dedup key %s: %w", *n.DedupKey, persistence.ErrDuplicate)
		}
		s.dedupKeys[*n.DedupKey] = n.ID
	}
	s.notifications[n.ID] = cloneNotification(n)
	return nil
}

// GetNotification retrieves a notification by ID.
func (s *Storage) GetNotification(ctx context.Context, id string) (booking.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifications[id]
	if !ok {
		return booking.Notification{}, persistence.ErrNotFound
	}
	return cloneNotification(n), nil
}

// ListNotifications returns a user's notifications, newest first.
func (s *Storage) ListNotifications(ctx context.Context, userID string) ([]booking.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]booking.Notification, 0)
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, cloneNotification(n))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteNotification removes a notification. Its dedup key stays reserved.
func (s *Storage) DeleteNotification(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notifications[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.notifications, id)
	return nil
}

func cloneClassroom(c booking.Classroom) booking.Classroom {
	clone := c
	clone.Equipment = append([]string(nil), c.Equipment...)
	if c.DeletedAt != nil {
		deletedAt := *c.DeletedAt
		clone.DeletedAt = &deletedAt
	}
	return clone
}

func cloneBooking(b booking.Booking) booking.Booking {
	clone := b
	clone.RejectionReason = cloneString(b.RejectionReason)
	return clone
}

func cloneNotification(n booking.Notification) booking.Notification {
	clone := n
	clone.BookingID = cloneString(n.BookingID)
	clone.DedupKey = cloneString(n.DedupKey)
	return clone
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
