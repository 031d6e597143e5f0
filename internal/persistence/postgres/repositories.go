package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/example/classroom-booking/internal/booking"
	"github.com/example/classroom-booking/internal/persistence"
)

const (
	classroomColumns    = `id, name, capacity, location, level, equipment, created_at, deleted_at`
	bookingColumns      = `id, user_id, classroom_id, booking_date, start_minute, end_minute, status, rejection_reason, refunded, created_at, updated_at`
	notificationColumns = `id, user_id, message, kind, booking_id, dedup_key, created_at`
)

// --- ClassroomRepository implementation ---

// CreateClassroom inserts a new classroom.
func (s *Storage) CreateClassroom(ctx context.Context, c booking.Classroom) error {
	if c.ID == "" || c.Capacity < 0 {
		return persistence.ErrConstraintViolation
	}
	equipment := c.Equipment
	if equipment == nil {
		equipment = []string{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO classrooms (`+classroomColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.Name, c.Capacity, c.Location, c.Level, equipment, c.CreatedAt.UTC(), c.DeletedAt,
	)
	return mapError(err)
}

// GetClassroom retrieves a classroom by ID, including soft deleted ones.
func (s *Storage) GetClassroom(ctx context.Context, id string) (booking.Classroom, error) {
	if id == "" {
		return booking.Classroom{}, persistence.ErrNotFound
	}
	return scanClassroom(s.pool.QueryRow(ctx, `SELECT `+classroomColumns+` FROM classrooms WHERE id = $1`, id))
}

// FindClassroomByName returns the oldest live classroom with exactly the given name.
func (s *Storage) FindClassroomByName(ctx context.Context, name string) (booking.Classroom, error) {
	return scanClassroom(s.pool.QueryRow(ctx, `
		SELECT `+classroomColumns+`
		FROM classrooms
		WHERE name = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC, id ASC
		LIMIT 1`, name))
}

// ListClassrooms returns matching classrooms ordered by name.
func (s *Storage) ListClassrooms(ctx context.Context, filter persistence.ClassroomFilter) ([]booking.Classroom, error) {
	var (
		clauses []string
		params  args
	)
	if !filter.IncludeDeleted {
		clauses = append(clauses, "deleted_at IS NULL")
	}
	if filter.Level != nil {
		clauses = append(clauses, "level = "+params.add(*filter.Level))
	}
	if loc := strings.TrimSpace(filter.Location); loc != "" {
		clauses = append(clauses, "strpos(lower(location), lower("+params.add(loc)+")) > 0")
	}
	if filter.MinCapacity != nil {
		clauses = append(clauses, "capacity >= "+params.add(*filter.MinCapacity))
	}
	for _, item := range filter.Equipment {
		if item = strings.TrimSpace(item); item == "" {
			continue
		}
		clauses = append(clauses, "EXISTS (SELECT 1 FROM unnest(equipment) AS e WHERE lower(e) = lower("+params.add(item)+"))")
	}

	query := `SELECT ` + classroomColumns + ` FROM classrooms`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY lower(name) ASC, id ASC"

	rows, err := s.pool.Query(ctx, query, params...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	classrooms := make([]booking.Classroom, 0)
	for rows.Next() {
		c, err := scanClassroom(rows)
		if err != nil {
			return nil, err
		}
		classrooms = append(classrooms, c)
	}
	return classrooms, mapError(rows.Err())
}

// ListLevels returns the distinct levels of live classrooms in ascending order.
func (s *Storage) ListLevels(ctx context.Context) ([]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT level FROM classrooms WHERE deleted_at IS NULL ORDER BY level ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	levels, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, mapError(err)
	}
	return levels, nil
}

// DeleteClassroom marks a live classroom as deleted.
func (s *Storage) DeleteClassroom(ctx context.Context, id string, deletedAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE classrooms SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
		deletedAt.UTC(), id,
	)
	if err != nil {
		return mapError(err)
	}
	return expectOneRow(tag)
}

func scanClassroom(row pgx.Row) (booking.Classroom, error) {
	var c booking.Classroom
	if err := row.Scan(&c.ID, &c.Name, &c.Capacity, &c.Location, &c.Level, &c.Equipment, &c.CreatedAt, &c.DeletedAt); err != nil {
		return booking.Classroom{}, mapError(err)
	}
	if len(c.Equipment) == 0 {
		c.Equipment = nil
	}
	return c, nil
}

// --- BookingRepository implementation ---

// CreateBooking inserts a new booking.
func (s *Storage) CreateBooking(ctx context.Context, b booking.Booking) error {
	if b.ID == "" || b.Window.Start >= b.Window.End {
		return persistence.ErrConstraintViolation
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, $9, $10, $11)`,
		b.ID, b.UserID, b.ClassroomID, b.Date.String(),
		int(b.Window.Start), int(b.Window.End), string(b.Status),
		b.RejectionReason, b.Refunded, b.CreatedAt.UTC(), b.UpdatedAt.UTC(),
	)
	return mapError(err)
}

// UpdateBooking overwrites the mutable fields of an existing booking.
func (s *Storage) UpdateBooking(ctx context.Context, b booking.Booking) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE bookings
		SET status = $1, rejection_reason = $2, refunded = $3, updated_at = $4
		WHERE id = $5`,
		string(b.Status), b.RejectionReason, b.Refunded, b.UpdatedAt.UTC(), b.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return expectOneRow(tag)
}

// GetBooking retrieves a booking by ID.
func (s *Storage) GetBooking(ctx context.Context, id string) (booking.Booking, error) {
	if id == "" {
		return booking.Booking{}, persistence.ErrNotFound
	}
	return scanBooking(s.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
}

// ListBookings returns bookings matching filter in the requested order.
func (s *Storage) ListBookings(ctx context.Context, filter persistence.BookingFilter, order persistence.BookingOrder) ([]booking.Booking, error) {
	var (
		clauses []string
		params  args
	)
	if filter.UserID != "" {
		clauses = append(clauses, "user_id = "+params.add(filter.UserID))
	}
	if filter.ClassroomID != "" {
		clauses = append(clauses, "classroom_id = "+params.add(filter.ClassroomID))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			statuses[i] = string(status)
		}
		clauses = append(clauses, "status = ANY("+params.add(statuses)+")")
	}
	if filter.DateFrom != nil {
		clauses = append(clauses, "booking_date >= "+params.add(filter.DateFrom.String())+"::date")
	}
	if filter.DateTo != nil {
		clauses = append(clauses, "booking_date <= "+params.add(filter.DateTo.String())+"::date")
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	if order == persistence.OrderByDateDesc {
		query += " ORDER BY booking_date DESC, start_minute DESC, id ASC"
	} else {
		query += " ORDER BY created_at ASC, id ASC"
	}

	rows, err := s.pool.Query(ctx, query, params...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	bookings := make([]booking.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, mapError(rows.Err())
}

func scanBooking(row pgx.Row) (booking.Booking, error) {
	var (
		b          booking.Booking
		date       time.Time
		start, end int
		status     string
	)
	if err := row.Scan(
		&b.ID, &b.UserID, &b.ClassroomID, &date, &start, &end, &status,
		&b.RejectionReason, &b.Refunded, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return booking.Booking{}, mapError(err)
	}
	b.Date = booking.DateOf(date)
	b.Window = booking.Window{Start: booking.TimeOfDay(start), End: booking.TimeOfDay(end)}
	b.Status = booking.Status(status)
	return b, nil
}

// --- NotificationRepository implementation ---

// CreateNotification inserts a notification and reserves its dedup key in one transaction.
func (s *Storage) CreateNotification(ctx context.Context, n booking.Notification) error {
	if n.ID == "" || strings.TrimSpace(n.UserID) == "" {
		return persistence.ErrConstraintViolation
	}
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		if n.DedupKey != nil {
			if _, err := tx.Exec(ctx,
				`INSERT INTO notification_dedup_keys (dedup_key, notification_id, created_at) VALUES ($1, $2, $3)`,
				*n.DedupKey, n.ID, n.CreatedAt.UTC(),
			); err != nil {
				return mapError(err)
			}
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO notifications (`+notificationColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			n.ID, n.UserID, n.Message, string(n.Kind), n.BookingID, n.DedupKey, n.CreatedAt.UTC(),
		)
		return mapError(err)
	})
}

// GetNotification retrieves a notification by ID.
func (s *Storage) GetNotification(ctx context.Context, id string) (booking.Notification, error) {
	if id == "" {
		return booking.Notification{}, persistence.ErrNotFound
	}
	return scanNotification(s.pool.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id))
}

// ListNotifications returns a user's notifications, newest first.
func (s *Storage) ListNotifications(ctx context.Context, userID string) ([]booking.Notification, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]booking.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, mapError(rows.Err())
}

// DeleteNotification removes a notification. Its dedup key stays reserved.
func (s *Storage) DeleteNotification(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return expectOneRow(tag)
}

func scanNotification(row pgx.Row) (booking.Notification, error) {
	var (
		n    booking.Notification
		kind string
	)
	if err := row.Scan(&n.ID, &n.UserID, &n.Message, &kind, &n.BookingID, &n.DedupKey, &n.CreatedAt); err != nil {
		return booking.Notification{}, mapError(err)
	}
	n.Kind = booking.NotificationKind(kind)
	return n, nil
}
