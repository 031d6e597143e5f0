package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/classroom-booking/internal/booking"
	"github.com/example/classroom-booking/internal/persistence"
)

const bookingColumns = `id, user_id, classroom_id, booking_date, start_minute, end_minute, status, rejection_reason, refunded, created_at, updated_at`

// CreateBooking inserts a new booking.
func (s *Storage) CreateBooking(ctx context.Context, b booking.Booking) error {
	if b.ID == "" || b.Window.Start >= b.Window.End {
		return persistence.ErrConstraintViolation
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID,
		b.UserID,
		b.ClassroomID,
		b.Date.String(),
		int(b.Window.Start),
		int(b.Window.End),
		string(b.Status),
		nullableString(b.RejectionReason),
		b.Refunded,
		formatTime(b.CreatedAt),
		formatTime(b.UpdatedAt),
	)
	return mapError(err)
}

// UpdateBooking overwrites the mutable fields of an existing booking.
func (s *Storage) UpdateBooking(ctx context.Context, b booking.Booking) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE bookings
		SET status = ?, rejection_reason = ?, refunded = ?, updated_at = ?
		WHERE id = ?`,
		string(b.Status),
		nullableString(b.RejectionReason),
		b.Refunded,
		formatTime(b.UpdatedAt),
		b.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return expectOneRow(result)
}

// GetBooking retrieves a booking by ID.
func (s *Storage) GetBooking(ctx context.Context, id string) (booking.Booking, error) {
	if id == "" {
		return booking.Booking{}, persistence.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	return scanBooking(row)
}

// ListBookings returns bookings matching filter in the requested order.
func (s *Storage) ListBookings(ctx context.Context, filter persistence.BookingFilter, order persistence.BookingOrder) ([]booking.Booking, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.ClassroomID != "" {
		clauses = append(clauses, "classroom_id = ?")
		args = append(args, filter.ClassroomID)
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, string(status))
		}
		clauses = append(clauses, "status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.DateFrom != nil {
		clauses = append(clauses, "booking_date >= ?")
		args = append(args, filter.DateFrom.String())
	}
	if filter.DateTo != nil {
		clauses = append(clauses, "booking_date <= ?")
		args = append(args, filter.DateTo.String())
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	switch order {
	case persistence.OrderByDateDesc:
		query += " ORDER BY booking_date DESC, start_minute DESC, id ASC"
	default:
		query += " ORDER BY created_at ASC, id ASC"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
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
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return bookings, nil
}

func scanBooking(row rowScanner) (booking.Booking, error) {
	var (
		b          booking.Booking
		date       string
		start, end int
		status     string
		reason     sql.NullString
		createdAt  string
		updatedAt  string
	)
	if err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.ClassroomID,
		&date,
		&start,
		&end,
		&status,
		&reason,
		&b.Refunded,
		&createdAt,
		&updatedAt,
	); err != nil {
		return booking.Booking{}, mapError(err)
	}

	var err error
	if b.Date, err = booking.ParseDate(date); err != nil {
		return booking.Booking{}, err
	}
	b.Window = booking.Window{Start: booking.TimeOfDay(start), End: booking.TimeOfDay(end)}
	b.Status = booking.Status(status)
	b.RejectionReason = stringPtr(reason)
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return booking.Booking{}, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return booking.Booking{}, err
	}
	return b, nil
}
