package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/classroom-booking/internal/booking"
	"github.com/example/classroom-booking/internal/persistence"
)

const notificationColumns = `id, user_id, message, kind, booking_id, dedup_key, created_at`

// CreateNotification inserts a notification and reserves its dedup key in one transaction.
func (s *Storage) CreateNotification(ctx context.Context, n booking.Notification) error {
	if n.ID == "" || strings.TrimSpace(n.UserID) == "" {
		return persistence.ErrConstraintViolation
	}

	return s.WithTransaction(ctx, func(tx *sql.Tx) error {
		if n.DedupKey != nil {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO notification_dedup_keys (dedup_key, notification_id, created_at) VALUES (?, ?, ?)`,
				*n.DedupKey, n.ID, formatTime(n.CreatedAt),
			); err != nil {
				return mapError(err)
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO notifications (`+notificationColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			n.ID,
			n.UserID,
			n.Message,
			string(n.Kind),
			nullableString(n.BookingID),
			nullableString(n.DedupKey),
			formatTime(n.CreatedAt),
		)
		return mapError(err)
	})
}

// GetNotification retrieves a notification by ID.
func (s *Storage) GetNotification(ctx context.Context, id string) (booking.Notification, error) {
	if id == "" {
		return booking.Notification{}, persistence.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)
	return scanNotification(row)
}

// ListNotifications returns a user's notifications, newest first.
func (s *Storage) ListNotifications(ctx context.Context, userID string) ([]booking.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE user_id = ?
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
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// DeleteNotification removes a notification. Its dedup key stays reserved.
func (s *Storage) DeleteNotification(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return expectOneRow(result)
}

func scanNotification(row rowScanner) (booking.Notification, error) {
	var (
		n         booking.Notification
		kind      string
		bookingID sql.NullString
		dedupKey  sql.NullString
		createdAt string
	)
	if err := row.Scan(&n.ID, &n.UserID, &n.Message, &kind, &bookingID, &dedupKey, &createdAt); err != nil {
		return booking.Notification{}, mapError(err)
	}

	n.Kind = booking.NotificationKind(kind)
	n.BookingID = stringPtr(bookingID)
	n.DedupKey = stringPtr(dedupKey)

	var err error
	if n.CreatedAt, err = parseTime(createdAt); err != nil {
		return booking.Notification{}, err
	}
	return n, nil
}
