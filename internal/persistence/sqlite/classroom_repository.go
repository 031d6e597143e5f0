package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/example/classroom-booking/internal/booking"
	"github.com/example/classroom-booking/internal/persistence"
)

const classroomColumns = `id, name, capacity, location, level, equipment, created_at, deleted_at`

// CreateClassroom inserts a new classroom.
func (s *Storage) CreateClassroom(ctx context.Context, classroom booking.Classroom) error {
	if classroom.ID == "" || classroom.Capacity < 0 {
		return persistence.ErrConstraintViolation
	}

	equipment, err := encodeEquipment(classroom.Equipment)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO classrooms (`+classroomColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		classroom.ID,
		classroom.Name,
		classroom.Capacity,
		classroom.Location,
		classroom.Level,
		equipment,
		formatTime(classroom.CreatedAt),
		nullableTime(classroom.DeletedAt),
	)
	return mapError(err)
}

// GetClassroom retrieves a classroom by ID, including soft deleted ones.
func (s *Storage) GetClassroom(ctx context.Context, id string) (booking.Classroom, error) {
	if id == "" {
		return booking.Classroom{}, persistence.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+classroomColumns+` FROM classrooms WHERE id = ?`, id)
	return scanClassroom(row)
}

// FindClassroomByName returns the oldest live classroom with exactly the given name.
func (s *Storage) FindClassroomByName(ctx context.Context, name string) (booking.Classroom, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+classroomColumns+`
		FROM classrooms
		WHERE name = ? AND deleted_at IS NULL
		ORDER BY created_at ASC, id ASC
		LIMIT 1`, name)
	return scanClassroom(row)
}

// ListClassrooms returns matching classrooms ordered by name.
func (s *Storage) ListClassrooms(ctx context.Context, filter persistence.ClassroomFilter) ([]booking.Classroom, error) {
	var (
		clauses []string
		args    []any
	)
	if !filter.IncludeDeleted {
		clauses = append(clauses, "deleted_at IS NULL")
	}
	if filter.Level != nil {
		clauses = append(clauses, "level = ?")
		args = append(args, *filter.Level)
	}
	if loc := strings.TrimSpace(filter.Location); loc != "" {
		clauses = append(clauses, "instr(lower(location), lower(?)) > 0")
		args = append(args, loc)
	}
	if filter.MinCapacity != nil {
		clauses = append(clauses, "capacity >= ?")
		args = append(args, *filter.MinCapacity)
	}
	for _, item := range filter.Equipment {
		if item = strings.TrimSpace(item); item == "" {
			continue
		}
		clauses = append(clauses, "EXISTS (SELECT 1 FROM json_each(classrooms.equipment) WHERE lower(json_each.value) = lower(?))")
		args = append(args, item)
	}

	query := `SELECT ` + classroomColumns + ` FROM classrooms`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY name COLLATE NOCASE ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	classrooms := make([]booking.Classroom, 0)
	for rows.Next() {
		classroom, err := scanClassroom(rows)
		if err != nil {
			return nil, err
		}
		classrooms = append(classrooms, classroom)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return classrooms, nil
}

// ListLevels returns the distinct levels of live classrooms in ascending order.
func (s *Storage) ListLevels(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT level FROM classrooms WHERE deleted_at IS NULL ORDER BY level ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	levels := make([]int, 0)
	for rows.Next() {
		var level int
		if err := rows.Scan(&level); err != nil {
			return nil, mapError(err)
		}
		levels = append(levels, level)
	}
	return levels, mapError(rows.Err())
}

// DeleteClassroom marks a live classroom as deleted.
func (s *Storage) DeleteClassroom(ctx context.Context, id string, deletedAt time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE classrooms SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		formatTime(deletedAt), id,
	)
	if err != nil {
		return mapError(err)
	}
	return expectOneRow(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClassroom(row rowScanner) (booking.Classroom, error) {
	var (
		classroom booking.Classroom
		equipment string
		createdAt string
		deletedAt sql.NullString
	)
	if err := row.Scan(
		&classroom.ID,
		&classroom.Name,
		&classroom.Capacity,
		&classroom.Location,
		&classroom.Level,
		&equipment,
		&createdAt,
		&deletedAt,
	); err != nil {
		return booking.Classroom{}, mapError(err)
	}

	var err error
	if classroom.Equipment, err = decodeEquipment(equipment); err != nil {
		return booking.Classroom{}, err
	}
	if classroom.CreatedAt, err = parseTime(createdAt); err != nil {
		return booking.Classroom{}, err
	}
	if deletedAt.Valid {
		t, err := parseTime(deletedAt.String)
		if err != nil {
			return booking.Classroom{}, err
		}
		classroom.DeletedAt = &t
	}
	return classroom, nil
}

func encodeEquipment(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode equipment: %w", err)
	}
	return string(raw), nil
}

func decodeEquipment(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to decode equipment: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items, nil
}
