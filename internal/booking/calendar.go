package booking

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidDate is returned when a calendar date cannot be parsed.
	ErrInvalidDate = errors.New("booking: invalid date")
	// ErrInvalidTime is returned when a time of day is not in HH:MM form.
	ErrInvalidTime = errors.New("booking: invalid time of day")
	// ErrInvalidWindow is returned when a window does not start before it ends.
	ErrInvalidWindow = errors.New("booking: start must be before end")
)

const dateLayout = "2006-01-02"

// Date is a civil calendar day. It carries no time of day and no zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a YYYY-MM-DD value.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Display formats the date as DD/MM/YYYY for user facing messages.
func (d Date) Display() string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, int(d.Month), d.Year)
}

// At returns the instant at which the time of day t begins on d in loc.
func (d Date) At(t TimeOfDay, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	minutes := int(t)
	return time.Date(d.Year, d.Month, d.Day, minutes/60, minutes%60, 0, 0, loc)
}

// AddDays returns the date n days after d. Negative n moves backwards.
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

// Weekday returns the day of the week of d.
func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return compareInt(d.Year, other.Year)
	case d.Month != other.Month:
		return compareInt(int(d.Month), int(other.Month))
	default:
		return compareInt(d.Day, other.Day)
	}
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.Compare(other) < 0
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return d.Compare(other) > 0
}

// Week returns the Sunday on or before d and the Saturday that follows it.
func Week(d Date) (start, end Date) {
	start = d.AddDays(-int(d.Weekday()))
	return start, start.AddDays(6)
}

// InWeek reports whether candidate falls in the Sunday to Saturday week containing reference.
func InWeek(reference, candidate Date) bool {
	start, end := Week(reference)
	return !candidate.Before(start) && !candidate.After(end)
}

// TimeOfDay counts minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay parses a strict HH:MM value.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	value = strings.TrimSpace(value)
	if len(value) != 5 || value[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	hour, okHour := twoDigits(value[0:2])
	minute, okMinute := twoDigits(value[3:5])
	if !okHour || !okMinute || hour > 23 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// ClockTime returns the time of day of t in t's own location.
func ClockTime(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

// String formats the time as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Window is a half-open [Start, End) span within a single day.
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

// NewWindow validates that start precedes end.
func NewWindow(start, end TimeOfDay) (Window, error) {
	if start >= end {
		return Window{}, ErrInvalidWindow
	}
	return Window{Start: start, End: end}, nil
}

// ParseWindow parses a pair of HH:MM values into a window.
func ParseWindow(start, end string) (Window, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return Window{}, err
	}
	return NewWindow(s, e)
}

// Overlaps reports whether the two windows share any minute.
// Touching endpoints do not overlap.
func (w Window) Overlaps(other Window) bool {
	return w.Start < other.End && other.Start < w.End
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t TimeOfDay) bool {
	return w.Start <= t && t < w.End
}

// String formats the window as "HH:MM - HH:MM".
func (w Window) String() string {
	return w.Start.String() + " - " + w.End.String()
}

func twoDigits(s string) (int, bool) {
	if len(s) != 2 || s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
