package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"

	"github.com/example/classroom-booking/internal/application"
	"github.com/example/classroom-booking/internal/booking"
)

func details(t *testing.T, id string, status booking.Status) application.BookingDetails {
	t.Helper()
	date, err := booking.ParseDate("2024-06-13")
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}
	window, err := booking.ParseWindow("09:00", "10:30")
	if err != nil {
		t.Fatalf("ParseWindow failed: %v", err)
	}
	return application.BookingDetails{
		Booking: booking.Booking{
			ID:          id,
			UserID:      "u1",
			ClassroomID: "c1",
			Date:        date,
			Window:      window,
			Status:      status,
			CreatedAt:   time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC),
		},
		ClassroomName:     "Lab 1",
		ClassroomLocation: "Block A",
	}
}

func TestCalendar(t *testing.T) {
	items := []application.BookingDetails{
		details(t, "b1", booking.StatusApproved),
		details(t, "b2", booking.StatusPending),
	}

	var buf bytes.Buffer
	if err := Calendar(&buf, items, time.UTC, time.Date(2024, time.June, 12, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Calendar returned error: %v", err)
	}

	cal, err := ics.ParseCalendar(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("ParseCalendar failed: %v", err)
	}
	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("expected only the approved booking, got %d events", len(events))
	}

	event := events[0]
	if event.Id() != "b1@classroom-booking" {
		t.Fatalf("unexpected uid %q", event.Id())
	}
	if got := event.GetProperty(ics.ComponentPropertySummary).Value; got != "Booking: Lab 1" {
		t.Fatalf("unexpected summary %q", got)
	}
	start, err := event.GetStartAt()
	if err != nil {
		t.Fatalf("GetStartAt failed: %v", err)
	}
	if !start.Equal(time.Date(2024, time.June, 13, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %s", start)
	}
	end, err := event.GetEndAt()
	if err != nil {
		t.Fatalf("GetEndAt failed: %v", err)
	}
	if !end.Equal(time.Date(2024, time.June, 13, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected end %s", end)
	}
}

func TestReport(t *testing.T) {
	rejected := details(t, "b2", booking.StatusRejected)
	reason := "too noisy"
	rejected.RejectionReason = &reason

	var buf bytes.Buffer
	if err := Report(&buf, []application.BookingDetails{details(t, "b1", booking.StatusApproved), rejected}); err != nil {
		t.Fatalf("Report returned error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != reportSheet {
		t.Fatalf("unexpected sheets %v", sheets)
	}

	rows, err := f.GetRows(reportSheet)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header and two rows, got %d", len(rows))
	}
	if rows[0][0] != "Booking ID" || rows[0][2] != "Classroom" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if rows[1][4] != "2024-06-13" || rows[1][5] != "09:00" || rows[1][6] != "10:30" {
		t.Fatalf("unexpected row %v", rows[1])
	}
	if rows[2][7] != "rejected" || rows[2][9] != "too noisy" {
		t.Fatalf("unexpected rejected row %v", rows[2])
	}
}
