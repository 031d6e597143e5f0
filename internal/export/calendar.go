// Package export renders bookings into files users download: an iCalendar feed of a user's
// approved bookings and a spreadsheet report for administrators.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/example/classroom-booking/internal/application"
	"github.com/example/classroom-booking/internal/booking"
)

const productID = "-//classroom-booking//bookings//EN"

// Calendar writes the approved bookings among items as VEVENTs. Dates and times are interpreted
// in loc; stamp is used for DTSTAMP.
func Calendar(w io.Writer, items []application.BookingDetails, loc *time.Location, stamp time.Time) error {
	if loc == nil {
		loc = time.Local
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName("Classroom bookings")

	for _, item := range items {
		if item.Status != booking.StatusApproved {
			continue
		}
		event := cal.AddEvent(item.ID + "@classroom-booking")
		event.SetDtStampTime(stamp)
		event.SetStartAt(item.Date.At(item.Window.Start, loc))
		event.SetEndAt(item.Date.At(item.Window.End, loc))
		event.SetSummary(fmt.Sprintf("Booking: %s", item.ClassroomName))
		if location := strings.TrimSpace(item.ClassroomLocation); location != "" {
			event.SetLocation(location)
		}
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("export: write calendar: %w", err)
	}
	return nil
}
