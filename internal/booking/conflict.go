package booking

// Slot is a classroom occupied for a window on a date.
type Slot struct {
	BookingID   string
	ClassroomID string
	Date        Date
	Window      Window
}

// Conflict names an existing booking that overlaps a candidate slot.
type Conflict struct {
	WithBookingID string
	Window        Window
}

// Overlaps reports whether two slots occupy the same classroom at the same time.
func (s Slot) Overlaps(other Slot) bool {
	if s.ClassroomID != other.ClassroomID || s.Date != other.Date {
		return false
	}
	return s.Window.Overlaps(other.Window)
}

// DetectConflicts returns every existing slot that overlaps candidate.
// A slot never conflicts with itself.
func DetectConflicts(existing []Slot, candidate Slot) []Conflict {
	var conflicts []Conflict
	for _, slot := range existing {
		if candidate.BookingID != "" && slot.BookingID == candidate.BookingID {
			continue
		}
		if slot.Overlaps(candidate) {
			conflicts = append(conflicts, Conflict{WithBookingID: slot.BookingID, Window: slot.Window})
		}
	}
	return conflicts
}

// ApprovedSlots returns the slots of the approved bookings in the list.
func ApprovedSlots(bookings []Booking) []Slot {
	slots := make([]Slot, 0, len(bookings))
	for _, b := range bookings {
		if b.Status == StatusApproved {
			slots = append(slots, b.Slot())
		}
	}
	return slots
}
