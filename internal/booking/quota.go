package booking

// Weekly and daily limits applied per role.
const (
	StudentWeeklyLimit = 1
	TeacherDailyLimit  = 1
	TeacherWeeklyLimit = 5
)

// Quota rejection reasons surfaced to callers.
const (
	ReasonStudentWeekly = "Students can only book once per week."
	ReasonTeacherDaily  = "Teachers can only book once per day."
	ReasonTeacherWeekly = "Teachers can only book 5 times per week."
)

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed bool
	Reason  string
}

// CountsTowardQuota reports whether a booking consumes quota.
// Cancelled and refunded bookings are released; rejected ones still count.
func CountsTowardQuota(b Booking) bool {
	return b.Status != StatusCancelled && !b.Refunded
}

// CheckQuota applies the role rules to the user's existing bookings for a request on date.
// Bookings outside the Sunday to Saturday week of date are ignored.
func CheckQuota(role Role, date Date, existing []Booking) Decision {
	var weekly, sameDay int
	for _, b := range existing {
		if !CountsTowardQuota(b) || !InWeek(date, b.Date) {
			continue
		}
		weekly++
		if b.Date == date {
			sameDay++
		}
	}

	switch role {
	case RoleStudent:
		if weekly >= StudentWeeklyLimit {
			return Decision{Reason: ReasonStudentWeekly}
		}
	case RoleTeacher:
		if sameDay >= TeacherDailyLimit {
			return Decision{Reason: ReasonTeacherDaily}
		}
		if weekly >= TeacherWeeklyLimit {
			return Decision{Reason: ReasonTeacherWeekly}
		}
	}
	return Decision{Allowed: true}
}
