package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/example/classroom-booking/internal/booking"
)

func TestBookingService_CreateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending booking by classroom id", func(t *testing.T) {
		env := newServiceEnv(t)
		env.addClassroom(t, "c1", "Lab 1")

		created, err := env.bookings.CreateBooking(ctx, CreateBookingParams{
			Principal:    student("s1"),
			ClassroomRef: "c1",
			Date:         "2024-06-13",
			StartTime:    "09:00",
			EndTime:      "10:00",
		})
		if err != nil {
			t.Fatalf("CreateBooking returned error: %v", err)
		}
		if created.Status != booking.StatusPending {
			t.Fatalf("expected pending status, got %s", created.Status)
		}
		if created.UserID != "s1" || created.ClassroomID != "c1" {
			t.Fatalf("unexpected booking: %+v", created)
		}

		stored, err := env.store.GetBooking(ctx, created.ID)
		if err != nil {
			t.Fatalf("expected booking to be persisted: %v", err)
		}
		if stored.Window.String() != "09:00 - 10:00" {
			t.Fatalf("unexpected stored window %s", stored.Window)
		}

		notes, _ := env.store.ListNotifications(ctx, "s1")
		if len(notes) != 0 {
			t.Fatalf("expected no notification on creation, got %d", len(notes))
		}
	})

	t.Run("resolves classroom by exact name", func(t *testing.T) {
		env := newServiceEnv(t)
		env.addClassroom(t, "c1", "Lab 1")

		created, err := env.bookings.CreateBooking(ctx, CreateBookingParams{
			Principal:    teacher("t1"),
			ClassroomRef: "Lab 1",
			Date:         "2024-06-13",
			StartTime:    "09:00",
			EndTime:      "10:00",
		})
		if err != nil {
			t.Fatalf("CreateBooking returned error: %v", err)
		}
		if created.ClassroomID != "c1" {
			t.Fatalf("expected classroom c1, got %s", created.ClassroomID)
		}
	})

	t.Run("unknown classroom is not found", func(t *testing.T) {
		env := newServiceEnv(t)
		env.addClassroom(t, "c1", "Lab 1")

		_, err := env.bookings.CreateBooking(ctx, CreateBookingParams{
			Principal:    student("s1"),
			ClassroomRef: "lab 1",
			Date:         "2024-06-13",
			StartTime:    "09:00",
			EndTime:      "10:00",
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("deleted classroom is not bookable", func(t *testing.T) {
		env := newServiceEnv(t)
		env.addClassroom(t, "c1", "Lab 1")
		if err := env.store.DeleteClassroom(ctx, "c1", referenceNow); err != nil {
			t.Fatalf("DeleteClassroom failed: %v", err)
		}

		_, err := env.bookings.CreateBooking(ctx, CreateBookingParams{
			Principal:    student("s1"),
			ClassroomRef: "c1",
			Date:         "2024-06-13",
			StartTime:    "09:00",
			EndTime:      "10:00",
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		env := newServiceEnv(t)
		env.addClassroom(t, "c1", "Lab 1")

		_, err := env.bookings.CreateBooking(ctx, CreateBookingParams{
			Principal:    student("s1"),
			ClassroomRef: "c1",
			Date:         "13/06/2024",
			StartTime:    "10:00",
			EndTime:      "09:00",
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["date"]; !ok {
			t.Fatalf("expected date error, got %v", vErr.FieldErrors)
		}
		if _, ok := vErr.FieldErrors["end_time"]; !ok {
			t.Fatalf("expected end_time error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("equal start and end is invalid", func(t *testing.T) {
		env := newServiceEnv(t)
		env.addClassroom(t, "c1", "Lab 1")

		_, err := env.bookings.CreateBooking(ctx, CreateBookingParams{
			Principal:    student("s1"),
			ClassroomRef: "c1",
			Date:         "2024-06-13",
			StartTime:    "09:00",
			EndTime:      "09:00",
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("student limited to one booking per week", func(t *testing.T) {
		env := newServiceEnv(t)
		env.addClassroom(t, "c1", "Lab 1")
		env.addBooking(t, "b1", "s1", "c1", "2024-06-09", "09:00", "10:00", booking.StatusRejected)

		_, err := env.bookings.CreateBooking(ctx, CreateBookingParams{
			Principal:    student("s1"),
			ClassroomRef: "c1",
			Date:         "2024-06-15",
			StartTime:    "09:00",
			EndTime:      "10:00",
		})
		var qErr *QuotaError
		if !errors.As(err, &qErr) {
			t.Fatalf("expected QuotaError, got %v", err)
		}
		if qErr.Reason != booking.ReasonStudentWeekly {
			t.Fatalf("unexpected reason %q", qErr.Reason)
		}
		if !errors.Is(err, ErrQuotaExceeded) {
			t.Fatalf("expected QuotaError to match ErrQuotaExceeded")
		}
	})

	t.Run("student may book again in the next week", func(t *testing.T) {
		env := newServiceEnv(t)
		env.addClassroom(t, "c1", "Lab 1")
		env.addBooking(t, "b1", "s1", "c1", "2024-06-15", "09:00", "10:00", booking.StatusApproved)

		if _, err := env.bookings.CreateBooking(ctx, CreateBookingParams{
			Principal:    student("s1"),
			ClassroomRef: "c1",
			Date:         "2024-06-16",
			StartTime:    "09:00",
			EndTime:      "10:00",
		}); err != nil {
			t.Fatalf("expected booking in the following week to succeed, got %v", err)
		}
	})

	t.Run("teacher limited to one booking per day", func(t *testing.T) {
		env := newServiceEnv(t)
		env.addClassroom(t, "c1", "Lab 1")
		env.addBooking(t, "b1", "t1", "c1", "2024-06-13", "09:00", "10:00", booking.StatusPending)

		_, err := env.bookings.CreateBooking(ctx, CreateBookingParams{
			Principal:    teacher("t1"),
			ClassroomRef: "c1",
			Date:         "2024-06-13",
			StartTime:    "11:00",
			EndTime:      "12:00",
		})
		var qErr *QuotaError
		if !errors.As(err, &qErr) || qErr.Reason != booking.ReasonTeacherDaily {
			t.Fatalf("expected daily quota error, got %v", err)
		}
	})

	t.Run("teacher limited to five bookings per week", func(t *testing.T) {
		env := newServiceEnv(t)
		env.addClassroom(t, "c1", "Lab 1")
		env.addBooking(t, "b1", "t1", "c1", "2024-06-09", "09:00", "10:00", booking.StatusApproved)
		env.addBooking(t, "b2", "t1", "c1", "2024-06-10", "09:00", "10:00", booking.StatusApproved)
		env.addBooking(t, "b3", "t1", "c1", "2024-06-11", "09:00", "10:00", booking.StatusPending)
		env.addBooking(t, "b4", "t1", "c1", "2024-06-12", "09:00", "10:00", booking.StatusPending)
		env.addBooking(t, "b5", "t1", "c1", "2024-06-12", "11:00", "12:00", booking.StatusRejected)

		_, err := env.bookings.CreateBooking(ctx, CreateBookingParams{
			Principal:    teacher("t1"),
			ClassroomRef: "c1",
			Date:         "2024-06-14",
			StartTime:    "09:00",
			EndTime:      "10:00",
		})
		var qErr *QuotaError
		if !errors.As(err, &qErr) || qErr.Reason != booking.ReasonTeacherWeekly {
			t.Fatalf("expected weekly quota error, got %v", err)
		}
	})

	t.Run("administrators bypass quota", func(t *testing.T) {
		env := newServiceEnv(t)
		env.addClassroom(t, "c1", "Lab 1")
		env.addBooking(t, "b1", "admin", "c1", "2024-06-13", "07:00", "08:00", booking.StatusPending)

		if _, err := env.bookings.CreateBooking(ctx, CreateBookingParams{
			Principal:    admin(),
			ClassroomRef: "c1",
			Date:         "2024-06-13",
			StartTime:    "09:00",
			EndTime:      "10:00",
		}); err != nil {
			t.Fatalf("expected admin booking to succeed, got %v", err)
		}
	})

	t.Run("overlapping approved booking conflicts", func(t *testing.T) {
		env := newServiceEnv(t)
		env.addClassroom(t, "c1", "Lab 1")
		env.addBooking(t, "b1", "t9", "c1", "2024-06-13", "09:00", "10:00", booking.StatusApproved)

		_, err := env.bookings.CreateBooking(ctx, CreateBookingParams{
			Principal:    student("s1"),
			ClassroomRef: "c1",
			Date:         "2024-06-13",
			StartTime:    "09:30",
			EndTime:      "10:30",
		})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("touching windows do not conflict", func(t *testing.T) {
		env := newServiceEnv(t)
		env.addClassroom(t, "c1", "Lab 1")
		env.addBooking(t, "b1", "t9", "c1", "2024-06-13", "09:00", "10:00", booking.StatusApproved)

		if _, err := env.bookings.CreateBooking(ctx, CreateBookingParams{
			Principal:    student("s1"),
			ClassroomRef: "c1",
			Date:         "2024-06-13",
			StartTime:    "10:00",
			EndTime:      "11:00",
		}); err != nil {
			t.Fatalf("expected adjacent booking to succeed, got %v", err)
		}
	})

	t.Run("pending bookings do not block", func(t *testing.T) {
		env := newServiceEnv(t)
		env.addClassroom(t, "c1", "Lab 1")
		env.addBooking(t, "b1", "t9", "c1", "2024-06-13", "09:00", "10:00", booking.StatusPending)

		if _, err := env.bookings.CreateBooking(ctx, CreateBookingParams{
			Principal:    student("s1"),
			ClassroomRef: "c1",
			Date:         "2024-06-13",
			StartTime:    "09:00",
			EndTime:      "10:00",
		}); err != nil {
			t.Fatalf("expected booking over a pending one to succeed, got %v", err)
		}
	})

	t.Run("concurrent requests from one student admit a single booking", func(t *testing.T) {
		env := newServiceEnv(t)
		env.addClassroom(t, "c1", "Lab 1")

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			admitted int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := env.bookings.CreateBooking(ctx, CreateBookingParams{
					Principal:    student("s1"),
					ClassroomRef: "c1",
					Date:         "2024-06-13",
					StartTime:    "09:00",
					EndTime:      "10:00",
				})
				if err == nil {
					mu.Lock()
					admitted++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if admitted != 1 {
			t.Fatalf("expected exactly one admitted booking, got %d", admitted)
		}
	})
}

func TestBookingService_DecideBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("requires administrator", func(t *testing.T) {
		env := newServiceEnv(t)
		env.addClassroom(t, "c1", "Lab 1")
		env.addBooking(t, "b1", "s1", "c1", "2024-06-13", "09:00", "10:00", booking.StatusPending)

		_, err := env.bookings.DecideBooking(ctx, DecideBookingParams{
			Principal: teacher("t1"),
			BookingID: "b1",
			Action:    "approve",
		})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("approves and notifies the owner", func(t *testing.T) {
		env := newServiceEnv(t)
		env.addClassroom(t, "c1", "Lab 1")
		env.addBooking(t, "b1", "s1", "c1", "2024-06-13", "09:00", "10:00", booking.StatusPending)

		decided, err := env.bookings.DecideBooking(ctx, DecideBookingParams{
			Principal: admin(),
			BookingID: "b1",
			Action:    "approve",
		})
		if err != nil {
			t.Fatalf("DecideBooking returned error: %v", err)
		}
		if decided.Status != booking.StatusApproved {
			t.Fatalf("expected approved, got %s", decided.Status)
		}

		notes, err := env.store.ListNotifications(ctx, "s1")
		if err != nil {
			t.Fatalf("ListNotifications failed: %v", err)
		}
		if len(notes) != 1 {
			t.Fatalf("expected one notification, got %d", len(notes))
		}
		want := "Your booking for Lab 1 on 13/06/2024 at 09:00 - 10:00 has been approved."
		if notes[0].Message != want {
			t.Fatalf("unexpected message %q", notes[0].Message)
		}
		if notes[0].Kind != booking.NotificationApproved {
			t.Fatalf("unexpected kind %s", notes[0].Kind)
		}
	})

	t.Run("reject requires a reason", func(t *testing.T) {
		env := newServiceEnv(t)
		env.addClassroom(t, "c1", "Lab 1")
		env.addBooking(t, "b1", "s1", "c1", "2024-06-13", "09:00", "10:00", booking.StatusPending)

		_, err := env.bookings.DecideBooking(ctx, DecideBookingParams{
			Principal: admin(),
			BookingID: "b1",
			Action:    "reject",
			Reason:    "   ",
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}

		stored, _ := env.store.GetBooking(ctx, "b1")
		if stored.Status != booking.StatusPending {
			t.Fatalf("expected booking to stay pending, got %s", stored.Status)
		}
	})

	t.Run("reject stores the trimmed reason", func(t *testing.T) {
		env := newServiceEnv(t)
		env.addClassroom(t, "c1", "Lab 1")
		env.addBooking(t, "b1", "s1", "c1", "2024-06-13", "09:00", "10:00", booking.StatusPending)

		decided, err := env.bookings.DecideBooking(ctx, DecideBookingParams{
			Principal: admin(),
			BookingID: "b1",
			Action:    "reject",
			Reason:    "  too noisy ",
		})
		if err != nil {
			t.Fatalf("DecideBooking returned error: %v", err)
		}
		if decided.RejectionReason == nil || *decided.RejectionReason != "too noisy" {
			t.Fatalf("unexpected rejection reason %v", decided.RejectionReason)
		}

		notes, _ := env.store.ListNotifications(ctx, "s1")
		if len(notes) != 1 || !strings.HasSuffix(notes[0].Message, "\nReason: too noisy") {
			t.Fatalf("unexpected notifications %+v", notes)
		}
	})

	t.Run("unknown action is a validation error", func(t *testing.T) {
		env := newServiceEnv(t)
		_, err := env.bookings.DecideBooking(ctx, DecideBookingParams{
			Principal: admin(),
			BookingID: "b1",
			Action:    "cancel",
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("missing booking is not found", func(t *testing.T) {
		env := newServiceEnv(t)
		_, err := env.bookings.DecideBooking(ctx, DecideBookingParams{
			Principal: admin(),
			BookingID: "missing",
			Action:    "approve",
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("only pending bookings can be decided", func(t *testing.T) {
		for _, status := range []booking.Status{booking.StatusApproved, booking.StatusRejected, booking.StatusCancelled} {
			for _, action := range []string{"approve", "reject"} {
				env := newServiceEnv(t)
				env.addClassroom(t, "c1", "Lab 1")
				env.addBooking(t, "b1", "s1", "c1", "2024-06-13", "09:00", "10:00", status)

				_, err := env.bookings.DecideBooking(ctx, DecideBookingParams{
					Principal: admin(),
					BookingID: "b1",
					Action:    action,
					Reason:    "late",
				})
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("%s on %s: expected ErrInvalidTransition, got %v", action, status, err)
				}
			}
		}
	})

	t.Run("approving an overlapping pending booking conflicts", func(t *testing.T) {
		env := newServiceEnv(t)
		env.addClassroom(t, "c1", "Lab 1")
		env.addBooking(t, "b1", "s1", "c1", "2024-06-13", "09:00", "10:00", booking.StatusPending)
		env.addBooking(t, "b2", "s2", "c1", "2024-06-13", "09:30", "10:30", booking.StatusPending)

		if _, err := env.bookings.DecideBooking(ctx, DecideBookingParams{Principal: admin(), BookingID: "b1", Action: "approve"}); err != nil {
			t.Fatalf("first approval failed: %v", err)
		}
		_, err := env.bookings.DecideBooking(ctx, DecideBookingParams{Principal: admin(), BookingID: "b2", Action: "approve"})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}

		stored, _ := env.store.GetBooking(ctx, "b2")
		if stored.Status != booking.StatusPending {
			t.Fatalf("expected conflicting booking to stay pending, got %s", stored.Status)
		}
	})

	t.Run("concurrent approvals of overlapping bookings approve one", func(t *testing.T) {
		env := newServiceEnv(t)
		env.addClassroom(t, "c1", "Lab 1")

		const n = 20
		ids := make([]string, 0, n)
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("b%d", i)
			start := fmt.Sprintf("09:%02d", i)
			env.addBooking(t, id, fmt.Sprintf("s%d", i), "c1", "2024-06-13", start, "11:00", booking.StatusPending)
			ids = append(ids, id)
		}

		var wg sync.WaitGroup
		for _, id := range ids {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := env.bookings.DecideBooking(ctx, DecideBookingParams{Principal: admin(), BookingID: id, Action: "approve"})
				if err != nil && !errors.Is(err, ErrConflict) {
					t.Errorf("DecideBooking(%s) returned unexpected error: %v", id, err)
				}
			}()
		}
		wg.Wait()

		approved := 0
		for _, id := range ids {
			stored, err := env.store.GetBooking(ctx, id)
			if err != nil {
				t.Fatalf("GetBooking(%s) failed: %v", id, err)
			}
			if stored.Status == booking.StatusApproved {
				approved++
			}
		}
		if approved != 1 {
			t.Fatalf("expected exactly one approved booking, got %d", approved)
		}
	})
}

func TestBookingService_CancelBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("only the owner may cancel", func(t *testing.T) {
		env := newServiceEnv(t)
		env.addClassroom(t, "c1", "Lab 1")
		env.addBooking(t, "b1", "s1", "c1", "2024-06-13", "09:00", "10:00", booking.StatusApproved)

		_, err := env.bookings.CancelBooking(ctx, student("s2"), "b1")
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("pending bookings cannot be cancelled", func(t *testing.T) {
		env := newServiceEnv(t)
		env.addClassroom(t, "c1", "Lab 1")
		env.addBooking(t, "b1", "s1", "c1", "2024-06-13", "09:00", "10:00", booking.StatusPending)

		_, err := env.bookings.CancelBooking(ctx, student("s1"), "b1")
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("cancels approved booking and keeps quota consumed", func(t *testing.T) {
		env := newServiceEnv(t)
		env.addClassroom(t, "c1", "Lab 1")
		env.addBooking(t, "b1", "s1", "c1", "2024-06-13", "09:00", "10:00", booking.StatusApproved)

		cancelled, err := env.bookings.CancelBooking(ctx, student("s1"), "b1")
		if err != nil {
			t.Fatalf("CancelBooking returned error: %v", err)
		}
		if cancelled.Status != booking.StatusCancelled || cancelled.Refunded {
			t.Fatalf("unexpected booking after cancel: %+v", cancelled)
		}

		notes, _ := env.store.ListNotifications(ctx, "s1")
		if len(notes) != 1 || notes[0].Kind != booking.NotificationCancelled {
			t.Fatalf("expected a cancellation notification, got %+v", notes)
		}

		_, err = env.bookings.CancelBooking(ctx, student("s1"), "b1")
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected second cancel to fail with ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("missing booking is not found", func(t *testing.T) {
		env := newServiceEnv(t)
		_, err := env.bookings.CancelBooking(ctx, student("s1"), "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestBookingService_RefundBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("requires administrator", func(t *testing.T) {
		env := newServiceEnv(t)
		env.addClassroom(t, "c1", "Lab 1")
		env.addBooking(t, "b1", "s1", "c1", "2024-06-13", "09:00", "10:00", booking.StatusCancelled)

		_, err := env.bookings.RefundBooking(ctx, student("s1"), "b1")
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("second refund fails and refunded booking leaves the quota", func(t *testing.T) {
		env := newServiceEnv(t)
		env.addClassroom(t, "c1", "Lab 1")
		env.addBooking(t, "b1", "s1", "c1", "2024-06-13", "09:00", "10:00", booking.StatusApproved)
		if _, err := env.bookings.CancelBooking(ctx, student("s1"), "b1"); err != nil {
			t.Fatalf("CancelBooking failed: %v", err)
		}

		refunded, err := env.bookings.RefundBooking(ctx, admin(), "b1")
		if err != nil {
			t.Fatalf("RefundBooking returned error: %v", err)
		}
		if !refunded.Refunded || refunded.Status != booking.StatusCancelled {
			t.Fatalf("unexpected booking after refund: %+v", refunded)
		}

		if _, err := env.bookings.RefundBooking(ctx, admin(), "b1"); !errors.Is(err, ErrAlreadyRefunded) {
			t.Fatalf("expected ErrAlreadyRefunded, got %v", err)
		}

		if _, err := env.bookings.CreateBooking(ctx, CreateBookingParams{
			Principal:    student("s1"),
			ClassroomRef: "c1",
			Date:         "2024-06-14",
			StartTime:    "09:00",
			EndTime:      "10:00",
		}); err != nil {
			t.Fatalf("expected refunded slot to be reusable, got %v", err)
		}
	})

	t.Run("missing booking is not found", func(t *testing.T) {
		env := newServiceEnv(t)
		_, err := env.bookings.RefundBooking(ctx, admin(), "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestBookingService_Listings(t *testing.T) {
	ctx := context.Background()
	env := newServiceEnv(t)
	env.addClassroom(t, "c1", "Lab 1")
	env.addClassroom(t, "c2", "Lab 2")
	env.addBooking(t, "b1", "s1", "c1", "2024-06-03", "09:00", "10:00", booking.StatusApproved)
	env.addBooking(t, "b2", "s1", "c2", "2024-06-13", "09:00", "10:00", booking.StatusPending)
	env.addBooking(t, "b3", "s2", "c1", "2024-06-14", "09:00", "10:00", booking.StatusPending)

	t.Run("my bookings are newest date first with classroom names", func(t *testing.T) {
		mine, err := env.bookings.ListMyBookings(ctx, student("s1"))
		if err != nil {
			t.Fatalf("ListMyBookings returned error: %v", err)
		}
		if len(mine) != 2 || mine[0].ID != "b2" || mine[1].ID != "b1" {
			t.Fatalf("unexpected order: %+v", mine)
		}
		if mine[0].ClassroomName != "Lab 2" {
			t.Fatalf("expected classroom name, got %q", mine[0].ClassroomName)
		}
	})

	t.Run("pending queue is admin only", func(t *testing.T) {
		if _, err := env.bookings.ListPendingBookings(ctx, student("s1")); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		pending, err := env.bookings.ListPendingBookings(ctx, admin())
		if err != nil {
			t.Fatalf("ListPendingBookings returned error: %v", err)
		}
		if len(pending) != 2 {
			t.Fatalf("expected two pending bookings, got %d", len(pending))
		}
	})

	t.Run("admin listing filters by classroom and status", func(t *testing.T) {
		items, err := env.bookings.ListBookings(ctx, ListBookingsParams{
			Principal:   admin(),
			Status:      "pending",
			ClassroomID: "c1",
		})
		if err != nil {
			t.Fatalf("ListBookings returned error: %v", err)
		}
		if len(items) != 1 || items[0].ID != "b3" {
			t.Fatalf("unexpected result: %+v", items)
		}
	})

	t.Run("admin listing validates filters", func(t *testing.T) {
		_, err := env.bookings.ListBookings(ctx, ListBookingsParams{
			Principal: admin(),
			Status:    "done",
			DateFrom:  "2024-06-10",
			DateTo:    "2024-06-01",
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || len(vErr.FieldErrors) != 2 {
			t.Fatalf("expected two field errors, got %v", err)
		}
	})

	t.Run("get booking hides other users' bookings", func(t *testing.T) {
		if _, err := env.bookings.GetBooking(ctx, student("s2"), "b1"); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		got, err := env.bookings.GetBooking(ctx, admin(), "b1")
		if err != nil || got.ClassroomName != "Lab 1" {
			t.Fatalf("unexpected result %+v, %v", got, err)
		}
	})
}
