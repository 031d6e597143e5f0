package testfixtures

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/example/classroom-booking/internal/booking"
	"github.com/example/classroom-booking/internal/persistence"
)

// RunStoreContract exercises the behaviour every persistence backend must share.
// newStore is called once per subtest and must return an empty store.
func RunStoreContract(t *testing.T, newStore func(t *testing.T) persistence.Store) {
	t.Helper()

	t.Run("classroom lifecycle", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		classroom := NewClassroom(
			WithClassroomID("room-a"),
			WithClassroomName("Lab A"),
			WithClassroomEquipment("Projector", "Whiteboard"),
		)
		if err := store.CreateClassroom(ctx, classroom); err != nil {
			t.Fatalf("CreateClassroom failed: %v", err)
		}
		if err := store.CreateClassroom(ctx, classroom); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}

		fetched, err := store.GetClassroom(ctx, "room-a")
		if err != nil {
			t.Fatalf("GetClassroom failed: %v", err)
		}
		if fetched.Name != "Lab A" || !slices.Equal(fetched.Equipment, []string{"Projector", "Whiteboard"}) {
			t.Fatalf("unexpected classroom %+v", fetched)
		}
		if !fetched.CreatedAt.Equal(classroom.CreatedAt) || fetched.Deleted() {
			t.Fatalf("unexpected timestamps %+v", fetched)
		}

		byName, err := store.FindClassroomByName(ctx, "Lab A")
		if err != nil || byName.ID != "room-a" {
			t.Fatalf("FindClassroomByName = %+v, %v", byName, err)
		}
		if _, err := store.FindClassroomByName(ctx, "lab a"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected exact name match, got %v", err)
		}

		deletedAt := ReferenceTime()
		if err := store.DeleteClassroom(ctx, "room-a", deletedAt); err != nil {
			t.Fatalf("DeleteClassroom failed: %v", err)
		}
		if err := store.DeleteClassroom(ctx, "room-a", deletedAt); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}

		fetched, err = store.GetClassroom(ctx, "room-a")
		if err != nil {
			t.Fatalf("GetClassroom after delete failed: %v", err)
		}
		if !fetched.Deleted() || !fetched.DeletedAt.Equal(deletedAt) {
			t.Fatalf("expected soft deleted classroom, got %+v", fetched)
		}
		if _, err := store.FindClassroomByName(ctx, "Lab A"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("deleted classroom should not resolve by name, got %v", err)
		}
		if _, err := store.GetClassroom(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("classroom filters and levels", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		rooms := []booking.Classroom{
			NewClassroom(WithClassroomID("c1"), WithClassroomName("beta"), WithClassroomLevel(2), WithClassroomCapacity(40),
				WithClassroomLocation("North Wing"), WithClassroomEquipment("Projector", "Speakers")),
			NewClassroom(WithClassroomID("c2"), WithClassroomName("Alpha"), WithClassroomLevel(1), WithClassroomCapacity(10),
				WithClassroomLocation("South Wing"), WithClassroomEquipment()),
			NewClassroom(WithClassroomID("c3"), WithClassroomName("Gamma"), WithClassroomLevel(3), WithClassroomCapacity(60),
				WithClassroomLocation("north annex"), WithClassroomEquipment("projector"),
				WithClassroomDeletedAt(ReferenceTime())),
		}
		for _, room := range rooms {
			if err := store.CreateClassroom(ctx, room); err != nil {
				t.Fatalf("CreateClassroom(%s) failed: %v", room.ID, err)
			}
		}

		ids := func(filter persistence.ClassroomFilter) []string {
			t.Helper()
			listed, err := store.ListClassrooms(ctx, filter)
			if err != nil {
				t.Fatalf("ListClassrooms failed: %v", err)
			}
			out := make([]string, 0, len(listed))
			for _, c := range listed {
				out = append(out, c.ID)
			}
			return out
		}

		level := 2
		capacity := 20
		cases := []struct {
			name   string
			filter persistence.ClassroomFilter
			want   []string
		}{
			{name: "all live sorted by name", filter: persistence.ClassroomFilter{}, want: []string{"c2", "c1"}},
			{name: "include deleted", filter: persistence.ClassroomFilter{IncludeDeleted: true}, want: []string{"c2", "c1", "c3"}},
			{name: "level", filter: persistence.ClassroomFilter{Level: &level}, want: []string{"c1"}},
			{name: "location substring", filter: persistence.ClassroomFilter{Location: "WING"}, want: []string{"c2", "c1"}},
			{name: "min capacity", filter: persistence.ClassroomFilter{MinCapacity: &capacity}, want: []string{"c1"}},
			{name: "equipment", filter: persistence.ClassroomFilter{Equipment: []string{"speakers", "PROJECTOR"}}, want: []string{"c1"}},
			{name: "missing equipment", filter: persistence.ClassroomFilter{Equipment: []string{"Piano"}}, want: []string{}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if got := ids(tc.filter); !slices.Equal(got, tc.want) {
					t.Fatalf("got %v want %v", got, tc.want)
				}
			})
		}

		levels, err := store.ListLevels(ctx)
		if err != nil {
			t.Fatalf("ListLevels failed: %v", err)
		}
		if !slices.Equal(levels, []int{1, 2}) {
			t.Fatalf("unexpected levels %v", levels)
		}
	})

	t.Run("booking lifecycle and ordering", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		for _, id := range []string{"c1", "c2"} {
			if err := store.CreateClassroom(ctx, NewClassroom(WithClassroomID(id))); err != nil {
				t.Fatalf("CreateClassroom(%s) failed: %v", id, err)
			}
		}

		base := ReferenceTime()
		day := ReferenceDate()
		bookings := []booking.Booking{
			NewBooking(WithBookingID("b1"), WithBookingClassroom("c1"), WithBookingUser("u1"),
				WithBookingDate(day), WithBookingWindow("09:00", "10:00"), WithBookingTimestamps(base.Add(3*time.Minute), base.Add(3*time.Minute))),
			NewBooking(WithBookingID("b2"), WithBookingClassroom("c1"), WithBookingUser("u2"),
				WithBookingDate(day.AddDays(1)), WithBookingWindow("08:00", "09:00"), WithBookingStatus(booking.StatusApproved),
				WithBookingTimestamps(base.Add(time.Minute), base.Add(time.Minute))),
			NewBooking(WithBookingID("b3"), WithBookingClassroom("c2"), WithBookingUser("u1"),
				WithBookingDate(day), WithBookingWindow("13:00", "14:00"), WithBookingRejected("busy"),
				WithBookingTimestamps(base.Add(2*time.Minute), base.Add(2*time.Minute))),
		}
		for _, b := range bookings {
			if err := store.CreateBooking(ctx, b); err != nil {
				t.Fatalf("CreateBooking(%s) failed: %v", b.ID, err)
			}
		}
		if err := store.CreateBooking(ctx, bookings[0]); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
		orphan := NewBooking(WithBookingID("b9"), WithBookingClassroom("missing"))
		if err := store.CreateBooking(ctx, orphan); !errors.Is(err, persistence.ErrConstraintViolation) {
			t.Fatalf("expected ErrConstraintViolation for unknown classroom, got %v", err)
		}

		fetched, err := store.GetBooking(ctx, "b3")
		if err != nil {
			t.Fatalf("GetBooking failed: %v", err)
		}
		if fetched.Status != booking.StatusRejected || fetched.RejectionReason == nil || *fetched.RejectionReason != "busy" {
			t.Fatalf("unexpected booking %+v", fetched)
		}
		if fetched.Date != day || fetched.Window != MustWindow("13:00", "14:00") {
			t.Fatalf("unexpected date or window %+v", fetched)
		}

		updated := bookings[1]
		updated.Status = booking.StatusCancelled
		updated.Refunded = true
		updated.UpdatedAt = base.Add(time.Hour)
		if err := store.UpdateBooking(ctx, updated); err != nil {
			t.Fatalf("UpdateBooking failed: %v", err)
		}
		fetched, err = store.GetBooking(ctx, "b2")
		if err != nil {
			t.Fatalf("GetBooking failed: %v", err)
		}
		if fetched.Status != booking.StatusCancelled || !fetched.Refunded || !fetched.UpdatedAt.Equal(base.Add(time.Hour)) {
			t.Fatalf("update not persisted: %+v", fetched)
		}
		missing := NewBooking(WithBookingID("nope"))
		if err := store.UpdateBooking(ctx, missing); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}

		list := func(filter persistence.BookingFilter, order persistence.BookingOrder) []string {
			t.Helper()
			listed, err := store.ListBookings(ctx, filter, order)
			if err != nil {
				t.Fatalf("ListBookings failed: %v", err)
			}
			out := make([]string, 0, len(listed))
			for _, b := range listed {
				out = append(out, b.ID)
			}
			return out
		}

		from, to := day, day
		cases := []struct {
			name   string
			filter persistence.BookingFilter
			order  persistence.BookingOrder
			want   []string
		}{
			{name: "created order", order: persistence.OrderByCreated, want: []string{"b2", "b3", "b1"}},
			{name: "date descending", order: persistence.OrderByDateDesc, want: []string{"b2", "b3", "b1"}},
			{name: "by user", filter: persistence.BookingFilter{UserID: "u1"}, order: persistence.OrderByDateDesc, want: []string{"b3", "b1"}},
			{name: "by classroom", filter: persistence.BookingFilter{ClassroomID: "c1"}, want: []string{"b2", "b1"}},
			{name: "by statuses", filter: persistence.BookingFilter{Statuses: []booking.Status{booking.StatusPending, booking.StatusRejected}}, want: []string{"b3", "b1"}},
			{name: "by date range", filter: persistence.BookingFilter{DateFrom: &from, DateTo: &to}, want: []string{"b3", "b1"}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if got := list(tc.filter, tc.order); !slices.Equal(got, tc.want) {
					t.Fatalf("got %v want %v", got, tc.want)
				}
			})
		}
	})

	t.Run("notifications and dedup keys", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		base := ReferenceTime()
		first := NewNotification(WithNotificationID("n1"), WithNotificationUser("u1"), WithNotificationCreatedAt(base),
			WithNotificationKind(booking.NotificationReminder), WithNotificationBooking("b1"), WithNotificationDedupKey("reminder:b1"))
		second := NewNotification(WithNotificationID("n2"), WithNotificationUser("u1"), WithNotificationCreatedAt(base.Add(time.Minute)))
		other := NewNotification(WithNotificationID("n3"), WithNotificationUser("u2"), WithNotificationCreatedAt(base))

		for _, n := range []booking.Notification{first, second, other} {
			if err := store.CreateNotification(ctx, n); err != nil {
				t.Fatalf("CreateNotification(%s) failed: %v", n.ID, err)
			}
		}

		listed, err := store.ListNotifications(ctx, "u1")
		if err != nil {
			t.Fatalf("ListNotifications failed: %v", err)
		}
		if len(listed) != 2 || listed[0].ID != "n2" || listed[1].ID != "n1" {
			t.Fatalf("expected newest first, got %+v", listed)
		}
		if listed[1].BookingID == nil || *listed[1].BookingID != "b1" || listed[1].Kind != booking.NotificationReminder {
			t.Fatalf("unexpected notification %+v", listed[1])
		}

		fetched, err := store.GetNotification(ctx, "n3")
		if err != nil || fetched.UserID != "u2" {
			t.Fatalf("GetNotification = %+v, %v", fetched, err)
		}

		dup := NewNotification(WithNotificationID("n4"), WithNotificationUser("u1"), WithNotificationDedupKey("reminder:b1"))
		if err := store.CreateNotification(ctx, dup); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate for reused dedup key, got %v", err)
		}

		if err := store.DeleteNotification(ctx, "n1"); err != nil {
			t.Fatalf("DeleteNotification failed: %v", err)
		}
		if err := store.DeleteNotification(ctx, "n1"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := store.GetNotification(ctx, "n1"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}

		// The key stays reserved after its notification is deleted.
		if err := store.CreateNotification(ctx, dup); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected dedup key to survive deletion, got %v", err)
		}
	})
}
