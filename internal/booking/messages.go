package booking

import (
	"fmt"
	"time"
)

// ReminderLookahead is how far ahead of a booking's start a reminder is sent.
const ReminderLookahead = 60 * time.Minute

// ApprovalMessage tells the owner their booking was approved.
func ApprovalMessage(classroomName string, date Date, window Window) string {
	return fmt.Sprintf("Your booking for %s on %s at %s has been approved.", classroomName, date.Display(), window)
}

// RejectionMessage tells the owner their booking was rejected and why.
func RejectionMessage(classroomName string, date Date, window Window, reason string) string {
	return fmt.Sprintf("Your booking for %s on %s at %s was rejected. \nReason: %s", classroomName, date.Display(), window, reason)
}

// CancellationMessage confirms a cancelled booking to its owner.
func CancellationMessage(classroomName string, date Date, window Window) string {
	return fmt.Sprintf("Your booking for %s on %s at %s has been cancelled.", classroomName, date.Display(), window)
}

// ReminderMessage announces a booking that starts soon.
func ReminderMessage(classroomName string, start TimeOfDay) string {
	return fmt.Sprintf("Reminder: You have a booking for %s at %s today.", classroomName, start)
}

// ReminderDedupKey identifies the single reminder a booking may receive.
func ReminderDedupKey(bookingID string) string {
	return "reminder:" + bookingID
}
