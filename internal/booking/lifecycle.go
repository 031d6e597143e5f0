package booking

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTransition is returned when an action is not allowed from the current status.
var ErrInvalidTransition = errors.New("booking: invalid transition")

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// ParseStatus validates a status name.
func ParseStatus(value string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(value))); s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return s, nil
	default:
		return "", fmt.Errorf("unknown status: %s", value)
	}
}

// Action is a request to move a booking to another status.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionCancel  Action = "cancel"
)

// ParseDecision validates an administrator decision. Only approve and reject qualify.
func ParseDecision(value string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(value))); a {
	case ActionApprove, ActionReject:
		return a, nil
	default:
		return "", fmt.Errorf("unknown action: %s", value)
	}
}

var transitions = map[Status]map[Action]Status{
	StatusPending: {
		ActionApprove: StatusApproved,
		ActionReject:  StatusRejected,
	},
	StatusApproved: {
		ActionCancel: StatusCancelled,
	},
	StatusRejected:  {},
	StatusCancelled: {},
}

// Transition returns the status reached by applying action to from.
func Transition(from Status, action Action) (Status, error) {
	to, ok := transitions[from][action]
	if !ok {
		return from, fmt.Errorf("%w: cannot %s a %s booking", ErrInvalidTransition, action, from)
	}
	return to, nil
}

// CanTransition reports whether action is allowed from status.
func CanTransition(from Status, action Action) bool {
	_, ok := transitions[from][action]
	return ok
}
