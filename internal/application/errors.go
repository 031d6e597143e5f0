package application

import "errors"

var (
	// ErrForbidden is returned when the acting principal lacks permission for an operation.
	ErrForbidden = errors.New("application: forbidden")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrConflict is returned when an approved booking already occupies the requested window.
	ErrConflict = errors.New("application: classroom already booked for the selected time")
	// ErrInvalidTransition is returned when a booking is not in a state that allows the action.
	ErrInvalidTransition = errors.New("application: invalid status transition")
	// ErrAlreadyRefunded is returned when a booking has already been refunded.
	ErrAlreadyRefunded = errors.New("application: booking already refunded")
	// ErrQuotaExceeded is matched by every QuotaError.
	ErrQuotaExceeded = errors.New("application: quota exceeded")
)

// QuotaError reports which role limit rejected a booking request.
type QuotaError struct {
	Reason string
}

// Error implements the error interface.
func (e *QuotaError) Error() string {
	if e == nil || e.Reason == "" {
		return ErrQuotaExceeded.Error()
	}
	return e.Reason
}

// Unwrap lets errors.Is match ErrQuotaExceeded.
func (e *QuotaError) Unwrap() error {
	return ErrQuotaExceeded
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

func newValidationError(field, message string) *ValidationError {
	vErr := &ValidationError{}
	vErr.add(field, message)
	return vErr
}
