package services

import "errors"

var (
	// ErrNotFound means a submission/creator reference went stale; the caller
	// must re-resolve its pointer, nothing is retried automatically.
	ErrNotFound = errors.New("record not found")

	// ErrConflict means a concurrent mutation won the race (status CAS or
	// balance update matched zero rows). The losing call is rejected, never
	// silently applied on top.
	ErrConflict = errors.New("conflicting concurrent update")
)

// ValidationError is surfaced synchronously to the caller and never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func Validationf(msg string) error {
	return &ValidationError{Message: msg}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
