package task

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the stable domain vocabulary. The store raises the
// most specific error it can detect; the service adds business-rule errors;
// the API layer maps each kind to exactly one HTTP status.
var (
	ErrNotFound      = errors.New("task not found")
	ErrInvalidID     = errors.New("invalid task id")
	ErrEmptyTitle    = errors.New("title must not be empty")
	ErrInvalidStatus = errors.New("status must be one of: open, done")
	ErrNoFields      = errors.New("at least one field must be provided")
)

// ValidationError carries field-level detail for out-of-range input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// IsValidationError reports whether err belongs to the input/validation class
// (as opposed to not-found or internal failures).
func IsValidationError(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	return errors.Is(err, ErrEmptyTitle) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrNoFields)
}
