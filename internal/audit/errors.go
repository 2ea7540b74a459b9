package audit

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Store.GetByID when no record has the given id.
// Verify translates it into a not-found result rather than surfacing it,
// because "the record does not exist" is an expected, reportable outcome of
// an integrity check.
var ErrNotFound = errors.New("audit record not found")

// ValidationError reports a Create call rejected before any store I/O.
//
// Field names the offending input field; Value carries the rejected value
// for actions and entity types outside their closed sets.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is a ValidationError.
// Uses errors.As to handle wrapped errors.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func newMissingFieldError(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "required field is missing"}
}
