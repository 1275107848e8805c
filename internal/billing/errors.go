package billing

import (
	"errors"
	"fmt"
)

// ValidationError signals invalid input to a pure computation.
// The core fails fast and never logs; callers translate Field/Code
// into a localized message.
type ValidationError struct {
	Field string
	Code  string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Code) }

func invalid(field, code string) *ValidationError { return &ValidationError{Field: field, Code: code} }

// IsValidation reports whether err (or something it wraps) is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
