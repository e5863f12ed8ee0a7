// Package models contains data structures used throughout the engine
package models

import (
	"errors"
	"fmt"
)

// ValidationError marks malformed or out-of-range input. It is rejected
// before any computation and never silently corrected. All other degraded
// conditions (missing glucose, unknown IOB, absent model) surface as warning
// strings in results instead of errors.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for a named input field
func NewValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
