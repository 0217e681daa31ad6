package domain

import (
	"errors"
	"fmt"
)

// Error classes shared by all modules. Module-level sentinels wrap one of
// these so transports can map failures without knowing every module.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("already exists")
)

// ValidationError describes a malformed or missing input field.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a validation error for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap makes errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
