package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxNameLength caps names and titles.
const MaxNameLength = 255

// ValidateText rejects blank values and, when limit is positive, values
// longer than limit characters. Create and update paths share it.
func ValidateText(field, value string, limit int) error {
	if strings.TrimSpace(value) == "" {
		return NewValidationError(field, "is required")
	}
	if limit > 0 && utf8.RuneCountInString(value) > limit {
		return NewValidationError(field, fmt.Sprintf("must be at most %d characters", limit))
	}
	return nil
}
