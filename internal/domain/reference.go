package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID returns a new opaque entity identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidateReference checks that id is shaped like an entity identifier.
// Existence of the referenced entity is not checked.
func ValidateReference(field, id string) error {
	if id == "" {
		return NewValidationError(field, "is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return NewValidationError(field, "must be a valid uuid")
	}
	return nil
}

// ValidateReferences applies ValidateReference to every id.
func ValidateReferences(field string, ids []string) error {
	for i, id := range ids {
		if err := ValidateReference(fmt.Sprintf("%s[%d]", field, i), id); err != nil {
			return err
		}
	}
	return nil
}

// NormalizeReferences drops duplicates keeping the first occurrence and
// never returns nil.
func NormalizeReferences(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
