// Package optional provides a tri-state field for partial updates.
//
// A Field distinguishes three states that a plain pointer cannot:
// absent (the key was not sent), null (the key was sent as JSON null)
// and present with a value.
package optional

import (
	"bytes"
	"encoding/json"
)

var jsonNull = []byte("null")

// Field holds an optionally supplied value.
type Field[T any] struct {
	value T
	set   bool
	null  bool
}

// Of returns a field set to v.
func Of[T any](v T) Field[T] {
	return Field[T]{value: v, set: true}
}

// Null returns a field explicitly set to null.
func Null[T any]() Field[T] {
	return Field[T]{set: true, null: true}
}

// IsSet reports whether the field was supplied, including as null.
func (f Field[T]) IsSet() bool {
	return f.set
}

// IsNull reports whether the field was supplied as null.
func (f Field[T]) IsNull() bool {
	return f.set && f.null
}

// Get returns the value and whether a non-null value was supplied.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.set && !f.null
}

// Value returns the value, or the zero value when absent or null.
func (f Field[T]) Value() T {
	return f.value
}

// Ptr returns a pointer to a copy of the value, or nil when absent or null.
func (f Field[T]) Ptr() *T {
	if !f.set || f.null {
		return nil
	}
	v := f.value
	return &v
}

// UnmarshalJSON is only invoked by encoding/json when the key is present,
// so reaching it always marks the field as set.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.set = true
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		var zero T
		f.value = zero
		f.null = true
		return nil
	}
	f.null = false
	return json.Unmarshal(data, &f.value)
}

// MarshalJSON encodes absent and null fields as null.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.set || f.null {
		return jsonNull, nil
	}
	return json.Marshal(f.value)
}
