package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business-level failures shared across layers.
// Adapters translate their own failures into these so the HTTP edge can
// classify them with errors.Is.
var (
	// ErrNotFound means the requested file, blob or manifest does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidVersion means a version string is not a valid semantic version.
	ErrInvalidVersion = errors.New("invalid semantic version")

	// ErrVersionDowngrade means a manifest write carried a version that is
	// not strictly greater than the stored one.
	ErrVersionDowngrade = errors.New("version is not newer than the current manifest")

	// ErrStorage wraps any failure of the underlying stores.
	ErrStorage = errors.New("storage failure")

	// ErrUnauthorized means the caller presented no valid credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidInput means a request field failed validation.
	ErrInvalidInput = errors.New("invalid input")
)

// FieldError reports which request field failed validation.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// NewFieldError builds a FieldError for the given field.
func NewFieldError(field, value string, err error) *FieldError {
	return &FieldError{Field: field, Value: value, Err: err}
}

// StorageError marks err as a storage failure while keeping it inspectable.
// A nil err stays nil, and errors that already carry a domain meaning
// (ErrNotFound, ErrStorage) are returned unchanged.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrStorage) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
