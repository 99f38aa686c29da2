package iqamah

import (
	"errors"
	"fmt"
)

// ErrInvalidRange is wrapped by every ValidationError.
var ErrInvalidRange = errors.New("invalid range")

// ValidationError rejects a range before any request is built.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRange }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
