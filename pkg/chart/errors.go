package chart

import (
	"errors"
	"fmt"
)

// ErrNotMounted is returned by mount implementations when a slot no longer exists.
var ErrNotMounted = errors.New("chart container is not mounted")

// ErrMissingField is wrapped by every MissingFieldError.
var ErrMissingField = errors.New("missing field")

// NetworkError reports a failed request or a non-success response.
type NetworkError struct {
	URL    string
	Status int // 0 when no response was received
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// DecodeError reports a response body that does not have the expected shape.
type DecodeError struct {
	URL    string
	Format Format
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response from %s: %v", e.Format, e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// MissingFieldError reports a field a renderer needs that is not in the result.
type MissingFieldError struct {
	Library Library
	Field   string
	Reason  string
}

func (e *MissingFieldError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s chart: field %q: %s", e.Library, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s chart: missing field %q", e.Library, e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}

// NewMissingFieldError creates a MissingFieldError.
func NewMissingFieldError(lib Library, field, reason string) *MissingFieldError {
	return &MissingFieldError{Library: lib, Field: field, Reason: reason}
}
