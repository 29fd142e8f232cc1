package status

import (
	"errors"
	"fmt"
)

var (
	// ErrParse matches every *ParseError.
	ErrParse = errors.New("parse error")
	// ErrInvalidValue matches every *InvalidValueError.
	ErrInvalidValue = errors.New("invalid value")
)

// ParseError reports a wire value that is not a well-formed number of the
// expected width.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("field %s: cannot parse %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// InvalidValueError reports a wire value that is well-formed but outside the
// domain the charger documents for that field.
type InvalidValueError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidValueError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("field %s: invalid value %q", e.Field, e.Value)
	}
	return fmt.Sprintf("field %s: invalid value %q: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidValueError) Is(target error) bool { return target == ErrInvalidValue }

func invalid(field, value, reason string) error {
	return &InvalidValueError{Field: field, Value: value, Reason: reason}
}
