package service

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error a service returns to its caller either is one of
// these or unwraps to one; anything else is an internal failure.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
)

// OpError is an operation failure with a stable Kind for callers and tests.
// Msg is shown to API clients, so it must not carry secrets.
type OpError struct {
	Op   string
	Kind error
	Msg  string
}

func (e OpError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Msg)
}

func (e OpError) Unwrap() error { return e.Kind }

// FieldError is a single invalid input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists the invalid fields of one operation.
type ValidationError struct {
	Op     string
	Fields []FieldError
}

func (e ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrValidation, strings.Join(parts, "; "))
}

func (e ValidationError) Unwrap() error { return ErrValidation }

// ConflictError reports a uniqueness conflict on a logical field.
type ConflictError struct {
	Op      string
	Field   string
	Message string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrConflict, e.Field)
}

func (e ConflictError) Unwrap() error { return ErrConflict }

func invalid(op, field, message string) error {
	return ValidationError{Op: op, Fields: []FieldError{{Field: field, Message: message}}}
}
