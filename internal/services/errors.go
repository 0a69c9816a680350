package services

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Validation error"
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Message: message, Fields: map[string]string{field: message}}
}

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

// StoreError is a database failure surfaced to callers as-is.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

// storeErr classifies err from a repository call. Typed service errors pass
// through, missing rows become notFound, anything else is wrapped.
func storeErr(op string, err error, notFound string) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf
	}
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &NotFoundError{Message: notFound}
	}
	return &StoreError{Op: op, Err: err}
}
