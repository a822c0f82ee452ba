package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")

	// ErrContextUnavailable means a store read failed before any write
	// happened; the request is fatal but no partial state exists.
	ErrContextUnavailable = errors.New("context unavailable")

	// ErrPersistence means a store write failed after partial progress.
	// The user message, once persisted, is never rolled back.
	ErrPersistence = errors.New("persistence error")

	// ErrProviderExhausted means every configured provider failed or timed
	// out. It stays inside the gateway and never reaches a caller.
	ErrProviderExhausted = errors.New("all providers exhausted")

	// ErrSchemaViolation means a provider returned a payload that does not
	// satisfy the operation's result schema. Treated as a provider failure.
	ErrSchemaViolation = errors.New("schema violation")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s — %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}
