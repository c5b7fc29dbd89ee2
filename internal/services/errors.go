package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrRateLimited        = errors.New("too many failed attempts")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConfiguration      = errors.New("service misconfigured")
)

// ValidationError reports a rejected input field. Handlers map it to a 422.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
