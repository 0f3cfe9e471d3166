// Package apperror defines the domain error taxonomy shared by every layer.
//
// Lower layers return an *AppError (or wrap one with fmt.Errorf("...: %w")).
// Only the HTTP handler package decides which status code a sentinel maps to.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrModelInvocation = errors.New("model invocation failed")
)

// Violation names one offending request field.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type AppError struct {
	Err        error       // sentinel, matched with errors.Is
	Message    string      // Human-readable error message
	Field      string      // Optional: field causing the error
	Violations []Violation // Optional: every offending field for validation errors
	cause      error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the sentinel and, when present, the underlying cause.
func (e *AppError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Err, e.cause}
	}
	return []error{e.Err}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Message:    message,
		Field:      field,
		Violations: []Violation{{Field: field, Message: message}},
	}
}

// Invalid bundles every violation found in one request. Field is set to the
// first offender so single-field callers keep working.
func Invalid(violations []Violation) *AppError {
	parts := make([]string, 0, len(violations))
	for _, v := range violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	e := &AppError{
		Err:        ErrValidation,
		Message:    "invalid request: " + strings.Join(parts, "; "),
		Violations: violations,
	}
	if len(violations) > 0 {
		e.Field = violations[0].Field
	}
	return e
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// DuplicateEmail is returned by signup when the address is already registered.
func DuplicateEmail() *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: "Email already registered",
		Field:   "email",
	}
}

// UserNotFound is the account directory's answer for an unknown user id.
func UserNotFound() *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: "User not found",
	}
}

// InvalidCredentials deliberately carries the same message for an unknown
// email and for a wrong password.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: "Invalid email or password",
	}
}

// ModelInvocation wraps a failure of the underlying regression model.
func ModelInvocation(cause error) *AppError {
	return &AppError{
		Err:     ErrModelInvocation,
		Message: "prediction model failed",
		cause:   cause,
	}
}
