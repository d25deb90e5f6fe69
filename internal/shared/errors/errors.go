package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies an AppError for the HTTP layer.
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeInternal     ErrorType = "internal"
	// ErrorTypeExternal is a failure of an OAuth provider or other upstream.
	ErrorTypeExternal ErrorType = "external"
	// ErrorTypeUnavailable means the session host is at capacity.
	ErrorTypeUnavailable ErrorType = "unavailable"
	ErrorTypeRateLimited ErrorType = "rate_limited"
)

// AppError carries a client-safe message and, optionally, the cause.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newError(t ErrorType, message string) error {
	return &AppError{Type: t, Message: message}
}

func NotFoundf(format string, args ...any) error {
	return newError(ErrorTypeNotFound, fmt.Sprintf(format, args...))
}

func Validation(message string) error { return newError(ErrorTypeValidation, message) }

func Validationf(format string, args ...any) error {
	return newError(ErrorTypeValidation, fmt.Sprintf(format, args...))
}

func Conflictf(format string, args ...any) error {
	return newError(ErrorTypeConflict, fmt.Sprintf(format, args...))
}

func Unauthorized(message string) error { return newError(ErrorTypeUnauthorized, message) }

func Forbidden(message string) error { return newError(ErrorTypeForbidden, message) }

// Unavailablef reports a capacity limit the caller may retry later.
func Unavailablef(format string, args ...any) error {
	return newError(ErrorTypeUnavailable, fmt.Sprintf(format, args...))
}

func RateLimited(message string) error { return newError(ErrorTypeRateLimited, message) }

func External(message string) error { return newError(ErrorTypeExternal, message) }

func WrapInternal(message string, err error) error {
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// GetType returns ErrorTypeInternal for anything that is not an AppError.
func GetType(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}
