package errors

import (
	"errors"
	"fmt"
)

// Standard error codes shared across the library. Packages define their own
// domain-specific codes on top of these in their errors.go files.
const (
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeNotFound        = "NOT_FOUND"
	CodeUnavailable     = "UNAVAILABLE"
	CodeInternal        = "INTERNAL"
)

// AppError is the standard error type carried across package boundaries.
// It pairs a stable machine-readable code with a human-readable message and
// an optional underlying cause.
type AppError struct {
	// Code is a stable identifier such as INVALID_ARGUMENT or MQTT_NOT_CONNECTED.
	Code string

	// Message describes the failure for humans.
	Message string

	// Err is the wrapped cause, if any.
	Err error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target carries the same code. Two AppErrors match when
// their codes are equal, regardless of message or cause.
func (e *AppError) Is(target error) bool {
	var app *AppError
	if errors.As(target, &app) {
		return e.Code == app.Code
	}
	return false
}

// New creates an AppError with the given code, message and optional cause.
func New(code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Wrap wraps err with an INTERNAL code and a contextual message.
func Wrap(err error, message string) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Err: err}
}

// Code extracts the code from err, or CodeInternal if err is not an AppError.
func Code(err error) string {
	var app *AppError
	if errors.As(err, &app) {
		return app.Code
	}
	return CodeInternal
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code string) bool {
	var app *AppError
	if errors.As(err, &app) {
		return app.Code == code
	}
	return false
}
