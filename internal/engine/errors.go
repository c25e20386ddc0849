package engine

import (
	"errors"
	"fmt"
)

type errorCode string

const (
	ErrInternal   errorCode = "internal"
	ErrInvalid    errorCode = "invalid"
	ErrNotPending errorCode = "not_pending"
	ErrStale      errorCode = "stale"
	ErrClosed     errorCode = "closed"
)

// Error is an engine error carrying a machine-readable code.
type Error struct {
	// Code is a machine-readable error code.
	Code errorCode

	// Description is a human-readable description of the error.
	Description string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return "alarmclock: " + string(e.Code) + ": " + e.Description + ": " + e.Err.Error()
	}
	return "alarmclock: " + string(e.Code) + ": " + e.Description
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Errorf(code errorCode, format string, args ...any) error {
	return &Error{Code: code, Description: fmt.Sprintf(format, args...)}
}

func wrapError(code errorCode, err error, description string) error {
	return &Error{Code: code, Description: description, Err: err}
}

// ErrorCode returns the error code associated with err, or ErrInternal if err
// isn't an engine error.
func ErrorCode(err error) errorCode {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}
	return ErrInternal
}

// ErrorDescription returns a human-readable description of the error, or
// "internal error" if err isn't an engine error.
func ErrorDescription(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Description != "" {
		return e.Description
	}
	return "internal error"
}
