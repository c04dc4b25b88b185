package core

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrConfig         ErrorCode = "LAG_CONFIG"
	ErrConnect        ErrorCode = "LAG_CONNECT"
	ErrMissingTable   ErrorCode = "LAG_MISSING_TABLE"
	ErrInvariant      ErrorCode = "LAG_INVARIANT"
	ErrStore          ErrorCode = "LAG_STORE"
	ErrSupervisorLost ErrorCode = "LAG_SUPERVISOR_LOST"
	ErrUnavailable    ErrorCode = "LAG_UNAVAILABLE"
	ErrNotFound       ErrorCode = "LAG_NOT_FOUND"
	ErrInternal       ErrorCode = "LAG_INTERNAL"
)

// HTTPStatus returns the HTTP status code for this error code.
func (e ErrorCode) HTTPStatus() int {
	switch e {
	case ErrNotFound:
		return 404
	case ErrUnavailable, ErrConnect, ErrStore, ErrSupervisorLost:
		return 503
	case ErrConfig:
		return 400
	default:
		return 500
	}
}

// AppError is a recoverable error. The worker logs it and keeps running.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAppError(code ErrorCode, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// FatalError ends the process. The worker never retries after one; the
// supervisor restarts it and startup validation runs again.
type FatalError struct {
	Code     ErrorCode
	Message  string
	Hint     string
	SQLState string
	Err      error
}

func (e *FatalError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.SQLState != "" {
		msg += " (SQLSTATE " + e.SQLState + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FatalError) Unwrap() error { return e.Err }

// WithHint attaches an operator-facing corrective hint.
func (e *FatalError) WithHint(hint string) *FatalError {
	e.Hint = hint
	return e
}

func Fatal(code ErrorCode, msg string, err error) *FatalError {
	return &FatalError{Code: code, Message: msg, Err: err}
}

// AsFatal reports whether err carries a FatalError.
func AsFatal(err error) (*FatalError, bool) {
	var fe *FatalError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// ExitCode is 0 for a graceful stop and 1 for anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
