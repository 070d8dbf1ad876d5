package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConfig       = errors.New("configuration error")
	ErrUpstream     = errors.New("upstream inference error")
	ErrParse        = errors.New("malformed inference output")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrDuplicate    = errors.New("duplicate key")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ConfigError reports a missing or unusable setting.
func ConfigError(message string) error {
	return NewAppError("CONFIG_ERROR", message, ErrConfig)
}

// UpstreamError wraps a failed inference call.
func UpstreamError(op string, cause error) error {
	return NewAppError("UPSTREAM_ERROR", op, errors.Join(ErrUpstream, cause))
}

// ParseError wraps model output that could not be decoded.
func ParseError(message string, cause error) error {
	if cause == nil {
		return NewAppError("PARSE_ERROR", message, ErrParse)
	}
	return NewAppError("PARSE_ERROR", message, errors.Join(ErrParse, cause))
}

func NotFoundError(message string) error {
	return NewAppError("NOT_FOUND", message, ErrNotFound)
}

func InvalidInputError(message string) error {
	return NewAppError("INVALID_INPUT", message, ErrInvalidInput)
}

func InvalidInputErrorf(format string, args ...any) error {
	return InvalidInputError(fmt.Sprintf(format, args...))
}
