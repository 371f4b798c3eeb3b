package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
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
	ErrInternal     = errors.New("internal error")
)

// Text extraction failure taxonomy. Every extraction failure wraps exactly one of these.
var (
	ErrFileNotFound     = errors.New("file not found")
	ErrUnsupportedType  = errors.New("unsupported file type")
	ErrToolInvocation   = errors.New("tool invocation failed")
	ErrToolNotAvailable = errors.New("tool not available")
	ErrParse            = errors.New("parse failure")
	ErrEmptyResult      = errors.New("empty result")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ReasonCode maps an extraction error onto its taxonomy name.
func ReasonCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFileNotFound):
		return "FileNotFound"
	case errors.Is(err, ErrUnsupportedType):
		return "UnsupportedType"
	case errors.Is(err, ErrToolNotAvailable):
		return "ToolNotAvailable"
	case errors.Is(err, ErrToolInvocation):
		return "ToolInvocationFailure"
	case errors.Is(err, ErrParse):
		return "ParseFailure"
	case errors.Is(err, ErrEmptyResult):
		return "EmptyResult"
	default:
		return "Internal"
	}
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func NotFoundError(message string) error {
	return status.Error(codes.NotFound, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

func InternalErrorf(format string, args ...interface{}) error {
	return InternalError(fmt.Sprintf(format, args...))
}
