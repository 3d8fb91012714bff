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
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
)

// Analysis failure kinds.
var (
	// ErrAcquisition: document text could not be obtained.
	ErrAcquisition = errors.New("text acquisition failed")
	// ErrComponent: one analysis step failed.
	ErrComponent = errors.New("analysis component failed")
	// ErrComparison: a comparison could not be carried out.
	ErrComparison = errors.New("comparison failed")
	// ErrAlreadyAnalyzed: a record already exists for the document.
	ErrAlreadyAnalyzed = errors.New("document already analyzed")
)

// Error codes carried by AppError.Code.
const (
	CodeValidation  = "VALIDATION_FAILURE"
	CodeAcquisition = "ACQUISITION_FAILURE"
	CodeComponent   = "COMPONENT_FAILURE"
	CodeComparison  = "COMPARISON_FAILURE"
	CodeNotFound    = "NOT_FOUND"
	CodeDatabase    = "DATABASE_ERROR"
	CodeStorage     = "STORAGE_ERROR"
	CodeConflict    = "CONFLICT"
	CodeConfig      = "CONFIG_ERROR"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewValidationError(message string) *AppError {
	return NewAppError(CodeValidation, message, ErrValidation)
}

func NewComparisonError(message string, cause error) *AppError {
	if cause == nil {
		cause = ErrComparison
	} else {
		cause = fmt.Errorf("%w: %w", ErrComparison, cause)
	}
	return NewAppError(CodeComparison, message, cause)
}

func NewNotFoundError(message string) *AppError {
	return NewAppError(CodeNotFound, message, ErrNotFound)
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ToStatus converts err to a gRPC status error. Errors that already carry a
// status are returned unchanged.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	msg := err.Error()
	var appErr *AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidInput):
		return status.Error(codes.InvalidArgument, msg)
	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, msg)
	case errors.Is(err, ErrComparison):
		return status.Error(codes.FailedPrecondition, msg)
	case errors.Is(err, ErrAlreadyAnalyzed):
		return status.Error(codes.AlreadyExists, msg)
	case errors.Is(err, ErrUnauthorized):
		return status.Error(codes.PermissionDenied, msg)
	default:
		return status.Error(codes.Internal, msg)
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
