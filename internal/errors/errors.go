package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message
func Newf(code, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an error with additional context. The code of a wrapped
// AppError is preserved.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// GetCode returns the code of the outermost AppError in the chain, or "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// HasCode reports whether any AppError in the chain carries code
func HasCode(err error, code string) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// Predefined error codes
const (
	CodeConfigInvalid         = "CONFIG_INVALID"
	CodeDatabaseError         = "DATABASE_ERROR"
	CodeValidationError       = "VALIDATION_ERROR"
	CodeNotFound              = "NOT_FOUND"
	CodeInternalError         = "INTERNAL_ERROR"
	CodeInvalidInput          = "INVALID_INPUT"
	CodeDegenerateInput       = "DEGENERATE_INPUT"
	CodeShapeMismatch         = "SHAPE_MISMATCH"
	CodeUnexpectedCardinality = "UNEXPECTED_CARDINALITY"
	CodePartitionLeak         = "PARTITION_LEAK"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string) *AppError {
	return New(CodeDatabaseError, message)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// DegenerateInput reports a sample set with no comparable (non-tied) pairs.
func DegenerateInput(message string) *AppError {
	return New(CodeDegenerateInput, message)
}

// ShapeMismatch reports input sequences or files whose row counts disagree.
func ShapeMismatch(message string) *AppError {
	return New(CodeShapeMismatch, message)
}

// UnexpectedCardinality is advisory: the data diverges from its documented counts.
func UnexpectedCardinality(message string) *AppError {
	return New(CodeUnexpectedCardinality, message)
}

// PartitionLeak reports a fold whose held-out key leaks into its training rows.
func PartitionLeak(message string) *AppError {
	return New(CodePartitionLeak, message)
}

func IsDegenerateInput(err error) bool { return HasCode(err, CodeDegenerateInput) }

func IsShapeMismatch(err error) bool { return HasCode(err, CodeShapeMismatch) }

func IsUnexpectedCardinality(err error) bool { return HasCode(err, CodeUnexpectedCardinality) }

func IsPartitionLeak(err error) bool { return HasCode(err, CodePartitionLeak) }
