package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeAuth indicates missing or rejected upstream credentials.
	// It is a configuration problem and must not be retried.
	ErrorTypeAuth ErrorType = "AUTH"

	// ErrorTypeLookup indicates a failed upstream search (transport, status or decode)
	ErrorTypeLookup ErrorType = "LOOKUP"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewAuthError creates a new authentication error
func NewAuthError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeAuth,
		Message: message,
		Err:     err,
	}
}

// NewLookupError creates a new upstream lookup error
func NewLookupError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeLookup,
		Message: message,
		Err:     err,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// IsType reports whether any error in err's chain is an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	for err != nil {
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Type == errType {
			return true
		}
		err = appErr.Err
	}
	return false
}

// IsAuth reports whether err carries an authentication failure.
func IsAuth(err error) bool {
	return IsType(err, ErrorTypeAuth)
}
