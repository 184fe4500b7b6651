package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeData                ErrorType = "DATA"
	ErrTypeInsufficientHistory ErrorType = "INSUFFICIENT_HISTORY"
	ErrTypeParsing             ErrorType = "PARSING"
	ErrTypeStorage             ErrorType = "STORAGE"
	ErrTypeValidation          ErrorType = "VALIDATION"
	ErrTypeNotFound            ErrorType = "NOT_FOUND"
	ErrTypeConfig              ErrorType = "CONFIG"
)

// ErrEmptyStore is returned when a batch is started without any series to process
var ErrEmptyStore = errors.New("observation store is empty")

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// IsType reports whether any error in err's chain is an AppError of type t
func IsType(err error, t ErrorType) bool {
	for err != nil {
		var appErr *AppError
		if !errors.As(err, &appErr) {
			return false
		}
		if appErr.Type == t {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// Helper functions for common error types

// NewDataError reports input that cannot be turned into a complete series
func NewDataError(message string, cause error) *AppError {
	return NewAppError(ErrTypeData, message, cause)
}

// NewInsufficientHistoryWarning flags a forecast built on too little history
func NewInsufficientHistoryWarning(item string, days, required int) *AppError {
	return NewAppError(ErrTypeInsufficientHistory,
		fmt.Sprintf("%s has %d days of history, %d needed for a reliable estimate", item, days, required), nil).
		WithContext("item", item).
		WithContext("days", days).
		WithContext("required", required)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
