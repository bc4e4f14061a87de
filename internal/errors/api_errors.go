package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory represents the category of error
type ErrorCategory string

const (
	// ErrorCategoryAPI represents failures reported by the inventory API
	ErrorCategoryAPI ErrorCategory = "API"
	// ErrorCategoryValidation represents invalid user input
	ErrorCategoryValidation ErrorCategory = "VALIDATION"
	// ErrorCategoryPermission represents authentication/authorization errors
	ErrorCategoryPermission ErrorCategory = "PERMISSION"
	// ErrorCategoryNetwork represents transport-level failures
	ErrorCategoryNetwork ErrorCategory = "NETWORK"
	// ErrorCategoryConfiguration represents configuration errors
	ErrorCategoryConfiguration ErrorCategory = "CONFIGURATION"
	// ErrorCategoryNotFound represents missing catalog or stock records
	ErrorCategoryNotFound ErrorCategory = "NOT_FOUND"
	// ErrorCategoryStock represents stock rule violations (insufficient stock, conflicts)
	ErrorCategoryStock ErrorCategory = "STOCK"
)

// APIError represents a structured error with context and troubleshooting information
type APIError struct {
	Category        ErrorCategory
	Code            string
	Message         string
	Operation       string
	StatusCode      int
	Context         map[string]interface{}
	Troubleshooting []string
	OriginalError   error
}

// Error implements the error interface
func (e *APIError) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s-%s: %s", e.Category, e.Code, e.Message))

	if e.Operation != "" {
		sb.WriteString(fmt.Sprintf("\nOperation: %s", e.Operation))
	}

	if len(e.Context) > 0 {
		sb.WriteString("\nContext:")
		for _, key := range sortedKeys(e.Context) {
			sb.WriteString(fmt.Sprintf("\n  %s: %v", key, e.Context[key]))
		}
	}

	if len(e.Troubleshooting) > 0 {
		sb.WriteString("\nTroubleshooting:")
		for i, step := range e.Troubleshooting {
			sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, step))
		}
	}

	if e.OriginalError != nil {
		sb.WriteString(fmt.Sprintf("\nUnderlying error: %v", e.OriginalError))
	}

	return sb.String()
}

// Unwrap returns the original error for error chain compatibility
func (e *APIError) Unwrap() error {
	return e.OriginalError
}

// NewAPIError creates a new error with the specified parameters
func NewAPIError(category ErrorCategory, code, message, operation string) *APIError {
	return &APIError{
		Category:        category,
		Code:            code,
		Message:         message,
		Operation:       operation,
		Context:         make(map[string]interface{}),
		Troubleshooting: []string{},
	}
}

// WithContext adds context information to the error
func (e *APIError) WithContext(key string, value interface{}) *APIError {
	e.Context[key] = value
	return e
}

// WithTroubleshooting adds troubleshooting steps to the error
func (e *APIError) WithTroubleshooting(steps ...string) *APIError {
	e.Troubleshooting = append(e.Troubleshooting, steps...)
	return e
}

// WithOriginalError adds the original error
func (e *APIError) WithOriginalError(err error) *APIError {
	e.OriginalError = err
	return e
}

// WithStatus records the HTTP status code returned by the API
func (e *APIError) WithStatus(status int) *APIError {
	e.StatusCode = status
	return e
}

// NewValidationError creates a new validation error
func NewValidationError(code, message, operation string) *APIError {
	return NewAPIError(ErrorCategoryValidation, code, message, operation)
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(code, message, operation string) *APIError {
	return NewAPIError(ErrorCategoryConfiguration, code, message, operation)
}

// AsAPIError extracts an *APIError from anywhere in err's chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
