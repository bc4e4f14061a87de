package errors

import (
	"fmt"
	"net/http"
	"sort"
)

// Common error codes
const (
	CodeAPIRequest  = "001"
	CodeAPIResponse = "002"
	CodeAPIDecode   = "003"
	CodeAPITooLarge = "004"

	CodeNotFoundProduct = "001"

	CodeStockInsufficient = "001"
	CodeStockConflict     = "002"
	CodeStockPartial      = "003"

	CodeValidationInput  = "001"
	CodeValidationConfig = "002"
	CodeValidationFile   = "003"

	CodeNetworkUnreachable = "001"
)

// NewValidationFailedError creates an error for input validation failures
func NewValidationFailedError(field, value, operation string) *APIError {
	return NewValidationError(CodeValidationInput,
		fmt.Sprintf("Invalid value for %s: '%s'", field, value),
		operation).
		WithContext("field", field).
		WithContext("value", value).
		WithTroubleshooting(
			"Check the command syntax and parameter values",
			"Use --help to see available options and examples",
		)
}

// NewNetworkError wraps a transport failure
func NewNetworkError(operation, url string, originalErr error) *APIError {
	return NewAPIError(ErrorCategoryNetwork, CodeNetworkUnreachable,
		"Could not reach the inventory API", operation).
		WithContext("url", url).
		WithOriginalError(originalErr).
		WithTroubleshooting(
			"Check that --api-url points at a running inventory API",
			"Verify your network connection",
		)
}

// NewStatusError maps a non-2xx response from the inventory API to a
// categorised error.
func NewStatusError(operation string, status int, body string) *APIError {
	var err *APIError
	switch {
	case status == http.StatusNotFound:
		err = NewAPIError(ErrorCategoryNotFound, CodeNotFoundProduct, "Record not found", operation).
			WithTroubleshooting("Verify the SKU or identifier; use 'stockctl products list' to browse the catalog")
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		err = NewAPIError(ErrorCategoryPermission, CodeAPIRequest, "Not allowed to perform this operation", operation).
			WithTroubleshooting("Check that your role grants access to this operation")
	case status == http.StatusConflict:
		err = NewAPIError(ErrorCategoryStock, CodeStockConflict, "Stock record changed concurrently", operation).
			WithTroubleshooting("Reload the current stock level and try again")
	case status == http.StatusUnprocessableEntity:
		err = NewAPIError(ErrorCategoryStock, CodeStockInsufficient, "Stock rule rejected the request", operation).
			WithTroubleshooting("Check that the source location holds enough stock")
	case status == http.StatusBadRequest:
		err = NewValidationError(CodeValidationInput, "The API rejected the request", operation)
	default:
		err = NewAPIError(ErrorCategoryAPI, CodeAPIResponse,
			fmt.Sprintf("Unexpected response: HTTP %d", status), operation)
	}

	err = err.WithStatus(status)
	if body != "" {
		err = err.WithContext("response", body)
	}
	return err
}

// NewDecodeError reports a response body that could not be parsed
func NewDecodeError(operation string, originalErr error) *APIError {
	return NewAPIError(ErrorCategoryAPI, CodeAPIDecode, "Could not decode API response", operation).
		WithOriginalError(originalErr)
}

// NewResponseTooLargeError reports a response body over the client's limit
func NewResponseTooLargeError(operation string, limit int64) *APIError {
	return NewAPIError(ErrorCategoryAPI, CodeAPITooLarge,
		fmt.Sprintf("API response exceeds the %d MiB limit", limit>>20), operation).
		WithContext("limit_bytes", limit).
		WithTroubleshooting("Narrow the query, for example with --search or --low-stock")
}

// GetErrorSeverity returns the severity level of an error
func GetErrorSeverity(err error) string {
	if apiErr, ok := AsAPIError(err); ok {
		switch apiErr.Category {
		case ErrorCategoryValidation, ErrorCategoryConfiguration, ErrorCategoryNotFound:
			return "WARNING"
		default:
			return "ERROR"
		}
	}
	return "ERROR"
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
