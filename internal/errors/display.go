package errors

import (
	"fmt"
	"strings"
)

// DisplayError formats an error for user-friendly display
func DisplayError(err error) string {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Error()
	}
	return fmt.Sprintf("Error: %v", err)
}

// DisplayErrorSummary provides a brief summary of the error for logs
func DisplayErrorSummary(err error) string {
	if apiErr, ok := AsAPIError(err); ok {
		return fmt.Sprintf("%s-%s: %s", apiErr.Category, apiErr.Code, apiErr.Message)
	}

	errStr := err.Error()
	if len(errStr) > 100 {
		return errStr[:97] + "..."
	}
	return errStr
}

// FormatForCLI formats an error for command-line display with proper spacing
func FormatForCLI(err error) string {
	apiErr, ok := AsAPIError(err)
	if !ok {
		return fmt.Sprintf("\nError: %v\n", err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\n%s Error [%s-%s]\n", apiErr.Category, apiErr.Category, apiErr.Code))
	sb.WriteString(fmt.Sprintf("  %s\n", apiErr.Message))

	if apiErr.Operation != "" {
		sb.WriteString(fmt.Sprintf("\nFailed Operation: %s\n", apiErr.Operation))
	}

	if len(apiErr.Context) > 0 {
		sb.WriteString("\nDetails:\n")
		for _, key := range sortedKeys(apiErr.Context) {
			sb.WriteString(fmt.Sprintf("  %s: %v\n", key, apiErr.Context[key]))
		}
	}

	if len(apiErr.Troubleshooting) > 0 {
		sb.WriteString("\nHow to resolve:\n")
		for i, step := range apiErr.Troubleshooting {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, step))
		}
	}

	if apiErr.OriginalError != nil {
		sb.WriteString(fmt.Sprintf("\nTechnical details: %v\n", apiErr.OriginalError))
	}

	return sb.String()
}

// IsUserError determines if an error is due to user input/configuration
func IsUserError(err error) bool {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Category == ErrorCategoryValidation ||
			apiErr.Category == ErrorCategoryConfiguration
	}
	return false
}

// GetErrorCode extracts the error code for reporting
func GetErrorCode(err error) string {
	if apiErr, ok := AsAPIError(err); ok {
		return fmt.Sprintf("%s-%s", apiErr.Category, apiErr.Code)
	}
	return "UNKNOWN"
}
