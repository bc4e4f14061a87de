package utils

import (
	"fmt"
	"strings"
)

// FieldFilter is a parsed "key=value" or bare "key" filter expression.
type FieldFilter struct {
	Key   string
	Value string
	// Presence filters match any non-empty value for Key.
	Presence bool
}

// ParseFieldFilter parses a filter expression.
// Input examples:
//   - "category=fasteners" matches category exactly
//   - "location" matches any record with a location set
func ParseFieldFilter(expr string) (*FieldFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	if !strings.Contains(expr, "=") {
		return &FieldFilter{Key: strings.ToLower(expr), Presence: true}, nil
	}

	parts := strings.SplitN(expr, "=", 2)
	key := strings.ToLower(strings.TrimSpace(parts[0]))
	if key == "" {
		return nil, fmt.Errorf("filter key cannot be empty: %q", expr)
	}
	return &FieldFilter{Key: key, Value: strings.TrimSpace(parts[1])}, nil
}

// Matches checks fields against the filter. Value comparison ignores case.
// A nil filter matches everything.
func (f *FieldFilter) Matches(fields map[string]string) bool {
	if f == nil {
		return true
	}
	value, ok := fields[f.Key]
	if f.Presence {
		return ok && value != ""
	}
	return ok && strings.EqualFold(value, f.Value)
}
