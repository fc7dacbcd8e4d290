// Package strings provides string normalization utilities.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
// Example:
//
//	DedupeAndTrim([]string{"  aadhaar ", "ration_card", "aadhaar", "", "  "})
//	// Returns: []string{"aadhaar", "ration_card"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// DedupeFold is like DedupeAndTrim but compares and returns folded values
// (see Fold). Useful for building case-insensitive allow-lists.
//
// Example:
//
//	DedupeFold([]string{"  Farmer ", "FARMER", "Fisher  Folk"})
//	// Returns: []string{"farmer", "fisher folk"}
func DedupeFold(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		folded := Fold(v)
		if folded == "" {
			continue
		}
		if _, ok := seen[folded]; !ok {
			seen[folded] = struct{}{}
			result = append(result, folded)
		}
	}

	return result
}
