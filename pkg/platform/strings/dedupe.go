// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// AppendUnique appends each non-empty trimmed value not already in dst.
// Order of first appearance is preserved.
func AppendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		found := false
		for _, existing := range dst {
			if existing == trimmed {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, trimmed)
		}
	}
	return dst
}

// JoinNonEmpty joins the trimmed non-empty values with sep.
func JoinNonEmpty(sep string, values ...string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, sep)
}
