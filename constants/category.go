package constants

import (
	"strings"
)

// Category is the document classification supplied at upload time. It picks
// the anomaly and compliance rule tables applied to the document.
type Category string

const (
	Financial Category = "Financial"
	Legal     Category = "Legal"
)

var allCategories = []Category{
	Financial,
	Legal,
}

// Categories returns every supported category in a stable order.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// IsValid reports whether c is one of the supported categories.
func (c Category) IsValid() bool {
	for _, cat := range allCategories {
		if c == cat {
			return true
		}
	}
	return false
}

func (c Category) String() string { return string(c) }

// Canonicalize matches input against the supported categories ignoring case
// and surrounding whitespace. Anything else is rejected.
func Canonicalize(input string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}
	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}
	return "", false
}
