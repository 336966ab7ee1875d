package slug

import (
	"regexp"
	"strings"
)

var (
	invalidChars = regexp.MustCompile(`[^a-z0-9]+`)
	validSlug    = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// Generate creates a URL-friendly slug from the given name.
//
// Examples:
//   - "Running Shoes" → "running-shoes"
//   - "Hello   World!" → "hello-world"
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))

	// Replace any non-alphanumeric characters with hyphens.
	s = invalidChars.ReplaceAllString(s, "-")

	// Trim leading and trailing hyphens.
	s = strings.Trim(s, "-")

	// Collapse consecutive hyphens into single hyphens.
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}

	return s
}

// IsValid reports whether s is a well-formed slug (lowercase alphanumerics
// and hyphens only).
func IsValid(s string) bool {
	return validSlug.MatchString(s)
}
