package cloudant

import (
	"regexp"
	"strings"
)

// Runs of whitespace or slashes collapse to a single hyphen.
var dbNameSeparators = regexp.MustCompile(`[\s/]+`)

// NormalizeDatabaseName sanitizes a user-supplied database name into a
// backend-legal identifier: lowercase only, no leading underscores, and
// every run of whitespace or slash characters replaced with one hyphen.
// The second return reports whether the name was altered, so callers can
// emit a warning naming the value actually used.
//
// The function is pure and idempotent.
func NormalizeDatabaseName(raw string) (string, bool) {
	name := strings.ToLower(raw)
	name = dbNameSeparators.ReplaceAllString(name, "-")
	name = strings.TrimLeft(name, "_")
	return name, name != raw
}
