package validation

import (
	"regexp"
	"strings"
)

// Addresses are 0x-prefixed 20-byte hex strings.
var addressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

func IsValidAddress(addr string) bool {
	return addressRe.MatchString(addr)
}

// IsValidProjectName rejects empty/whitespace-only names and anything over
// 128 characters (the column width).
func IsValidProjectName(name string) bool {
	trimmed := strings.TrimSpace(name)
	return trimmed != "" && len(name) <= 128
}

// NormalizeAddress lowercases the hex part so addresses compare byte-equal.
func NormalizeAddress(addr string) string {
	return strings.ToLower(addr)
}
