package util

import (
	"strings"
	"unicode"
)

// SanitizeString trims s and drops control characters.
func SanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// MaskSecret keeps the first visiblePrefix bytes of s and masks the rest.
func MaskSecret(s string, visiblePrefix int) string {
	if len(s) <= visiblePrefix {
		return "***"
	}
	return s[:visiblePrefix] + "***"
}

// MaskEmail keeps the first character of the local part and the domain,
// so "alice@example.com" becomes "a***@example.com".
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return MaskSecret(email, 1)
	}
	return MaskSecret(local, 1) + "@" + domain
}
