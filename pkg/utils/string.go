package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SanitizeString drops control characters (keeping \n, \r and \t) and trims
// surrounding whitespace.
func SanitizeString(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)

	return strings.TrimSpace(s)
}

// TruncateString cuts s to at most maxLen runes, ending with "..." when cut.
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// MaskSensitive keeps the first visibleChars runes of s and stars the rest.
func MaskSensitive(s string, visibleChars int) string {
	runes := []rune(s)
	if len(runes) <= visibleChars {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:visibleChars]) + strings.Repeat("*", len(runes)-visibleChars)
}
