package validation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// ValidateURL checks that urlStr is an absolute http(s) URL.
func ValidateURL(urlStr, fieldName string) error {
	if urlStr == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("%s: invalid URL format: %w", fieldName, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s: invalid URL scheme (must be http or https)", fieldName)
	}
	if u.Host == "" {
		return fmt.Errorf("%s: URL must have a host", fieldName)
	}
	return nil
}

// ValidateNonEmptyString validates that string is not empty after trimming
func ValidateNonEmptyString(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateCategoryName accepts a Twitch category name as typed in the
// directory: non-blank, valid UTF-8, at most 100 characters.
func ValidateCategoryName(name, fieldName string) error {
	if err := ValidateNonEmptyString(name, fieldName); err != nil {
		return err
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}
	return ValidateStringLength(name, 1, 100, fieldName)
}

// ValidateStringLength validates string length in runes
func ValidateStringLength(s string, min, max int, fieldName string) error {
	length := utf8.RuneCountInString(s)
	if length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if length > max {
		return fmt.Errorf("%s is too long (max %d characters)", fieldName, max)
	}
	return nil
}

func ValidateRange(v, min, max int, fieldName string) error {
	if v < min || v > max {
		return fmt.Errorf("%s must be between %d and %d", fieldName, min, max)
	}
	return nil
}
