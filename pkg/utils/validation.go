package utils

import (
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	e164Regex  = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)
)

// ValidateEmail checks if an email address is valid.
func ValidateEmail(email string) bool {
	if strings.TrimSpace(email) == "" {
		return false
	}
	return emailRegex.MatchString(email)
}

// ValidatePhone checks for a lenient E.164-style phone number.
func ValidatePhone(phone string) bool {
	return e164Regex.MatchString(strings.TrimSpace(phone))
}
