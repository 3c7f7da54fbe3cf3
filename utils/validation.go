package utils

import (
	"regexp"
	"strings"
)

var (
	phoneRegex = regexp.MustCompile(`^\d{10}$`)
	zipRegex   = regexp.MustCompile(`^\d{5}$`)
	stateRegex = regexp.MustCompile(`^[A-Za-z]{2}$`)
)

// NormalizePhone strips the usual separators from a phone number.
func NormalizePhone(phone string) string {
	cleaned := strings.ReplaceAll(phone, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	cleaned = strings.ReplaceAll(cleaned, "(", "")
	cleaned = strings.ReplaceAll(cleaned, ")", "")
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	return cleaned
}

// ValidatePhone reports whether phone is a 10 digit number once separators are removed.
func ValidatePhone(phone string) bool {
	return phoneRegex.MatchString(NormalizePhone(phone))
}

func ValidateZip(zip string) bool {
	return zipRegex.MatchString(strings.TrimSpace(zip))
}

func ValidateState(state string) bool {
	return stateRegex.MatchString(strings.TrimSpace(state))
}
