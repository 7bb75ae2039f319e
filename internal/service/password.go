package service

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	passwordMinLength = 8
	passwordMaxLength = 255
)

// Password rule messages
const (
	MsgPasswordUppercase = "Password must contain at least one uppercase letter."
	MsgPasswordLowercase = "Password must contain at least one lowercase letter."
	MsgPasswordNumeric   = "This password is entirely numeric."
	MsgPasswordTooShort  = "Ensure this field has at least 8 characters."
	MsgPasswordTooLong   = "Ensure this field has no more than 255 characters."
)

// ValidatePassword evaluates every rule and returns all failures in a fixed order
func ValidatePassword(password string) []string {
	var failures []string

	var hasUpper, hasLower bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		}
	}

	if !hasUpper {
		failures = append(failures, MsgPasswordUppercase)
	}
	if !hasLower {
		failures = append(failures, MsgPasswordLowercase)
	}
	if isNumeric(password) {
		failures = append(failures, MsgPasswordNumeric)
	}

	length := utf8.RuneCountInString(password)
	if length < passwordMinLength {
		failures = append(failures, MsgPasswordTooShort)
	}
	if length > passwordMaxLength {
		failures = append(failures, MsgPasswordTooLong)
	}

	return failures
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) }) == -1
}
