package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrAuthenticationFailed hides whether the email exists or the password was wrong
	ErrAuthenticationFailed = errors.New("No active account found with the given credentials")
	// ErrTenantMismatch is returned when valid credentials belong to another tenant
	ErrTenantMismatch = errors.New("User does not belong to this tenant.")
	// ErrTenantMissing is returned when an operation needs a tenant and none was resolved
	ErrTenantMissing = errors.New("Tenant information is missing.")
	// ErrTenantNotFound is returned when the host names a subdomain no tenant owns
	ErrTenantNotFound = errors.New("Tenant not found.")
	// ErrNotAuthenticated is returned when no credentials were presented
	ErrNotAuthenticated = errors.New("Authentication credentials were not provided.")
	// ErrInvalidCredentials is returned when presented credentials do not validate
	ErrInvalidCredentials = errors.New("Given token not valid for any token type")
)

// Token error details, returned to clients verbatim
const (
	DetailNoRefreshToken   = "No valid refresh token found."
	DetailTokenInvalid     = "Token is invalid or expired"
	DetailTokenWrongType   = "Token has wrong type"
	DetailTokenBlacklisted = "Token is blacklisted"
)

// TokenError describes why a refresh token was rejected
type TokenError struct {
	Detail string
	Err    error
}

func (e *TokenError) Error() string {
	return e.Detail
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

// ValidationError collects field level failures
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an empty ValidationError
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

// Add appends messages for field
func (e *ValidationError) Add(field string, messages ...string) {
	e.Fields[field] = append(e.Fields[field], messages...)
}

// HasErrors reports whether any field failed
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// Err returns e when it holds failures and nil otherwise
func (e *ValidationError) Err() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e.Fields[f], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
