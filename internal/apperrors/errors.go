// Package apperrors defines the coded domain errors shared by the auth core
// and the HTTP layer.
package apperrors

import (
	"errors"
	"net/http"
)

// Code identifies a class of domain failure.
type Code string

const (
	CodeInvalidCredentials   Code = "INVALID_CREDENTIALS"
	CodeWrongPassword        Code = "WRONG_PASSWORD"
	CodeEmailTaken           Code = "EMAIL_TAKEN"
	CodeInvalidToken         Code = "INVALID_TOKEN"
	CodeTokenRevoked         Code = "TOKEN_REVOKED"
	CodeUserNotFound         Code = "USER_NOT_FOUND"
	CodeProviderConflict     Code = "PROVIDER_CONFLICT"
	CodeInvalidProviderToken Code = "INVALID_PROVIDER_TOKEN"
	CodeProviderDisabled     Code = "PROVIDER_DISABLED"
	CodeInvalidInput         Code = "INVALID_INPUT"
	CodeInternal             Code = "INTERNAL"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = New(CodeInvalidCredentials, "invalid credentials")
	// ErrWrongPassword is returned when the current password does not verify on change.
	ErrWrongPassword = New(CodeWrongPassword, "current password is incorrect")
	// ErrEmailTaken is returned when an active user already owns the email.
	ErrEmailTaken = New(CodeEmailTaken, "email already registered")
	// ErrInvalidToken indicates a malformed, expired or wrongly typed token.
	ErrInvalidToken = New(CodeInvalidToken, "invalid token")
	// ErrTokenRevoked indicates a decodable token that no longer matches the store.
	ErrTokenRevoked = New(CodeTokenRevoked, "token revoked or superseded")
	// ErrUserNotFound indicates the subject no longer resolves to an active user.
	ErrUserNotFound = New(CodeUserNotFound, "user not found")
	// ErrProviderConflict indicates the email is bound to a different identity provider.
	ErrProviderConflict = New(CodeProviderConflict, "email already linked to another provider")
	// ErrInvalidProviderToken indicates an OAuth verification or exchange failure.
	ErrInvalidProviderToken = New(CodeInvalidProviderToken, "invalid provider token")
	// ErrProviderDisabled indicates the OAuth provider is not configured.
	ErrProviderDisabled = New(CodeProviderDisabled, "provider not configured")
)

// Error is a domain error carrying a machine-readable code.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a domain error that wraps an underlying cause.
// The cause is kept for logs; Message is what callers may show to clients.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf returns the code of the first domain error in err's chain,
// or CodeInternal when there is none.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// MessageOf returns the client-safe message for err.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}

// HTTPStatus maps an error to the status code used at the HTTP boundary.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidCredentials, CodeInvalidToken, CodeTokenRevoked, CodeUserNotFound, CodeInvalidProviderToken:
		return http.StatusUnauthorized
	case CodeEmailTaken, CodeProviderConflict:
		return http.StatusConflict
	case CodeInvalidInput, CodeWrongPassword:
		return http.StatusBadRequest
	case CodeProviderDisabled:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
