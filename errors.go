package gatekey

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure into a small closed set so callers can pick
// a status code and retry policy without string matching. Kinds that would
// allow account enumeration at the login boundary are deliberately coarse.
type ErrorKind string

const (
	KindConflict               ErrorKind = "conflict"
	KindNotFound               ErrorKind = "not_found"
	KindInvalidCredential      ErrorKind = "invalid_credential"
	KindInvalidOrExpiredCode   ErrorKind = "invalid_or_expired_code"
	KindDeliveryFailed         ErrorKind = "delivery_failed"
	KindProviderNotConfigured  ErrorKind = "provider_not_configured"
	KindProviderExchangeFailed ErrorKind = "provider_exchange_failed"
	KindInvalidOAuthState      ErrorKind = "invalid_oauth_state"

	// KindUnavailable marks infrastructure failures (database or key/value
	// store unreachable) as opposed to business rule violations. These are
	// the only errors a caller may reasonably retry.
	KindUnavailable ErrorKind = "infrastructure_unavailable"
)

// AuthError is the error type surfaced by the authentication core. The
// Message is safe to show to an end user; the wrapped Err carries the
// precise internal cause for logs.
type AuthError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NewAuthError creates an AuthError with the given kind and user-facing message.
func NewAuthError(kind ErrorKind, message string) *AuthError {
	return &AuthError{Kind: kind, Message: message}
}

// WrapError creates an AuthError that preserves the underlying cause.
func WrapError(kind ErrorKind, message string, err error) *AuthError {
	return &AuthError{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or "" if err is not an AuthError.
func KindOf(err error) ErrorKind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// IsKind reports whether err is an AuthError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
