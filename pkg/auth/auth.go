// Package auth defines the credential-check boundary the login form submits
// to, the stable failure codes it reports, and an init-once provider
// lifecycle so implementations are injected instead of reached through
// package globals.
package auth

import (
	"context"
	"errors"
	"fmt"
)

// Failure codes reported by authenticators.
const (
	CodeUserNotFound    = "auth/user-not-found"
	CodeWrongPassword   = "auth/wrong-password"
	CodeInvalidEmail    = "auth/invalid-email"
	CodeUserDisabled    = "auth/user-disabled"
	CodeTooManyRequests = "auth/too-many-requests"
	CodeNetwork         = "auth/network-request-failed"
	CodeInternal        = "auth/internal-error"
)

// Authenticator checks a credential pair. A nil error means the sign-in
// succeeded; failures should carry a code through Coder.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) error
}

// DisplayNamer is implemented by authenticators that know the display name
// of an account. An empty name means none is recorded.
type DisplayNamer interface {
	DisplayName(ctx context.Context, email string) (string, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, email, password string) error

// SignIn calls fn.
func (fn AuthenticatorFunc) SignIn(ctx context.Context, email, password string) error {
	return fn(ctx, email, password)
}

// Coder is implemented by errors carrying a stable failure code.
type Coder interface {
	Code() string
}

// Error is the failure type produced by the bundled authenticators.
type Error struct {
	code    string
	Message string
	Err     error
}

// NewError builds an Error with a code and optional message.
func NewError(code, message string) *Error {
	return &Error{code: code, Message: message}
}

// WrapError attaches a code to an underlying error.
func WrapError(code string, err error) *Error {
	return &Error{code: code, Err: err}
}

// Code returns the failure code.
func (e *Error) Code() string {
	return e.code
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.code, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.code, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.code, e.Err)
	default:
		return e.code
	}
}

// Unwrap exposes the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf extracts the failure code from err, or "" when none is present.
func CodeOf(err error) string {
	var coder Coder
	if errors.As(err, &coder) {
		return coder.Code()
	}
	return ""
}
