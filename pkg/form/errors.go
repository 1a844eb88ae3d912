package form

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownField is returned when an operation names a field that is not
	// part of the current defaults configuration.
	ErrUnknownField = errors.New("form: unknown field")
	// ErrSubmitBlocked signals that validation or an empty field suppressed
	// the submit handler.
	ErrSubmitBlocked = errors.New("form: submission blocked")
	// ErrSubmitPending is returned under SubmitReject while an attempt is
	// still running.
	ErrSubmitPending = errors.New("form: submission pending")
	// ErrNoSubmitHandler is returned when a form without a handler passes
	// validation.
	ErrNoSubmitHandler = errors.New("form: submit handler is nil")
)

// FieldError reports an operation against an undeclared field.
type FieldError struct {
	Op    string
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("form: %s %q: unknown field", e.Op, e.Field)
}

// Unwrap allows errors.Is(err, ErrUnknownField).
func (e *FieldError) Unwrap() error {
	return ErrUnknownField
}

// BlockedError carries the reasons a submission was suppressed.
type BlockedError struct {
	// Errors holds the validator output at submit time.
	Errors Errors
	// Empty lists declared fields whose value was empty.
	Empty []string
}

func (e *BlockedError) Error() string {
	var parts []string
	if len(e.Errors) > 0 {
		parts = append(parts, "invalid "+strings.Join(e.Errors.Fields(), ", "))
	}
	if len(e.Empty) > 0 {
		parts = append(parts, "empty "+strings.Join(e.Empty, ", "))
	}
	if len(parts) == 0 {
		return ErrSubmitBlocked.Error()
	}
	return ErrSubmitBlocked.Error() + ": " + strings.Join(parts, "; ")
}

// Unwrap allows errors.Is(err, ErrSubmitBlocked).
func (e *BlockedError) Unwrap() error {
	return ErrSubmitBlocked
}

// PolicyError reports an unrecognised submit policy name.
type PolicyError struct {
	Value string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("form: unknown submit policy %q", e.Value)
}

// IsBlocked reports whether err (or anything it wraps) is a BlockedError.
func IsBlocked(err error) bool {
	var blocked *BlockedError
	return errors.As(err, &blocked)
}

// IsUnknownField reports whether err signals an undeclared field.
func IsUnknownField(err error) bool {
	return errors.Is(err, ErrUnknownField)
}
