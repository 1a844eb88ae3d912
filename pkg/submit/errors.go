package submit

import (
	"errors"
	"fmt"
)

// ErrNoAuthenticator is returned when the orchestrator has no collaborator.
var ErrNoAuthenticator = errors.New("submit: authenticator is nil")

// UnhandledSubmissionError wraps a sign-in failure whose code has no rule.
// It is always returned to the caller; the orchestrator never swallows it.
type UnhandledSubmissionError struct {
	Code string
	Err  error
}

func (e *UnhandledSubmissionError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("submit: unhandled failure: %v", e.Err)
	}
	return fmt.Sprintf("submit: unhandled failure %q: %v", e.Code, e.Err)
}

// Unwrap exposes the collaborator's error.
func (e *UnhandledSubmissionError) Unwrap() error {
	return e.Err
}

// IsUnhandled reports whether err is an UnhandledSubmissionError.
func IsUnhandled(err error) bool {
	var unhandled *UnhandledSubmissionError
	return errors.As(err, &unhandled)
}
