package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/messages"
)

// Form is the subset of a login form a session drives.
type Form interface {
	Change(field, value string) error
	Touch(field string) error
	Submit(ctx context.Context) (*form.Attempt, error)
	ServerErrors() form.Errors
}

// Field describes one prompted field.
type Field struct {
	Name    string
	Message string
	Secret  bool
}

// LoginFields returns the email and password prompts.
func LoginFields() []Field {
	return []Field{
		{Name: "email", Message: "Email"},
		{Name: "password", Message: "Password", Secret: true},
	}
}

// Session repeatedly prompts for the fields and submits the form until a
// sign-in succeeds or MaxAttempts submissions were made. Welcome, when set,
// builds the line printed after a successful sign-in.
type Session struct {
	Driver      PromptDriver
	Form        Form
	Fields      []Field
	Printer     messages.Printer
	MaxAttempts int
	Welcome     func(ctx context.Context) string
	Logger      *slog.Logger
}

// Run executes the session loop. It returns nil after a successful sign-in,
// ErrTooManyAttempts when attempts run out, ErrAborted when the user
// interrupts, and any unhandled submission error as is.
func (s *Session) Run(ctx context.Context) error {
	if s.Driver == nil || s.Form == nil {
		return errors.New("prompt: session requires a driver and a form")
	}
	fields := s.Fields
	if len(fields) == 0 {
		fields = LoginFields()
	}
	maxAttempts := s.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := s.collect(ctx, fields); err != nil {
			return err
		}

		pending, err := s.Form.Submit(ctx)
		if err != nil {
			var blocked *form.BlockedError
			if !errors.As(err, &blocked) {
				return err
			}
			logger.Debug("submission blocked", "attempt", attempt, "fields", blocked.Errors.Fields(), "empty", blocked.Empty)
			if err := s.report(ctx, fields, blocked.Errors, blocked.Empty); err != nil {
				return err
			}
			continue
		}

		if err := pending.Wait(ctx); err != nil {
			return err
		}
		serverErrors := s.Form.ServerErrors()
		if len(serverErrors) == 0 {
			logger.Info("signed in", "attempt", attempt, "attempt_id", pending.ID())
			if s.Welcome == nil {
				return nil
			}
			if msg := s.Welcome(ctx); msg != "" {
				return s.Driver.Info(ctx, msg)
			}
			return nil
		}
		logger.Debug("sign-in rejected", "attempt", attempt, "fields", serverErrors.Fields())
		if err := s.report(ctx, fields, serverErrors, nil); err != nil {
			return err
		}
	}
	return ErrTooManyAttempts
}

func (s *Session) collect(ctx context.Context, fields []Field) error {
	for _, field := range fields {
		cfg := InputConfig{Message: field.Message}
		var (
			value string
			err   error
		)
		if field.Secret {
			value, err = s.Driver.Password(ctx, cfg)
		} else {
			value, err = s.Driver.Input(ctx, cfg)
		}
		if err != nil {
			return err
		}
		if err := s.Form.Change(field.Name, value); err != nil {
			return err
		}
		if err := s.Form.Touch(field.Name); err != nil {
			return err
		}
	}
	return nil
}

// report prints one line per failing field in prompt order.
func (s *Session) report(ctx context.Context, fields []Field, errs form.Errors, empty []string) error {
	emptySet := make(map[string]bool, len(empty))
	for _, name := range empty {
		emptySet[name] = true
	}
	for _, field := range fields {
		msg, ok := errs[field.Name]
		if !ok && emptySet[field.Name] {
			msg, ok = s.Printer.Message(messages.KeyFieldRequired), true
		}
		if !ok {
			continue
		}
		if err := s.Driver.Info(ctx, fmt.Sprintf("%s: %s", field.Message, msg)); err != nil {
			return err
		}
	}
	return nil
}
