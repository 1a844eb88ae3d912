package submit

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/goliatone/go-formstate/pkg/auth"
	"github.com/goliatone/go-formstate/pkg/form"
)

// Orchestrator runs sign-in attempts and owns the resulting server errors.
// At most one server error is active: every attempt starts by clearing the
// previous ones.
type Orchestrator struct {
	mu sync.Mutex

	auth          auth.Authenticator
	rules         map[string]Rule
	emailField    string
	passwordField string
	logger        *slog.Logger

	serverErrors form.Errors
	generation   uint64
}

// Ensure the orchestrator plugs into the form engine's start/run split.
var _ form.Starter = (*Orchestrator)(nil)

// New constructs an orchestrator. Without WithRules it recognises nothing,
// so every failure is returned as an UnhandledSubmissionError.
func New(authenticator auth.Authenticator, options ...Option) *Orchestrator {
	o := &Orchestrator{
		auth:          authenticator,
		rules:         make(map[string]Rule),
		emailField:    "email",
		passwordField: "password",
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		serverErrors:  form.Errors{},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	return o
}

func (o *Orchestrator) addRule(rule Rule) {
	code := strings.TrimSpace(rule.Code)
	if code == "" || strings.TrimSpace(rule.Field) == "" {
		return
	}
	rule.Code = code
	o.rules[code] = rule
}

// Start clears prior server errors and stamps a new generation before
// returning the asynchronous sign-in step.
func (o *Orchestrator) Start(values form.Values) func(ctx context.Context) error {
	o.mu.Lock()
	o.serverErrors = form.Errors{}
	o.generation++
	generation := o.generation
	o.mu.Unlock()

	email := values[o.emailField]
	password := values[o.passwordField]
	return func(ctx context.Context) error {
		return o.run(ctx, generation, email, password)
	}
}

// Handle runs a complete attempt synchronously. It satisfies
// form.SubmitHandler for callers that do not need the start/run split.
func (o *Orchestrator) Handle(ctx context.Context, values form.Values) error {
	return o.Start(values)(ctx)
}

func (o *Orchestrator) run(ctx context.Context, generation uint64, email, password string) error {
	if o.auth == nil {
		return ErrNoAuthenticator
	}

	err := o.auth.SignIn(ctx, email, password)
	if err == nil {
		o.logger.Debug("sign-in succeeded", "generation", generation)
		return nil
	}

	code := auth.CodeOf(err)
	rule, ok := o.rules[code]
	if !ok {
		o.logger.Warn("sign-in failed with unhandled code", "generation", generation, "code", code, "error", err)
		return &UnhandledSubmissionError{Code: code, Err: err}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if generation != o.generation {
		o.logger.Debug("discarding stale sign-in result", "generation", generation, "current", o.generation, "code", code)
		return nil
	}
	o.serverErrors = form.Errors{rule.Field: rule.Message}
	o.logger.Debug("sign-in rejected", "generation", generation, "code", code, "field", rule.Field)
	return nil
}

// ServerErrors returns a copy of the active server errors.
func (o *Orchestrator) ServerErrors() form.Errors {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.serverErrors.Clone()
}

// ClearServerErrors drops the active server errors.
func (o *Orchestrator) ClearServerErrors() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.serverErrors = form.Errors{}
}

// Invalidate makes every in-flight attempt stale so its result is ignored.
func (o *Orchestrator) Invalidate() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.generation++
}

// Generation returns the current attempt generation.
func (o *Orchestrator) Generation() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generation
}
