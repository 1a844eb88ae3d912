// Package formstate assembles the login form: the form state engine, the
// submission orchestrator, a validator and the message catalog.
package formstate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/goliatone/go-formstate/pkg/auth"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/messages"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/submit"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// Field names of the login form.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
)

// ErrMissingCredentialField is returned by NewLoginForm when a rule set does
// not declare both credential fields.
var ErrMissingCredentialField = errors.New("formstate: rule set must declare the email and password fields")

// Attempt aliases form.Attempt for callers of the root package.
type Attempt = form.Attempt

// State aliases form.State.
type State = form.State

// Option configures a LoginForm.
type Option func(*config)

type config struct {
	catalog *messages.Catalog
	locale  string
	policy  form.SubmitPolicy
	scope   form.ResetScope
	rules   *validation.RuleSet
	logger  *slog.Logger
}

// WithCatalog replaces the default en/nl message catalog.
func WithCatalog(catalog *messages.Catalog) Option {
	return func(cfg *config) {
		if catalog != nil {
			cfg.catalog = catalog
		}
	}
}

// WithLocale selects the message language ("en", "nl-BE", ...).
func WithLocale(locale string) Option {
	return func(cfg *config) {
		cfg.locale = strings.TrimSpace(locale)
	}
}

// WithSubmitPolicy forwards to form.WithSubmitPolicy.
func WithSubmitPolicy(policy form.SubmitPolicy) Option {
	return func(cfg *config) {
		cfg.policy = policy
	}
}

// WithResetScope forwards to form.WithResetScope. ServerErrors also clears
// the orchestrator's server errors on reset.
func WithResetScope(scope form.ResetScope) Option {
	return func(cfg *config) {
		cfg.scope = scope
	}
}

// WithRuleSet replaces the built-in login validator and defaults with a
// declarative rule set. NewLoginForm compiles an uncompiled set and rejects
// one that lacks the credential fields.
func WithRuleSet(rules *validation.RuleSet) Option {
	return func(cfg *config) {
		cfg.rules = rules
	}
}

// WithLogger shares a structured logger with the engine and orchestrator.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// LoginForm is a ready-to-use email/password form.
type LoginForm struct {
	engine        *form.Engine
	orch          *submit.Orchestrator
	printer       messages.Printer
	authenticator auth.Authenticator
	logger        *slog.Logger
}

// NewLoginForm wires a login form that signs in through authenticator.
func NewLoginForm(authenticator auth.Authenticator, options ...Option) (*LoginForm, error) {
	cfg := &config{
		catalog: messages.Default(),
		locale:  "en",
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	printer := cfg.catalog.Printer(cfg.locale)
	defaults := LoginDefaults()
	validator := validation.Login(printer)
	if cfg.rules != nil {
		if !cfg.rules.Compiled() {
			if err := cfg.rules.Compile(); err != nil {
				return nil, fmt.Errorf("formstate: %w", err)
			}
		}
		defaults = cfg.rules.Defaults()
		values := defaults.Values()
		for _, field := range []string{FieldEmail, FieldPassword} {
			if _, ok := values[field]; !ok {
				return nil, fmt.Errorf("%w: missing %q", ErrMissingCredentialField, field)
			}
		}
		validator = cfg.rules.Validator(printer)
	}

	orch := submit.New(authenticator,
		submit.WithRules(submit.DefaultRules(printer)...),
		submit.WithCredentialFields(FieldEmail, FieldPassword),
		submit.WithLogger(cfg.logger),
	)

	engine := form.New(defaults,
		form.WithValidator(validator),
		form.WithStarter(orch),
		form.WithSubmitPolicy(cfg.policy),
		form.WithResetScope(cfg.scope),
		form.WithResetHook(func(scope form.ResetScope) {
			orch.Invalidate()
			if scope.ServerErrors {
				orch.ClearServerErrors()
			}
		}),
		form.WithLogger(cfg.logger),
	)

	return &LoginForm{
		engine:        engine,
		orch:          orch,
		printer:       printer,
		authenticator: authenticator,
		logger:        cfg.logger,
	}, nil
}

// LoginDefaults returns a fresh defaults configuration with an empty email
// and password. Each call yields a distinct identity.
func LoginDefaults() *form.Defaults {
	return form.NewDefaults(map[string]string{FieldEmail: "", FieldPassword: ""})
}

// Change sets a field value.
func (f *LoginForm) Change(field, value string) error {
	return f.engine.Change(field, value)
}

// Touch marks a field as interacted with.
func (f *LoginForm) Touch(field string) error {
	return f.engine.Touch(field)
}

// Submit starts a sign-in attempt when the form is valid.
func (f *LoginForm) Submit(ctx context.Context) (*Attempt, error) {
	return f.engine.Submit(ctx)
}

// Errors returns the current validation errors.
func (f *LoginForm) Errors() form.Errors {
	return f.engine.Errors()
}

// ServerErrors returns the errors reported by the last sign-in.
func (f *LoginForm) ServerErrors() form.Errors {
	return f.orch.ServerErrors()
}

// Snapshot returns the engine state.
func (f *LoginForm) Snapshot() State {
	return f.engine.Snapshot()
}

// SetDefaults resets the form when defaults is a new configuration.
func (f *LoginForm) SetDefaults(defaults *form.Defaults) bool {
	return f.engine.SetDefaults(defaults)
}

// Defaults returns the active defaults configuration.
func (f *LoginForm) Defaults() *form.Defaults {
	return f.engine.Defaults()
}

// Printer returns the resolved message printer.
func (f *LoginForm) Printer() messages.Printer {
	return f.printer
}

// Welcome greets the account of the current email value by its display name
// when the authenticator knows one, else by the address itself.
func (f *LoginForm) Welcome(ctx context.Context) string {
	email := strings.TrimSpace(f.engine.Snapshot().Values[FieldEmail])
	name := email
	if namer, ok := f.authenticator.(auth.DisplayNamer); ok && email != "" {
		display, err := namer.DisplayName(ctx, email)
		switch {
		case err != nil:
			f.logger.Debug("formstate: display name lookup failed", "error", err)
		case display != "":
			name = display
		}
	}
	if name == "" {
		return f.printer.Message(messages.KeySignedIn)
	}
	return f.printer.Message(messages.KeyWelcome, name)
}

// View merges validation and server errors for presentation.
func (f *LoginForm) View() render.View {
	return render.BuildView(f.engine.Snapshot(), f.orch.ServerErrors(), fieldSpecs(f.engine.Fields())...)
}

func fieldSpecs(fields []string) []render.FieldSpec {
	specs := make([]render.FieldSpec, 0, len(fields))
	for _, name := range fields {
		spec := render.FieldSpec{Name: name, Label: label(name), Type: "text"}
		switch name {
		case FieldEmail:
			spec.Type = "email"
		case FieldPassword:
			spec.Type = "password"
			spec.Secret = true
		}
		specs = append(specs, spec)
	}
	return specs
}

func label(name string) string {
	if name == "" {
		return name
	}
	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(name))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
