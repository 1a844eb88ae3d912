package formstate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/auth"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/messages"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/validation"
)

func failWith(code string) auth.Authenticator {
	return auth.AuthenticatorFunc(func(context.Context, string, string) error {
		if code == "" {
			return nil
		}
		return auth.NewError(code, "")
	})
}

func newForm(t *testing.T, authenticator auth.Authenticator, options ...Option) *LoginForm {
	t.Helper()
	f, err := NewLoginForm(authenticator, options...)
	if err != nil {
		t.Fatalf("new login form: %v", err)
	}
	return f
}

func waitFor(t *testing.T, attempt *Attempt) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := attempt.Wait(ctx); err != nil {
		t.Fatalf("attempt: %v", err)
	}
}

func fill(t *testing.T, f *LoginForm, email, password string) {
	t.Helper()
	for field, value := range map[string]string{FieldEmail: email, FieldPassword: password} {
		if err := f.Change(field, value); err != nil {
			t.Fatalf("change %s: %v", field, err)
		}
		if err := f.Touch(field); err != nil {
			t.Fatalf("touch %s: %v", field, err)
		}
	}
}

func TestLoginForm_PristineSubmitIsBlocked(t *testing.T) {
	f := newForm(t, failWith(""))
	printer := f.Printer()

	_, err := f.Submit(context.Background())
	if !form.IsBlocked(err) {
		t.Fatalf("expected blocked submission, got %v", err)
	}

	want := form.Errors{
		FieldEmail:    printer.Message(messages.KeyEmailInvalid),
		FieldPassword: printer.Message(messages.KeyPasswordRequired),
	}
	if diff := cmp.Diff(want, f.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestLoginForm_WrongPasswordView(t *testing.T) {
	f := newForm(t, failWith(auth.CodeWrongPassword), WithLocale("nl-BE"))
	fill(t, f, "test@email.com", "testpassword")

	attempt, err := f.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitFor(t, attempt)

	want := render.View{
		Fields: []render.FieldView{
			{Name: FieldEmail, Label: "Email", Type: "email", Value: "test@email.com", Touched: true},
			{Name: FieldPassword, Label: "Password", Type: "password", Touched: true, ServerError: "Het wachtwoord is niet correct."},
		},
		Submitted: true,
	}
	if diff := cmp.Diff(want, f.View()); diff != "" {
		t.Fatalf("view mismatch (-want +got):\n%s", diff)
	}
}

func TestLoginForm_ResetScopeClearsServerErrors(t *testing.T) {
	f := newForm(t, failWith(auth.CodeUserNotFound), WithResetScope(form.ResetScope{Submitted: true, ServerErrors: true}))
	fill(t, f, "test@email.com", "testpassword")

	attempt, err := f.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitFor(t, attempt)
	if len(f.ServerErrors()) != 1 {
		t.Fatalf("expected one server error, got %v", f.ServerErrors())
	}

	if !f.SetDefaults(LoginDefaults()) {
		t.Fatalf("expected reset for a new defaults identity")
	}
	if diff := cmp.Diff(form.Errors{}, f.ServerErrors()); diff != "" {
		t.Fatalf("server errors mismatch (-want +got):\n%s", diff)
	}
	if f.Snapshot().Submitted {
		t.Fatalf("expected submitted latch to be cleared")
	}
}

func TestLoginForm_DefaultResetKeepsServerErrors(t *testing.T) {
	f := newForm(t, failWith(auth.CodeUserNotFound))
	fill(t, f, "test@email.com", "testpassword")

	attempt, err := f.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitFor(t, attempt)

	f.SetDefaults(LoginDefaults())
	if len(f.ServerErrors()) != 1 {
		t.Fatalf("expected server errors to survive reset, got %v", f.ServerErrors())
	}
	if !f.Snapshot().Submitted {
		t.Fatalf("expected submitted latch to survive reset")
	}
	if f.SetDefaults(f.Defaults()) {
		t.Fatalf("same defaults identity must not reset")
	}
}

func TestLoginForm_UnhandledCode(t *testing.T) {
	f := newForm(t, failWith(auth.CodeTooManyRequests))
	fill(t, f, "test@email.com", "testpassword")

	attempt, err := f.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err = attempt.Wait(ctx)

	var coder auth.Coder
	if !errors.As(err, &coder) || coder.Code() != auth.CodeTooManyRequests {
		t.Fatalf("expected unhandled %s error, got %v", auth.CodeTooManyRequests, err)
	}
	if len(f.ServerErrors()) != 0 {
		t.Fatalf("expected no server errors, got %v", f.ServerErrors())
	}
}

func TestLoginForm_WithRuleSet(t *testing.T) {
	rules, err := validation.ParseRuleSet([]byte(`
fields:
  email:
    rules:
      - type: email
  password:
    rules:
      - type: required
      - type: min_length
        min: 8
`))
	if err != nil {
		t.Fatalf("parse rules: %v", err)
	}
	f := newForm(t, failWith(""), WithRuleSet(rules))
	fill(t, f, "test@email.com", "short")

	want := form.Errors{FieldPassword: f.Printer().Message(messages.KeyFieldMinLength, 8)}
	if diff := cmp.Diff(want, f.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestLoginForm_RuleSetNeedsCredentialFields(t *testing.T) {
	rules := &validation.RuleSet{Fields: map[string]validation.FieldRules{
		FieldPassword: {Rules: []validation.Rule{{Type: validation.RuleRequired}}},
	}}

	_, err := NewLoginForm(failWith(""), WithRuleSet(rules))
	if !errors.Is(err, ErrMissingCredentialField) {
		t.Fatalf("expected ErrMissingCredentialField, got %v", err)
	}
	if !rules.Compiled() {
		t.Fatalf("expected the rule set to be compiled")
	}
}

func TestLoginForm_RejectsInvalidRuleSet(t *testing.T) {
	rules := &validation.RuleSet{Fields: map[string]validation.FieldRules{
		FieldEmail:    {Rules: []validation.Rule{{Type: "bogus"}}},
		FieldPassword: {},
	}}

	if _, err := NewLoginForm(failWith(""), WithRuleSet(rules)); err == nil {
		t.Fatalf("expected an error for an invalid rule set")
	}
}

type namedAuth struct {
	auth.Authenticator
	names map[string]string
}

func (n namedAuth) DisplayName(_ context.Context, email string) (string, error) {
	return n.names[email], nil
}

func TestLoginForm_Welcome(t *testing.T) {
	ctx := context.Background()

	named := newForm(t, namedAuth{Authenticator: failWith(""), names: map[string]string{"ada@email.com": "Ada"}}, WithLocale("nl"))
	fill(t, named, "ada@email.com", "testpassword")
	if got := named.Welcome(ctx); got != "Welkom Ada" {
		t.Fatalf("unexpected welcome %q", got)
	}

	plain := newForm(t, failWith(""))
	fill(t, plain, "test@email.com", "testpassword")
	if got := plain.Welcome(ctx); got != "Welcome test@email.com" {
		t.Fatalf("unexpected welcome %q", got)
	}

	empty := newForm(t, failWith(""))
	if got := empty.Welcome(ctx); got != empty.Printer().Message(messages.KeySignedIn) {
		t.Fatalf("unexpected welcome %q", got)
	}
}

func TestLabel(t *testing.T) {
	if got := label("display_name"); got != "Display Name" {
		t.Fatalf("unexpected label %q", got)
	}
}
