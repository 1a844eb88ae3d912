package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	formstate "github.com/goliatone/go-formstate"
	"github.com/goliatone/go-formstate/pkg/auth"
	"github.com/goliatone/go-formstate/pkg/auth/firebase"
	"github.com/goliatone/go-formstate/pkg/auth/sqlite"
	"github.com/goliatone/go-formstate/pkg/config"
	"github.com/goliatone/go-formstate/pkg/openapi"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// newProvider returns an uninitialised provider for the configured backend.
func newProvider(cfg *config.Config, logger *slog.Logger) *auth.Provider {
	return auth.NewProvider(func(ctx context.Context) (auth.Authenticator, error) {
		switch cfg.Provider {
		case config.ProviderFirebase:
			options := []firebase.Option{firebase.WithLogger(logger)}
			if cfg.Firebase.Endpoint != "" {
				options = append(options, firebase.WithEndpoint(cfg.Firebase.Endpoint))
			}
			return firebase.New(cfg.Firebase.APIKey, options...)
		case config.ProviderSQLite:
			return sqlite.Open(cfg.SQLite.Path)
		default:
			return nil, fmt.Errorf("cli: unknown provider %q", cfg.Provider)
		}
	})
}

// loadRuleSet reads the optional form definition.
func loadRuleSet(ctx context.Context, cfg *config.Config) (*validation.RuleSet, error) {
	switch {
	case cfg.Form.Rules != "":
		data, err := os.ReadFile(cfg.Form.Rules)
		if err != nil {
			return nil, fmt.Errorf("cli: read rules: %w", err)
		}
		return validation.ParseRuleSet(data)
	case cfg.Form.OpenAPI != "":
		src, err := openapi.ParseSource(cfg.Form.OpenAPI)
		if err != nil {
			return nil, err
		}
		doc, err := openapi.LoadSource(ctx, src, openapi.WithHTTPFallback(30*time.Second))
		if err != nil {
			return nil, err
		}
		return openapi.RuleSetFromOperation(doc, cfg.Form.Operation)
	default:
		return nil, nil
	}
}

// newLoginForm assembles the form from configuration.
func newLoginForm(ctx context.Context, cfg *config.Config, authenticator auth.Authenticator, logger *slog.Logger) (*formstate.LoginForm, error) {
	policy, err := cfg.SubmitPolicy()
	if err != nil {
		return nil, err
	}
	rules, err := loadRuleSet(ctx, cfg)
	if err != nil {
		return nil, err
	}

	options := []formstate.Option{
		formstate.WithLocale(cfg.Locale),
		formstate.WithSubmitPolicy(policy),
		formstate.WithResetScope(cfg.ResetScope()),
		formstate.WithLogger(logger),
	}
	if rules != nil {
		options = append(options, formstate.WithRuleSet(rules))
	}
	return formstate.NewLoginForm(authenticator, options...)
}
