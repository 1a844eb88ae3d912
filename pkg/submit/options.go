package submit

import (
	"log/slog"
	"strings"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRules replaces the rule table. Later rules win on duplicate codes.
func WithRules(rules ...Rule) Option {
	return func(o *Orchestrator) {
		o.rules = make(map[string]Rule, len(rules))
		for _, rule := range rules {
			o.addRule(rule)
		}
	}
}

// WithRule adds or replaces a single rule.
func WithRule(rule Rule) Option {
	return func(o *Orchestrator) {
		o.addRule(rule)
	}
}

// WithCredentialFields names the fields holding the email and password.
func WithCredentialFields(email, password string) Option {
	return func(o *Orchestrator) {
		if email = strings.TrimSpace(email); email != "" {
			o.emailField = email
		}
		if password = strings.TrimSpace(password); password != "" {
			o.passwordField = password
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}
