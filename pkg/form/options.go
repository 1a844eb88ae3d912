package form

import (
	"log/slog"
)

// Option configures an Engine.
type Option func(*Engine)

// ResetHook runs after the engine applied a new defaults configuration.
type ResetHook func(scope ResetScope)

// WithValidator installs the validator used by Errors and Submit.
func WithValidator(validator Validator) Option {
	return func(e *Engine) {
		e.validator = validator
	}
}

// WithSubmitHandler installs a plain asynchronous submit handler.
func WithSubmitHandler(handler SubmitHandler) Option {
	return func(e *Engine) {
		if handler != nil {
			e.starter = handler
		}
	}
}

// WithStarter installs a submit handler that needs a synchronous start step,
// such as clearing prior server errors before the attempt becomes visible.
func WithStarter(starter Starter) Option {
	return func(e *Engine) {
		if starter != nil {
			e.starter = starter
		}
	}
}

// WithSubmitPolicy overrides the default SubmitReject policy.
func WithSubmitPolicy(policy SubmitPolicy) Option {
	return func(e *Engine) {
		e.policy = policy
	}
}

// WithResetScope widens what a defaults change clears.
func WithResetScope(scope ResetScope) Option {
	return func(e *Engine) {
		e.scope = scope
	}
}

// WithResetHook registers a callback invoked after every reset.
func WithResetHook(hook ResetHook) Option {
	return func(e *Engine) {
		if hook != nil {
			e.resetHooks = append(e.resetHooks, hook)
		}
	}
}

// WithLogger sets the structured logger. Nil keeps the discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithIDGenerator overrides how attempt identifiers are produced.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}
