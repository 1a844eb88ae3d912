package form

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Engine holds the state of one form instance.
type Engine struct {
	mu sync.Mutex

	defaults  *Defaults
	values    Values
	touched   map[string]Latch
	submitted Latch

	validator  Validator
	starter    Starter
	policy     SubmitPolicy
	scope      ResetScope
	resetHooks []ResetHook
	logger     *slog.Logger
	newID      func() string

	generation uint64
	pending    *Attempt
}

// New creates an engine seeded with the provided defaults. A nil defaults
// configuration declares no fields.
func New(defaults *Defaults, options ...Option) *Engine {
	if defaults == nil {
		defaults = NewDefaults(nil)
	}
	e := &Engine{
		defaults: defaults,
		values:   defaults.Values(),
		touched:  make(map[string]Latch),
		policy:   SubmitReject,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:    newAttemptID,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	return e
}

func newAttemptID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Change sets the value of a declared field.
func (e *Engine) Change(field, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.defaults.Has(field) {
		return &FieldError{Op: "change", Field: field}
	}
	e.values[field] = value
	return nil
}

// Touch marks a declared field as interacted with. Repeated calls are no-ops.
func (e *Engine) Touch(field string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.defaults.Has(field) {
		return &FieldError{Op: "touch", Field: field}
	}
	latch := e.touched[field]
	if latch.Trip() {
		e.touched[field] = latch
	}
	return nil
}

// Errors runs the validator against the current values.
func (e *Engine) Errors() Errors {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.evaluate()
}

func (e *Engine) evaluate() Errors {
	if e.validator == nil {
		return Errors{}
	}
	return e.validator(e.values.Clone(), e.submitted.IsSet()).Clone()
}

// Submit latches the form as submitted and, when every declared field is
// non-empty and the validator reports nothing, starts the submit handler
// on a new goroutine. Blocked submissions return a *BlockedError.
func (e *Engine) Submit(ctx context.Context) (*Attempt, error) {
	if ctx == nil {
		return nil, errors.New("form: context is required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.submitted.Trip()

	errs := e.evaluate()
	empty := e.emptyFields()
	if len(errs) > 0 || len(empty) > 0 {
		e.logger.Debug("form submission blocked",
			"invalid", errs.Fields(),
			"empty", empty,
		)
		return nil, &BlockedError{Errors: errs, Empty: empty}
	}

	if e.starter == nil {
		return nil, ErrNoSubmitHandler
	}
	if e.policy == SubmitReject && e.pending != nil && !e.pending.Finished() {
		e.logger.Debug("form submission rejected while pending", "attempt", e.pending.ID())
		return nil, ErrSubmitPending
	}

	e.generation++
	values := e.values.Clone()
	attempt := newAttempt(e, e.newID(), e.generation, values)
	run := e.starter.Start(values.Clone())
	e.pending = attempt

	e.logger.Debug("form submission started",
		"attempt", attempt.ID(),
		"generation", attempt.Generation(),
	)
	go attempt.run(ctx, run)
	return attempt, nil
}

func (e *Engine) emptyFields() []string {
	var empty []string
	for _, field := range e.defaults.fields {
		if e.values[field] == "" {
			empty = append(empty, field)
		}
	}
	return empty
}

// SetDefaults applies a new defaults configuration. Passing the pointer the
// engine already holds (or nil) changes nothing. It reports whether a reset
// happened.
func (e *Engine) SetDefaults(defaults *Defaults) bool {
	e.mu.Lock()
	if defaults == nil || defaults == e.defaults {
		e.mu.Unlock()
		return false
	}

	e.defaults = defaults
	e.values = defaults.Values()
	e.touched = make(map[string]Latch)
	if e.scope.Submitted {
		e.submitted = Unset
	}
	// A reset makes the running attempt stale; it no longer blocks Submit.
	e.pending = nil
	e.generation++
	scope := e.scope
	hooks := append([]ResetHook(nil), e.resetHooks...)
	e.logger.Debug("form reset", "fields", defaults.Fields(), "generation", e.generation)
	e.mu.Unlock()

	for _, hook := range hooks {
		hook(scope)
	}
	return true
}

// Defaults returns the active defaults configuration.
func (e *Engine) Defaults() *Defaults {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.defaults
}

// Fields lists the declared field names.
func (e *Engine) Fields() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.defaults.Fields()
}

// Values returns a copy of the current values.
func (e *Engine) Values() Values {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.values.Clone()
}

// Value returns the current value of a field.
func (e *Engine) Value(field string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	value, ok := e.values[field]
	return value, ok
}

// Touched reports whether the field has been touched.
func (e *Engine) Touched(field string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.touched[field].IsSet()
}

// TouchedFields returns the touched state of every declared field.
func (e *Engine) TouchedFields() map[string]bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.touchedLocked()
}

func (e *Engine) touchedLocked() map[string]bool {
	out := make(map[string]bool, len(e.defaults.fields))
	for _, field := range e.defaults.fields {
		out[field] = e.touched[field].IsSet()
	}
	return out
}

// Submitted reports whether a submit has been attempted.
func (e *Engine) Submitted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitted.IsSet()
}

// Generation increments on every started attempt and every reset.
func (e *Engine) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// Pending returns the most recent attempt while it is still running.
func (e *Engine) Pending() *Attempt {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil || e.pending.Finished() {
		return nil
	}
	return e.pending
}

// Snapshot captures the full derived state in one consistent read.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		Values:     e.values.Clone(),
		Touched:    e.touchedLocked(),
		Submitted:  e.submitted.IsSet(),
		Errors:     e.evaluate(),
		Pending:    e.pending != nil && !e.pending.Finished(),
		Generation: e.generation,
	}
}
