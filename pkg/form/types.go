package form

import (
	"context"
	"sort"
)

// Values maps declared field names to their current string value.
type Values map[string]string

// Clone returns a shallow copy of the values.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for key, value := range v {
		out[key] = value
	}
	return out
}

// Errors maps field names to a human-readable message. A field without an
// entry is considered valid.
type Errors map[string]string

// Clone returns a copy of the errors. Nil input yields an empty map.
func (e Errors) Clone() Errors {
	out := make(Errors, len(e))
	for key, value := range e {
		out[key] = value
	}
	return out
}

// Fields returns the field names carrying an error, sorted.
func (e Errors) Fields() []string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validator derives validation errors from the full value set and the
// submitted latch. Implementations must be pure.
type Validator func(values Values, submitted bool) Errors

// SubmitHandler receives the values of a submission that passed validation.
type SubmitHandler func(ctx context.Context, values Values) error

// Start implements Starter. Nothing happens synchronously; the handler runs
// when the returned function is invoked.
func (h SubmitHandler) Start(values Values) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return h(ctx, values)
	}
}

// Starter splits a submission into a synchronous start step, run while the
// engine still holds its lock, and an asynchronous run step executed on the
// attempt goroutine.
type Starter interface {
	Start(values Values) func(ctx context.Context) error
}

// Defaults is the default-values configuration of a form. The set of keys
// is the set of declared fields. A Defaults value is immutable once built;
// engines compare configurations by pointer identity.
type Defaults struct {
	values map[string]string
	fields []string
}

// NewDefaults copies the provided map into a new configuration.
func NewDefaults(values map[string]string) *Defaults {
	d := &Defaults{
		values: make(map[string]string, len(values)),
		fields: make([]string, 0, len(values)),
	}
	for name, value := range values {
		d.values[name] = value
		d.fields = append(d.fields, name)
	}
	sort.Strings(d.fields)
	return d
}

// Fields lists the declared field names in sorted order.
func (d *Defaults) Fields() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.fields...)
}

// Has reports whether the field is declared.
func (d *Defaults) Has(field string) bool {
	if d == nil {
		return false
	}
	_, ok := d.values[field]
	return ok
}

// Values returns a fresh copy of the default values.
func (d *Defaults) Values() Values {
	if d == nil {
		return Values{}
	}
	return Values(d.values).Clone()
}

// Latch is a one-way flag. Exported operations only move it from Unset to
// Set; the engine clears latches on reset.
type Latch uint8

const (
	// Unset is the initial state of every latch.
	Unset Latch = iota
	// Set is terminal until the owning form resets.
	Set
)

// IsSet reports whether the latch has tripped.
func (l Latch) IsSet() bool {
	return l == Set
}

// Trip sets the latch and reports whether this call changed it.
func (l *Latch) Trip() bool {
	if *l == Set {
		return false
	}
	*l = Set
	return true
}

func (l Latch) String() string {
	if l == Set {
		return "set"
	}
	return "unset"
}

// SubmitPolicy decides what happens when Submit is called while an earlier
// attempt is still running.
type SubmitPolicy uint8

const (
	// SubmitReject refuses the new submission with ErrSubmitPending.
	SubmitReject SubmitPolicy = iota
	// SubmitOverlap starts the new attempt alongside the pending one.
	SubmitOverlap
)

func (p SubmitPolicy) String() string {
	switch p {
	case SubmitOverlap:
		return "overlap"
	default:
		return "reject"
	}
}

// ParseSubmitPolicy maps "reject" and "overlap" (case-sensitive) to a
// policy. Empty input selects SubmitReject.
func ParseSubmitPolicy(raw string) (SubmitPolicy, error) {
	switch raw {
	case "", "reject":
		return SubmitReject, nil
	case "overlap":
		return SubmitOverlap, nil
	default:
		return SubmitReject, &PolicyError{Value: raw}
	}
}

// ResetScope selects what, beyond values and touched state, is cleared when
// the defaults configuration changes.
type ResetScope struct {
	// Submitted clears the submitted latch.
	Submitted bool
	// ServerErrors is forwarded to reset hooks so the submission layer can
	// drop its field errors.
	ServerErrors bool
}

// State is an immutable snapshot of the engine for presentation layers.
type State struct {
	Values     Values
	Touched    map[string]bool
	Submitted  bool
	Errors     Errors
	Pending    bool
	Generation uint64
}
