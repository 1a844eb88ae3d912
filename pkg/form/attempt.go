package form

import (
	"context"
)

// Attempt tracks one invocation of the submit handler.
type Attempt struct {
	id         string
	generation uint64
	values     Values
	engine     *Engine

	done chan struct{}
	err  error
}

func newAttempt(engine *Engine, id string, generation uint64, values Values) *Attempt {
	return &Attempt{
		id:         id,
		generation: generation,
		values:     values,
		engine:     engine,
		done:       make(chan struct{}),
	}
}

func (a *Attempt) run(ctx context.Context, fn func(context.Context) error) {
	defer close(a.done)
	a.err = fn(ctx)
}

// ID returns the attempt identifier.
func (a *Attempt) ID() string {
	return a.id
}

// Generation returns the engine generation the attempt was started in.
func (a *Attempt) Generation() uint64 {
	return a.generation
}

// Values returns the values handed to the submit handler.
func (a *Attempt) Values() Values {
	return a.values.Clone()
}

// Done is closed once the handler returned.
func (a *Attempt) Done() <-chan struct{} {
	return a.done
}

// Wait blocks until the handler returned or ctx is done.
func (a *Attempt) Wait(ctx context.Context) error {
	select {
	case <-a.done:
		return a.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the handler error once finished, nil while running.
func (a *Attempt) Err() error {
	select {
	case <-a.done:
		return a.err
	default:
		return nil
	}
}

// Finished reports whether the handler has returned.
func (a *Attempt) Finished() bool {
	select {
	case <-a.done:
		return true
	default:
		return false
	}
}

// Stale reports whether the engine moved on (reset or a newer attempt)
// since this attempt started.
func (a *Attempt) Stale() bool {
	if a.engine == nil {
		return false
	}
	return a.engine.Generation() != a.generation
}
