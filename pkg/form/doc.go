// Package form implements a framework-agnostic form state engine.
//
// An Engine owns field values, per-field touched latches, and a one-shot
// submitted latch. Validation errors are never stored: every call to
// Engine.Errors (and every Submit) re-runs the owner's Validator against the
// current values. Submission is asynchronous; Submit starts the configured
// Starter on its own goroutine and hands back an Attempt the caller can wait
// on.
package form
