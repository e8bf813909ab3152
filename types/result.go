package types

import "fmt"

// Status classifies an execution outcome.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailure Status = "failure"
)

// Result is the outcome of one execution. Success and partial results carry
// a value; failures carry an error. Warnings and metadata ride along in every
// state and accumulate as a result moves through pipeline stages.
//
// Results are immutable once constructed: the With* methods return copies.
// The one in-place mutator is AppendWarning, which lets lifecycle hooks flag
// a result without being able to change its status, value, or error.
type Result[T any] struct {
	status   Status
	value    T
	err      error
	warnings []string
	metadata map[string]any
	trace    *Trace
}

// Success wraps a value in a successful result.
func Success[T any](value T) Result[T] {
	return Result[T]{status: StatusSuccess, value: value}
}

// Partial wraps a usable-but-flagged value together with the warnings that
// flagged it.
func Partial[T any](value T, warnings ...string) Result[T] {
	return Result[T]{
		status:   StatusPartial,
		value:    value,
		warnings: append([]string(nil), warnings...),
	}
}

// Failure wraps an error in a failed result. A nil error is allowed and marks
// the failure as not retryable.
func Failure[T any](err error) Result[T] {
	return Result[T]{status: StatusFailure, err: err}
}

func (r Result[T]) Status() Status  { return r.status }
func (r Result[T]) IsSuccess() bool { return r.status == StatusSuccess }
func (r Result[T]) IsPartial() bool { return r.status == StatusPartial }
func (r Result[T]) IsFailure() bool { return r.status == StatusFailure }

// Value returns the carried value. For failures it is the zero value.
func (r Result[T]) Value() T { return r.value }

// Err returns the error of a failed result, nil otherwise.
func (r Result[T]) Err() error { return r.err }

// Warnings returns a copy of the accumulated warnings.
func (r Result[T]) Warnings() []string {
	return append([]string(nil), r.warnings...)
}

// Metadata returns a copy of the attached metadata.
func (r Result[T]) Metadata() map[string]any {
	if len(r.metadata) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(r.metadata))
	for k, v := range r.metadata {
		out[k] = v
	}
	return out
}

// Meta looks up one metadata entry.
func (r Result[T]) Meta(key string) (any, bool) {
	v, ok := r.metadata[key]
	return v, ok
}

// Trace returns the execution trace attached by the orchestrator, if any.
func (r Result[T]) Trace() *Trace { return r.trace }

// WithMetadata returns a copy of the result with one metadata entry set.
func (r Result[T]) WithMetadata(key string, value any) Result[T] {
	out := r
	out.metadata = make(map[string]any, len(r.metadata)+1)
	for k, v := range r.metadata {
		out.metadata[k] = v
	}
	out.metadata[key] = value
	return out
}

// WithTrace returns a copy of the result with the trace attached.
func (r Result[T]) WithTrace(t *Trace) Result[T] {
	out := r
	out.trace = t
	return out
}

// WithValue returns a copy of the result carrying value instead of the
// original. Status, error, warnings, and metadata are preserved; this exists
// for redaction-style rewrites, not for changing an outcome.
func (r Result[T]) WithValue(value T) Result[T] {
	out := r
	out.value = value
	return out
}

// AppendWarning adds warnings in place. It is the only in-place mutator on a
// result and is how lifecycle hooks and guardrails flag an outcome.
func (r *Result[T]) AppendWarning(warnings ...string) {
	r.warnings = append(r.warnings, warnings...)
}

// Erase widens a typed result for transport through the any-typed engine and
// orchestrator layers.
func Erase[T any](r Result[T]) Result[any] {
	return Result[any]{
		status:   r.status,
		value:    r.value,
		err:      r.err,
		warnings: r.warnings,
		metadata: r.metadata,
		trace:    r.trace,
	}
}

// As narrows an untyped result to a concrete value type, preserving the
// error, warnings, metadata, and trace. A failure converts directly; a
// success or partial whose value is not a T becomes a failure describing the
// mismatch.
func As[T any](r Result[any]) Result[T] {
	out := Result[T]{
		status:   r.status,
		err:      r.err,
		warnings: r.warnings,
		metadata: r.metadata,
		trace:    r.trace,
	}
	if r.status == StatusFailure {
		return out
	}
	value, ok := r.value.(T)
	if !ok {
		out.status = StatusFailure
		out.err = fmt.Errorf("unexpected result value type %T", r.value)
		var zero T
		out.value = zero
		return out
	}
	out.value = value
	return out
}
