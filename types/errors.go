package types

import "errors"

var (
	// ErrAgentNotFound reports a registry miss. Fatal, never retried.
	ErrAgentNotFound = errors.New("agent not found")
	// ErrBudgetExceeded reports an exhausted context budget. Fatal; the
	// orchestrator short-circuits before any agent invocation.
	ErrBudgetExceeded = errors.New("budget exceeded")
	// ErrExecutionTimeout reports that the advisory execution deadline was
	// exceeded. Retryable.
	ErrExecutionTimeout = errors.New("execution timed out")
	// ErrToolTimeout reports a per-call tool deadline. It surfaces inside a
	// ToolCallResult, never as a returned error.
	ErrToolTimeout = errors.New("tool call timed out")
)

type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// Fatal marks err as never retryable regardless of its type. Wrapping
// preserves errors.Is and errors.As against the original.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsRetryable reports whether a failed execution carrying err may be
// retried. Retryability is a property of the error data: nil errors,
// Fatal-wrapped errors, registry misses, and budget exhaustion are fatal;
// everything else, timeouts included, is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var fatal *fatalError
	if errors.As(err, &fatal) {
		return false
	}
	if errors.Is(err, ErrAgentNotFound) || errors.Is(err, ErrBudgetExceeded) {
		return false
	}
	return true
}
