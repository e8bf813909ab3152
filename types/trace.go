package types

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Trace records the timing, cost, and sub-steps of one orchestrated
// execution. It is created at dispatch, mutated while the execution runs,
// and sealed exactly once by Complete; afterwards it travels read-only on
// the result.
type Trace struct {
	id      string
	agentID string

	mu          sync.Mutex
	startedAt   time.Time
	completedAt time.Time
	completed   bool
	cost        float64
	steps       []TraceStep
}

// TraceStep is one recorded sub-operation, typically a tool call.
type TraceStep struct {
	Name      string        `json:"name"`
	Kind      string        `json:"kind,omitempty"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Detail    string        `json:"detail,omitempty"`
}

// NewTrace starts a trace for the given agent.
func NewTrace(agentID string) *Trace {
	return &Trace{
		id:        uuid.NewString(),
		agentID:   agentID,
		startedAt: time.Now().UTC(),
	}
}

func (t *Trace) ID() string      { return t.id }
func (t *Trace) AgentID() string { return t.agentID }

func (t *Trace) StartedAt() time.Time { return t.startedAt }

// CompletedAt is the seal timestamp, zero until Complete has been called.
func (t *Trace) CompletedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completedAt
}

// Completed reports whether the trace has been sealed.
func (t *Trace) Completed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}

// Complete seals the trace. The first call sets the end timestamp; later
// calls are no-ops, so the end time is set at most once and is never before
// the start time.
func (t *Trace) Complete() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.completed {
		return
	}
	t.completed = true
	t.completedAt = time.Now().UTC()
	if t.completedAt.Before(t.startedAt) {
		t.completedAt = t.startedAt
	}
}

// Duration is the sealed execution time, zero until Complete.
func (t *Trace) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.completed {
		return 0
	}
	return t.completedAt.Sub(t.startedAt)
}

// Cost returns the accumulated cost in currency units.
func (t *Trace) Cost() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cost
}

// AddCost accumulates execution cost. Calls after the trace is sealed are
// ignored.
func (t *Trace) AddCost(delta float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.completed {
		return
	}
	t.cost += delta
}

// AddStep appends a sub-step. Calls after the trace is sealed are ignored.
func (t *Trace) AddStep(step TraceStep) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.completed {
		return
	}
	if step.StartedAt.IsZero() {
		step.StartedAt = time.Now().UTC()
	}
	t.steps = append(t.steps, step)
}

// Steps returns a copy of the recorded sub-steps.
func (t *Trace) Steps() []TraceStep {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]TraceStep(nil), t.steps...)
}

type traceContextKey struct{}

// ContextWithTrace attaches the trace of the current execution to ctx so
// that nested operations (tool batches in particular) can record sub-steps.
func ContextWithTrace(ctx context.Context, t *Trace) context.Context {
	if t == nil {
		return ctx
	}
	return context.WithValue(ctx, traceContextKey{}, t)
}

// TraceFromContext returns the trace attached by ContextWithTrace, if any.
func TraceFromContext(ctx context.Context) (*Trace, bool) {
	t, ok := ctx.Value(traceContextKey{}).(*Trace)
	return t, ok && t != nil
}
