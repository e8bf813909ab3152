// Package multiagent coordinates executions across a registry of agents.
//
// The Orchestrator owns the concerns that sit above a single execution:
// agent registration and lookup, budget enforcement checked before any
// agent runs, retry with exponential backoff for transient failures, and
// exactly one audit record per dispatched execution. On top of single
// dispatch it offers sequential chains, parallel fan-out, and delegation
// between registered agents.
package multiagent

import (
	"context"
	"fmt"
	"time"

	"github.com/stratumhq/agentkit/agent"
	"github.com/stratumhq/agentkit/audit"
	"github.com/stratumhq/agentkit/engine"
	"github.com/stratumhq/agentkit/types"
)

// Option configures an Orchestrator at construction time.
type Option func(*Orchestrator)

// WithRepository swaps the agent store. Defaults to an in-memory Registry.
func WithRepository(repo Repository) Option {
	return func(o *Orchestrator) {
		if repo != nil {
			o.repo = repo
		}
	}
}

// WithEngine swaps the execution engine driving each attempt.
func WithEngine(eng *engine.Engine) Option {
	return func(o *Orchestrator) {
		if eng != nil {
			o.eng = eng
		}
	}
}

// WithAudit enables audit logging. Every call to ExecuteAgent writes
// exactly one record, retries included, to the given log.
func WithAudit(log audit.Log) Option {
	return func(o *Orchestrator) { o.auditLog = log }
}

// WithAuditErrorHandler receives errors from the audit log. Audit failures
// never fail the execution; without a handler they are dropped.
func WithAuditErrorHandler(fn func(error)) Option {
	return func(o *Orchestrator) { o.auditErrs = fn }
}

// WithRetryPolicy sets the retry policy. Invalid fields are normalized.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(o *Orchestrator) { o.retry = policy }
}

// WithBudgetEnforcement toggles the pre-dispatch budget check. Enabled by
// default; disabling it lets executions run the budget negative.
func WithBudgetEnforcement(enabled bool) Option {
	return func(o *Orchestrator) { o.enforceBudget = enabled }
}

// WithMaxExecutionTime bounds each attempt. Ignored when a custom engine
// is supplied through WithEngine.
func WithMaxExecutionTime(d time.Duration) Option {
	return func(o *Orchestrator) { o.maxExecutionTime = d }
}

// Orchestrator dispatches executions to registered agents with budget
// checks, retries, and audit logging. It is safe for concurrent use.
type Orchestrator struct {
	repo             Repository
	eng              *engine.Engine
	auditLog         audit.Log
	auditErrs        func(error)
	retry            RetryPolicy
	enforceBudget    bool
	maxExecutionTime time.Duration
}

// New builds an orchestrator. Without options it uses an in-memory
// registry, a plain engine, the default retry policy, budget enforcement
// on, and no audit log.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		retry:         defaultRetryPolicy(),
		enforceBudget: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.retry = normalizeRetryPolicy(o.retry)
	if o.repo == nil {
		o.repo = NewRegistry()
	}
	if o.eng == nil {
		o.eng = engine.New(engine.Config{MaxExecutionTime: o.maxExecutionTime})
	}
	return o
}

// RegisterAgent adds ag to the repository under its identity's ID.
func (o *Orchestrator) RegisterAgent(ag agent.Agent) error {
	return o.repo.Save(ag)
}

// UnregisterAgent removes the agent registered under id.
func (o *Orchestrator) UnregisterAgent(id string) error {
	return o.repo.Delete(id)
}

// GetAgent returns the agent registered under id.
func (o *Orchestrator) GetAgent(id string) (agent.Agent, bool) {
	return o.repo.FindByID(id)
}

// ListAgents returns the identities of all registered agents.
func (o *Orchestrator) ListAgents() []agent.Identity {
	return o.repo.List()
}

// ExecuteAgent dispatches one execution to the agent registered under id.
//
// The dispatch order is fixed: resolve the agent, check the remaining
// budget, then run the engine under a fresh trace, retrying failures that
// carry a retryable error with exponentially backed-off waits. The trace
// is sealed once, attached to the result, and its cost debited from run.
// One audit record covers the whole call, however many attempts it took.
//
// A registry miss fails immediately with ErrAgentNotFound and produces no
// trace and no audit record: nothing was dispatched. An exhausted budget
// fails with ErrBudgetExceeded before the agent runs, but still produces
// a sealed zero-duration trace and an audit record, so refusals show up in
// the same audit stream as executions.
func (o *Orchestrator) ExecuteAgent(ctx context.Context, id string, input any, run *agent.Context) types.Result[any] {
	ag, ok := o.repo.FindByID(id)
	if !ok {
		return types.Failure[any](fmt.Errorf("agent %q: %w", id, types.ErrAgentNotFound))
	}

	if o.enforceBudget && run != nil && run.RemainingBudget() <= 0 {
		tr := types.NewTrace(ag.Identity().ID)
		tr.Complete()
		res := types.Failure[any](fmt.Errorf("agent %q: %w", id, types.ErrBudgetExceeded)).WithTrace(tr)
		o.writeAudit(ctx, ag, run, input, res, tr, 0)
		return res
	}

	tr := types.NewTrace(ag.Identity().ID)
	ag.BindContext(run)
	cctx := types.ContextWithTrace(ctx, tr)

	res, attempts := o.executeWithRetry(cctx, ag, tr, input, run)

	tr.Complete()
	res = res.WithTrace(tr)
	if run != nil && tr.Cost() > 0 {
		run.DebitBudget(tr.Cost())
	}
	o.writeAudit(ctx, ag, run, input, res, tr, attempts-1)
	return res
}

// executeWithRetry runs the engine until it succeeds, fails fatally, or
// the policy is exhausted. It returns the last result and the number of
// attempts made. Each attempt is recorded as a trace step.
func (o *Orchestrator) executeWithRetry(ctx context.Context, ag agent.Agent, tr *types.Trace, input any, run *agent.Context) (types.Result[any], int) {
	attempt := 1
	for {
		started := time.Now().UTC()
		res := o.eng.Execute(ctx, ag, input, run)

		step := types.TraceStep{
			Name:      fmt.Sprintf("attempt %d", attempt),
			Kind:      "execution",
			StartedAt: started,
			Duration:  time.Since(started),
			Success:   !res.IsFailure(),
		}
		if res.IsFailure() && res.Err() != nil {
			step.Detail = res.Err().Error()
		}
		tr.AddStep(step)

		if !res.IsFailure() {
			return res, attempt
		}
		err := res.Err()
		if err == nil || !types.IsRetryable(err) {
			return res, attempt
		}
		if attempt > o.retry.MaxRetries {
			return res, attempt
		}

		select {
		case <-ctx.Done():
			return res, attempt
		case <-time.After(o.retry.backoffForAttempt(attempt)):
		}
		attempt++
	}
}

// writeAudit emits the single audit record for one ExecuteAgent call.
// Logging failures go to the configured error handler and never affect
// the execution result.
func (o *Orchestrator) writeAudit(ctx context.Context, ag agent.Agent, run *agent.Context, input any, res types.Result[any], tr *types.Trace, retries int) {
	if o.auditLog == nil {
		return
	}

	ident := ag.Identity()
	rec := audit.Record{
		ID:           tr.ID(),
		AgentID:      ident.ID,
		AgentName:    ident.Name,
		AgentVersion: ident.Version,
		Input:        audit.Snapshot(input),
		Success:      !res.IsFailure(),
		StartedAt:    tr.StartedAt(),
		CompletedAt:  tr.CompletedAt(),
		DurationMs:   tr.Duration().Milliseconds(),
		Cost:         tr.Cost(),
		Retries:      retries,
	}
	if res.IsFailure() {
		if err := res.Err(); err != nil {
			rec.Error = err.Error()
		} else {
			rec.Error = "execution failed"
		}
	} else {
		rec.Output = audit.Snapshot(res.Value())
	}
	if run != nil {
		rec.SessionID = run.SessionID
		rec.UserID = run.UserID
		rec.Environment = run.Environment
	}

	if err := o.auditLog.LogExecution(ctx, rec); err != nil && o.auditErrs != nil {
		o.auditErrs(err)
	}
}
