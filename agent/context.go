package agent

import "sync"

// Context carries the per-invocation state an orchestrated execution shares
// down a pipeline or delegation chain: session and user identity, the
// deployment environment, and the remaining budget in currency units.
//
// A Context is owned by the caller and passed by pointer, so every agent in
// a chain observes the same budget. Budget access serializes internally;
// debiting is reserved to the orchestrator layer, which checks the balance
// before spending. Cancellation and deadlines travel on the context.Context
// handed to Execute, not here.
type Context struct {
	SessionID   string
	Environment string
	UserID      string

	mu        sync.Mutex
	remaining float64
}

// NewContext creates a context with the given budget.
func NewContext(budget float64) *Context {
	return &Context{remaining: budget}
}

// RemainingBudget returns the budget left on this context.
func (c *Context) RemainingBudget() float64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// DebitBudget subtracts amount and returns the new balance. The balance may
// go negative by at most the cost of the execution that exhausted it, since
// the orchestrator checks before spending rather than after.
func (c *Context) DebitBudget(amount float64) float64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remaining -= amount
	return c.remaining
}
