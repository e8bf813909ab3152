package multiagent

import (
	"context"
	"errors"
	"fmt"

	"github.com/stratumhq/agentkit/types"
)

// ErrNoBoundContext reports a delegation from an agent that has never been
// executed, so it has no execution context to hand to the delegate.
var ErrNoBoundContext = errors.New("agent has no bound context")

// DelegateToAgent executes the agent registered under toID on behalf of
// the agent registered under fromID, reusing the delegator's bound
// execution context. The delegate therefore spends from the same budget
// and is audited under the same session.
//
// Delegation fails fast, without dispatching, when the delegator is not
// registered or has no bound context; both conditions are wiring mistakes
// that retrying cannot fix.
func (o *Orchestrator) DelegateToAgent(ctx context.Context, fromID, toID string, input any) types.Result[any] {
	from, ok := o.repo.FindByID(fromID)
	if !ok {
		return types.Failure[any](fmt.Errorf("delegating agent %q: %w", fromID, types.ErrAgentNotFound))
	}
	bound := from.BoundContext()
	if bound == nil {
		return types.Failure[any](types.Fatal(fmt.Errorf("delegating agent %q: %w", fromID, ErrNoBoundContext)))
	}
	return o.ExecuteAgent(ctx, toID, input, bound)
}
