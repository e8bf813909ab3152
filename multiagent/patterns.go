package multiagent

import (
	"context"
	"sync"

	"github.com/stratumhq/agentkit/agent"
	"github.com/stratumhq/agentkit/types"
)

// ExecuteSequential runs the agents one at a time, feeding each successful
// value into the next agent's input. It stops at the first failure and
// returns the results gathered so far, so the slice length tells how far
// the chain got. Partial results keep the chain going; their value feeds
// forward like a success.
func (o *Orchestrator) ExecuteSequential(ctx context.Context, ids []string, input any, run *agent.Context) []types.Result[any] {
	results := make([]types.Result[any], 0, len(ids))
	value := input
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			results = append(results, types.Failure[any](err))
			return results
		}
		res := o.ExecuteAgent(ctx, id, value, run)
		results = append(results, res)
		if res.IsFailure() {
			return results
		}
		value = res.Value()
	}
	return results
}

// ExecuteParallel fans the same input out to all agents at once and waits
// for every one of them. It never short-circuits: the returned slice is
// index-aligned with ids and each slot carries that agent's own outcome,
// failures included. All executions share run, so parallel agents draw
// from one budget.
func (o *Orchestrator) ExecuteParallel(ctx context.Context, ids []string, input any, run *agent.Context) []types.Result[any] {
	results := make([]types.Result[any], len(ids))
	var wg sync.WaitGroup
	wg.Add(len(ids))
	for i, id := range ids {
		i, id := i, id
		go func() {
			defer wg.Done()
			results[i] = o.ExecuteAgent(ctx, id, input, run)
		}()
	}
	wg.Wait()
	return results
}
