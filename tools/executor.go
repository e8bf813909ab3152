package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stratumhq/agentkit/types"
)

// BatchConfig controls how an Executor dispatches tool calls.
type BatchConfig struct {
	// CallTimeout bounds each individual call. A call that exceeds it
	// produces a result with TimedOut set; nothing is thrown. Zero
	// disables the per-call deadline.
	CallTimeout time.Duration

	// MaxParallel caps how many calls run at once. Parallel batches are
	// dispatched in waves of this size; zero or negative runs the whole
	// batch as a single wave.
	MaxParallel int

	// Sequential forces calls to run one at a time in batch order.
	Sequential bool

	// ContinueOnError keeps dispatching after a failed call. When false,
	// a sequential run stops at the first failure and a parallel run
	// stops after the wave containing it. Calls already in flight run to
	// completion either way.
	ContinueOnError bool
}

// Executor runs tool calls against a registry with per-call deadlines,
// bounded parallelism, and a configurable failure policy. A call never
// returns an error to the caller: lookup misses, bad arguments, panics,
// and timeouts all become failed results so a batch always lines up with
// the calls that were dispatched.
type Executor struct {
	reg *Registry
	cfg BatchConfig
}

func NewExecutor(reg *Registry, cfg BatchConfig) *Executor {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Executor{reg: reg, cfg: cfg}
}

func (e *Executor) Registry() *Registry { return e.reg }

// ExecuteCall runs a single call outside any batch.
func (e *Executor) ExecuteCall(ctx context.Context, call types.ToolCall) types.ToolCallResult {
	return e.executeOne(ctx, e.reg.snapshot(), call)
}

// ExecuteBatch dispatches calls per the executor's config and returns one
// result per dispatched call, index-aligned with the input. When a batch
// halts early the result slice is truncated to the calls that actually
// ran. Duration is wall clock for the whole batch; Failed counts every
// unsuccessful call and TimedOut the subset that hit the deadline.
func (e *Executor) ExecuteBatch(ctx context.Context, calls []types.ToolCall) types.BatchResult {
	start := time.Now()
	toolset := e.reg.snapshot()

	var results []types.ToolCallResult
	if e.cfg.Sequential || e.cfg.MaxParallel == 1 || len(calls) < 2 {
		results = e.runSequential(ctx, toolset, calls)
	} else {
		results = e.runParallel(ctx, toolset, calls)
	}

	batch := types.BatchResult{Results: results, Duration: time.Since(start)}
	for _, res := range results {
		if res.Success {
			batch.Succeeded++
			continue
		}
		batch.Failed++
		if res.TimedOut {
			batch.TimedOut++
		}
	}
	return batch
}

func (e *Executor) runSequential(ctx context.Context, toolset map[string]Tool, calls []types.ToolCall) []types.ToolCallResult {
	results := make([]types.ToolCallResult, 0, len(calls))
	for _, call := range calls {
		res := e.executeOne(ctx, toolset, call)
		results = append(results, res)
		if !res.Success && !e.cfg.ContinueOnError {
			break
		}
	}
	return results
}

func (e *Executor) runParallel(ctx context.Context, toolset map[string]Tool, calls []types.ToolCall) []types.ToolCallResult {
	size := e.cfg.MaxParallel
	if size <= 0 || size > len(calls) {
		size = len(calls)
	}

	results := make([]types.ToolCallResult, len(calls))
	for begin := 0; begin < len(calls); begin += size {
		end := begin + size
		if end > len(calls) {
			end = len(calls)
		}

		var wg sync.WaitGroup
		wg.Add(end - begin)
		for i := begin; i < end; i++ {
			i := i
			go func() {
				defer wg.Done()
				results[i] = e.executeOne(ctx, toolset, calls[i])
			}()
		}
		wg.Wait()

		if !e.cfg.ContinueOnError {
			for i := begin; i < end; i++ {
				if !results[i].Success {
					return results[:end]
				}
			}
		}
	}
	return results
}

func (e *Executor) executeOne(ctx context.Context, toolset map[string]Tool, call types.ToolCall) types.ToolCallResult {
	start := time.Now()
	finish := func(res types.ToolCallResult) types.ToolCallResult {
		res.CallID = call.ID
		res.Name = call.Name
		res.Duration = time.Since(start)
		if tr, ok := types.TraceFromContext(ctx); ok {
			tr.AddStep(types.TraceStep{
				Name:      call.Name,
				Kind:      "tool",
				StartedAt: start,
				Duration:  res.Duration,
				Success:   res.Success,
				Detail:    res.Error,
			})
		}
		return res
	}

	tool, ok := toolset[call.Name]
	if !ok {
		return finish(types.ToolCallResult{Error: fmt.Sprintf("tool %q not found", call.Name)})
	}

	args := call.Arguments
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	if !json.Valid(args) {
		return finish(types.ToolCallResult{Error: fmt.Sprintf("tool %q: arguments are not valid JSON", call.Name)})
	}
	if err := validateArgs(tool.Definition(), args); err != nil {
		return finish(types.ToolCallResult{Error: err.Error()})
	}

	callCtx := ctx
	cancel := func() {}
	if e.cfg.CallTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, e.cfg.CallTimeout)
	}
	defer cancel()

	type outcome struct {
		data any
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("tool %q panicked: %v", call.Name, r)}
			}
		}()
		data, err := tool.Execute(callCtx, args)
		done <- outcome{data: data, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return finish(types.ToolCallResult{Error: out.err.Error()})
		}
		return finish(types.ToolCallResult{Success: true, Data: out.data})
	case <-callCtx.Done():
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return finish(types.ToolCallResult{
				TimedOut: true,
				Error:    fmt.Sprintf("%s after %s", types.ErrToolTimeout, e.cfg.CallTimeout),
			})
		}
		return finish(types.ToolCallResult{Error: callCtx.Err().Error()})
	}
}
