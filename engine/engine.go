// Package engine runs exactly one agent once.
//
// The engine owns no orchestration concerns: no registry, no retries, no
// budget, no audit. It applies guardrails and lifecycle hooks around a
// single opaque invocation and classifies the outcome into a typed result.
// Faults raised by the agent body, hooks included, never escape as errors
// or panics; callers always receive a well-formed types.Result.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stratumhq/agentkit/agent"
	"github.com/stratumhq/agentkit/guardrail"
	"github.com/stratumhq/agentkit/types"
)

// Config controls one engine instance.
type Config struct {
	// MaxExecutionTime bounds a single execution. Zero means no limit. The
	// deadline is advisory: it is delivered through ctx, and an agent body
	// that ignores ctx keeps running even though the execution has already
	// been classified as timed out.
	MaxExecutionTime time.Duration
	// Guardrails, when set, screen the input before the agent body runs and
	// the output after it returns.
	Guardrails *guardrail.Pipeline
}

// Engine executes agents. It holds no mutable state beyond its injected
// configuration and is safe for concurrent use.
type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Execute runs ag once against input. Domain results returned by the agent
// body pass through unchanged apart from accumulated warnings and metadata;
// faults become failures carrying the error, the elapsed time, and the
// failing stage.
func (e *Engine) Execute(ctx context.Context, ag agent.Agent, input any, run *agent.Context) types.Result[any] {
	if ag == nil {
		return types.Failure[any](types.Fatal(errors.New("agent is nil")))
	}
	start := time.Now()

	cctx := ctx
	if e.cfg.MaxExecutionTime > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, e.cfg.MaxExecutionTime)
		defer cancel()
	}

	var warnings []string
	if e.cfg.Guardrails != nil {
		screened, triggered, err := e.cfg.Guardrails.CheckInput(cctx, input)
		if err != nil {
			return e.failure(ag, fmt.Errorf("input guardrail: %w", err), start, "guardrail")
		}
		for _, res := range triggered {
			if res.Action == guardrail.ActionBlock {
				err := types.Fatal(fmt.Errorf("input blocked by guardrail %q: %s", res.Name, res.Message))
				return e.failure(ag, err, start, "guardrail")
			}
			warnings = append(warnings, guardWarning(res))
		}
		input = screened
	}

	lc, hasHooks := ag.(agent.Lifecycle)
	if hasHooks {
		if err := lc.BeforeExecute(cctx, input, run); err != nil {
			err = fmt.Errorf("before hook: %w", err)
			lc.OnError(cctx, err)
			res := e.failure(ag, err, start, "before")
			res.AppendWarning(warnings...)
			return res
		}
	}

	out, err := invoke(cctx, ag, input, run)
	elapsed := time.Since(start)

	if err != nil {
		if e.cfg.MaxExecutionTime > 0 && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("%w after %s", types.ErrExecutionTimeout, e.cfg.MaxExecutionTime)
		}
		if hasHooks {
			lc.OnError(cctx, err)
		}
		res := e.failure(ag, err, start, "execution")
		res.AppendWarning(warnings...)
		return res
	}

	res, isDomain := out.(types.Result[any])
	if !isDomain {
		res = types.Success[any](out)
	}

	if e.cfg.Guardrails != nil && !res.IsFailure() {
		screened, triggered, gerr := e.cfg.Guardrails.CheckOutput(cctx, res.Value())
		if gerr != nil {
			fres := e.failure(ag, fmt.Errorf("output guardrail: %w", gerr), start, "guardrail")
			fres.AppendWarning(warnings...)
			return fres
		}
		for _, gres := range triggered {
			if gres.Action == guardrail.ActionBlock {
				blockErr := types.Fatal(fmt.Errorf("output blocked by guardrail %q: %s", gres.Name, gres.Message))
				fres := e.failure(ag, blockErr, start, "guardrail")
				fres.AppendWarning(warnings...)
				return fres
			}
			warnings = append(warnings, guardWarning(gres))
		}
		res = res.WithValue(screened)
	}

	res = res.WithMetadata("elapsedMs", elapsed.Milliseconds())
	if mn, ok := ag.(agent.ModelNamer); ok {
		res = res.WithMetadata("model", mn.ModelName())
	}
	res.AppendWarning(warnings...)

	if hasHooks {
		if res.IsFailure() {
			if err := res.Err(); err != nil {
				lc.OnError(cctx, err)
			}
		} else {
			lc.AfterExecute(cctx, &res)
		}
	}
	return res
}

// invoke shields the caller from panics in the agent body.
func invoke(ctx context.Context, ag agent.Agent, input any, run *agent.Context) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("agent %q panicked: %v", ag.Identity().Name, r)
		}
	}()
	return ag.Execute(ctx, input, run)
}

func (e *Engine) failure(ag agent.Agent, err error, start time.Time, stage string) types.Result[any] {
	res := types.Failure[any](err).
		WithMetadata("stage", stage).
		WithMetadata("elapsedMs", time.Since(start).Milliseconds())
	if mn, ok := ag.(agent.ModelNamer); ok {
		res = res.WithMetadata("model", mn.ModelName())
	}
	return res
}

func guardWarning(res guardrail.Result) string {
	if res.Message == "" {
		return fmt.Sprintf("guardrail %q triggered", res.Name)
	}
	return fmt.Sprintf("guardrail %q: %s", res.Name, res.Message)
}
