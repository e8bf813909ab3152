// Package pipeline chains agents so each stage's output feeds the next
// stage's input. The static Pipeline checks stage compatibility at compile
// time through its type parameters; Dynamic trades that for runtime
// mutation of a same-typed stage list. Failures are annotated with the
// position and name of the stage that produced them.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/stratumhq/agentkit/agent"
	"github.com/stratumhq/agentkit/engine"
	"github.com/stratumhq/agentkit/types"
)

// MetaExecutedStages is the metadata key recording how many stages ran.
const MetaExecutedStages = "executedStages"

type Option func(*options)

type options struct {
	eng *engine.Engine
}

// WithEngine runs stages through a configured engine instead of a default
// one, picking up its guardrails and advisory deadline.
func WithEngine(eng *engine.Engine) Option {
	return func(o *options) { o.eng = eng }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.eng == nil {
		o.eng = engine.New(engine.Config{})
	}
	return o
}

// Step is one pipeline stage: an agent plus optional hooks that run
// outside the agent's own lifecycle. Before may rewrite the stage input;
// After observes the stage result and may append warnings.
type Step struct {
	Agent  agent.Agent
	Before func(ctx context.Context, input any) (any, error)
	After  func(ctx context.Context, res *types.Result[any])
}

// Pipeline is a static agent chain. The type parameters pin the chain's
// input and output types; Append and Concat are free functions because
// extending a chain introduces a new intermediate type parameter, which
// Go methods cannot do.
type Pipeline[I, O any] struct {
	steps []Step
	eng   *engine.Engine
}

// New starts a pipeline from its first stage.
func New[I, O any](first agent.TypedAgent[I, O], opts ...Option) *Pipeline[I, O] {
	o := buildOptions(opts)
	return &Pipeline[I, O]{steps: []Step{{Agent: first}}, eng: o.eng}
}

// FromSteps builds a pipeline from an explicit step list, typically to
// attach Before/After hooks. The caller vouches that each stage's output
// type matches the next stage's input type.
func FromSteps[I, O any](steps []Step, opts ...Option) *Pipeline[I, O] {
	o := buildOptions(opts)
	return &Pipeline[I, O]{steps: append([]Step(nil), steps...), eng: o.eng}
}

// Append extends a pipeline with a stage consuming its current output
// type. The original pipeline is left unchanged.
func Append[I, M, O any](p *Pipeline[I, M], next agent.TypedAgent[M, O]) *Pipeline[I, O] {
	steps := make([]Step, 0, len(p.steps)+1)
	steps = append(steps, p.steps...)
	steps = append(steps, Step{Agent: next})
	return &Pipeline[I, O]{steps: steps, eng: p.eng}
}

// Concat joins two pipelines whose types line up. Steps are copied;
// agents are shared, not cloned. The left pipeline's engine carries over.
func Concat[I, M, O any](left *Pipeline[I, M], right *Pipeline[M, O]) *Pipeline[I, O] {
	steps := make([]Step, 0, len(left.steps)+len(right.steps))
	steps = append(steps, left.steps...)
	steps = append(steps, right.steps...)
	return &Pipeline[I, O]{steps: steps, eng: left.eng}
}

func (p *Pipeline[I, O]) Len() int { return len(p.steps) }

// Steps returns a copy of the stage list.
func (p *Pipeline[I, O]) Steps() []Step {
	return append([]Step(nil), p.steps...)
}

// Execute runs the chain, feeding input through every stage in order.
func (p *Pipeline[I, O]) Execute(ctx context.Context, input I, run *agent.Context) types.Result[O] {
	return types.As[O](runSteps(ctx, p.eng, p.steps, input, run))
}

// runSteps is the shared execution loop for both pipeline variants. The
// returned result carries every stage's warnings and a MetaExecutedStages
// count; a failure at stage i stops the loop with stages i+1..n untouched.
func runSteps(ctx context.Context, eng *engine.Engine, steps []Step, input any, run *agent.Context) types.Result[any] {
	if len(steps) == 0 {
		res := types.Success[any](input).WithMetadata(MetaExecutedStages, 0)
		res.AppendWarning("pipeline is empty; input passed through unchanged")
		return res
	}

	var (
		warnings   []string
		sawPartial bool
	)
	value := input
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return stageFailure(i, len(steps), step, err, warnings)
		}

		if step.Before != nil {
			rewritten, err := step.Before(ctx, value)
			if err != nil {
				return stageFailure(i, len(steps), step, fmt.Errorf("before hook: %w", err), warnings)
			}
			value = rewritten
		}

		res := eng.Execute(ctx, step.Agent, value, run)
		if step.After != nil {
			step.After(ctx, &res)
		}
		warnings = append(warnings, res.Warnings()...)

		if res.IsFailure() {
			err := res.Err()
			if err == nil {
				err = errors.New("execution failed")
			}
			return stageFailure(i, len(steps), step, err, warnings)
		}
		if res.IsPartial() {
			sawPartial = true
		}
		value = res.Value()
	}

	var out types.Result[any]
	if sawPartial {
		out = types.Partial[any](value)
	} else {
		out = types.Success[any](value)
	}
	out = out.WithMetadata(MetaExecutedStages, len(steps))
	out.AppendWarning(warnings...)
	return out
}

func stageFailure(i, n int, step Step, err error, warnings []string) types.Result[any] {
	res := types.Failure[any](fmt.Errorf("stage %d/%d (%s): %w", i+1, n, stageName(step.Agent), err))
	res = res.WithMetadata(MetaExecutedStages, i)
	res.AppendWarning(warnings...)
	return res
}

func stageName(ag agent.Agent) string {
	if ag == nil {
		return "unknown"
	}
	id := ag.Identity()
	if id.Name != "" {
		return id.Name
	}
	return id.ID
}
