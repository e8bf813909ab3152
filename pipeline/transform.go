package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/stratumhq/agentkit/agent"
	"github.com/stratumhq/agentkit/types"
)

// ExecuteAndTransform runs a static pipeline and applies transform to the
// terminal value. A fault inside transform becomes a Failure without the
// pipeline being re-run.
func ExecuteAndTransform[I, O, R any](ctx context.Context, p *Pipeline[I, O], input I, run *agent.Context, transform func(O) (R, error)) types.Result[R] {
	return transformResult(p.Execute(ctx, input, run), transform)
}

// ExecuteAndTransformDynamic is ExecuteAndTransform for the runtime-composed
// variant.
func ExecuteAndTransformDynamic[T, R any](ctx context.Context, d *Dynamic[T], input T, run *agent.Context, transform func(T) (R, error)) types.Result[R] {
	return transformResult(d.Execute(ctx, input, run), transform)
}

// transformResult rewrites a completed result's value. Failures pass
// through untouched; warnings and the executed-stage count survive the
// rewrite.
func transformResult[T, R any](res types.Result[T], transform func(T) (R, error)) types.Result[R] {
	if res.IsFailure() {
		return types.As[R](types.Erase(res))
	}

	transformed, err := applyTransform(transform, res.Value())
	if err != nil {
		out := types.Failure[R](fmt.Errorf("transform: %w", err))
		out.AppendWarning(res.Warnings()...)
		return out
	}

	var out types.Result[R]
	if res.IsPartial() {
		out = types.Partial(transformed)
	} else {
		out = types.Success(transformed)
	}
	if v, ok := res.Meta(MetaExecutedStages); ok {
		out = out.WithMetadata(MetaExecutedStages, v)
	}
	out.AppendWarning(res.Warnings()...)
	return out
}

func applyTransform[T, R any](transform func(T) (R, error), value T) (out R, err error) {
	if transform == nil {
		return out, errors.New("transform function is nil")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panicked: %v", r)
		}
	}()
	return transform(value)
}
