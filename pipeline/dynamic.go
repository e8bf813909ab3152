package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/stratumhq/agentkit/agent"
	"github.com/stratumhq/agentkit/engine"
	"github.com/stratumhq/agentkit/types"
)

// Dynamic is a runtime-composed pipeline over a single value type. Stages
// may be added, inserted, and removed between executions; Execute works
// on a snapshot, so mutation during a run affects only later runs.
type Dynamic[T any] struct {
	mu    sync.RWMutex
	steps []Step
	eng   *engine.Engine
}

func NewDynamic[T any](opts ...Option) *Dynamic[T] {
	o := buildOptions(opts)
	return &Dynamic[T]{eng: o.eng}
}

// Add appends stages and returns the pipeline for chaining.
func (d *Dynamic[T]) Add(agents ...agent.TypedAgent[T, T]) *Dynamic[T] {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, ag := range agents {
		d.steps = append(d.steps, Step{Agent: ag})
	}
	return d
}

// AddStep appends stages with their hooks attached.
func (d *Dynamic[T]) AddStep(steps ...Step) *Dynamic[T] {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.steps = append(d.steps, steps...)
	return d
}

// InsertAt places a stage at position i, shifting later stages right.
// i may equal Len, which appends.
func (d *Dynamic[T]) InsertAt(i int, ag agent.TypedAgent[T, T]) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i < 0 || i > len(d.steps) {
		return fmt.Errorf("insert index %d out of range [0,%d]", i, len(d.steps))
	}
	d.steps = append(d.steps, Step{})
	copy(d.steps[i+1:], d.steps[i:])
	d.steps[i] = Step{Agent: ag}
	return nil
}

// RemoveAt deletes the stage at position i.
func (d *Dynamic[T]) RemoveAt(i int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i < 0 || i >= len(d.steps) {
		return fmt.Errorf("remove index %d out of range [0,%d)", i, len(d.steps))
	}
	d.steps = append(d.steps[:i], d.steps[i+1:]...)
	return nil
}

func (d *Dynamic[T]) Clear() *Dynamic[T] {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.steps = nil
	return d
}

func (d *Dynamic[T]) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.steps)
}

// Clone copies the stage list into a new pipeline without executing
// anything. Agents are shared between the original and the clone.
func (d *Dynamic[T]) Clone() *Dynamic[T] {
	return &Dynamic[T]{steps: d.snapshot(), eng: d.eng}
}

// Concat returns a new pipeline running this pipeline's stages followed
// by other's. Neither input is mutated.
func (d *Dynamic[T]) Concat(other *Dynamic[T]) *Dynamic[T] {
	steps := d.snapshot()
	if other != nil {
		steps = append(steps, other.snapshot()...)
	}
	return &Dynamic[T]{steps: steps, eng: d.eng}
}

// Engine exposes the engine stages run through, for sharing with a
// sibling pipeline.
func (d *Dynamic[T]) Engine() *engine.Engine { return d.eng }

func (d *Dynamic[T]) snapshot() []Step {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Step(nil), d.steps...)
}

// Execute runs the current stage list in order.
func (d *Dynamic[T]) Execute(ctx context.Context, input T, run *agent.Context) types.Result[T] {
	return types.As[T](runSteps(ctx, d.eng, d.snapshot(), input, run))
}
