// Package agent defines the contract between the execution machinery and
// the units of work it runs. An agent takes an input and a shared execution
// context and produces a value or a fault; how it does that (LLM calls, tool
// batches, plain computation) is opaque to the engine and orchestrator.
package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/stratumhq/agentkit/types"
)

// Identity names an agent for registry lookup and audit correlation.
type Identity struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

func (id Identity) String() string {
	if id.Version == "" {
		return id.Name
	}
	return id.Name + "@" + id.Version
}

// Agent is a unit of work invokable with an input and a context.
//
// Execute returns a plain value for a success or an error for a fault. An
// agent that needs to convey a domain outcome directly (a partial result,
// warnings, extra metadata) may return a types.Result[any]; the engine
// passes such results through unchanged.
//
// BindContext is called by the orchestrator immediately before an
// orchestrated execution; BoundContext exposes the binding so a later
// delegation can run under the same context and budget.
type Agent interface {
	Identity() Identity
	Execute(ctx context.Context, input any, run *Context) (any, error)
	BindContext(run *Context)
	BoundContext() *Context
}

// Lifecycle is implemented by agents that want callbacks around their own
// execution. BeforeExecute runs ahead of the body; a non-nil error aborts
// the execution as a failure. AfterExecute runs on non-failed outcomes and
// may append warnings to the result but cannot change its type or value.
// OnError runs on faulted outcomes.
type Lifecycle interface {
	BeforeExecute(ctx context.Context, input any, run *Context) error
	AfterExecute(ctx context.Context, res *types.Result[any])
	OnError(ctx context.Context, err error)
}

// ModelNamer is implemented by agents backed by a model. The engine records
// the model name in result metadata.
type ModelNamer interface {
	ModelName() string
}

// TypedAgent is an Agent whose input and output types are known statically.
// Static pipelines use the type parameters to verify at compile time that
// adjacent stages line up.
type TypedAgent[I, O any] interface {
	Agent
	Run(ctx context.Context, input I, run *Context) (O, error)
}

// Base supplies Identity and bound-context plumbing for embedding in agent
// implementations.
type Base struct {
	id Identity

	mu    sync.RWMutex
	bound *Context
}

// NewBase creates an embeddable Base. An empty ID defaults to the name.
func NewBase(id Identity) Base {
	if id.ID == "" {
		id.ID = id.Name
	}
	return Base{id: id}
}

func (b *Base) Identity() Identity { return b.id }

func (b *Base) BindContext(run *Context) {
	b.mu.Lock()
	b.bound = run
	b.mu.Unlock()
}

func (b *Base) BoundContext() *Context {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bound
}

// Func adapts a typed function into an Agent. The type parameters carry the
// stage signature that static pipelines check at compile time.
type Func[I, O any] struct {
	Base
	fn func(ctx context.Context, input I, run *Context) (O, error)
}

// NewFunc wraps fn as an agent named name. The name doubles as the registry
// ID.
func NewFunc[I, O any](name string, fn func(ctx context.Context, input I, run *Context) (O, error)) *Func[I, O] {
	return &Func[I, O]{Base: NewBase(Identity{Name: name}), fn: fn}
}

func (f *Func[I, O]) Execute(ctx context.Context, input any, run *Context) (any, error) {
	in, ok := input.(I)
	if !ok {
		var want I
		return nil, fmt.Errorf("agent %q: expected input of type %T, got %T", f.Identity().Name, want, input)
	}
	return f.Run(ctx, in, run)
}

// Run invokes the typed function directly, bypassing the erased Execute
// path.
func (f *Func[I, O]) Run(ctx context.Context, input I, run *Context) (O, error) {
	if f.fn == nil {
		var zero O
		return zero, fmt.Errorf("agent %q has no body", f.Identity().Name)
	}
	return f.fn(ctx, input, run)
}

// AsTyped wraps an untyped agent with a typed signature so it can join a
// static pipeline. The input assertion moves to runtime; outputs that are
// not O (including domain results carrying a non-O value) fail the Run.
func AsTyped[I, O any](ag Agent) TypedAgent[I, O] {
	return &typedWrapper[I, O]{Agent: ag}
}

type typedWrapper[I, O any] struct {
	Agent
}

func (w *typedWrapper[I, O]) Run(ctx context.Context, input I, run *Context) (O, error) {
	var zero O
	out, err := w.Execute(ctx, input, run)
	if err != nil {
		return zero, err
	}
	if res, ok := out.(types.Result[any]); ok {
		if res.IsFailure() {
			if res.Err() != nil {
				return zero, res.Err()
			}
			return zero, fmt.Errorf("agent %q failed", w.Identity().Name)
		}
		out = res.Value()
	}
	value, ok := out.(O)
	if !ok {
		return zero, fmt.Errorf("agent %q: expected output of type %T, got %T", w.Identity().Name, zero, out)
	}
	return value, nil
}
