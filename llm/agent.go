package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stratumhq/agentkit/agent"
	"github.com/stratumhq/agentkit/tools"
	"github.com/stratumhq/agentkit/types"
)

const defaultMaxIterations = 6

// AgentOption configures a ModelAgent.
type AgentOption func(*ModelAgent)

// WithModel pins the model name sent with every request.
func WithModel(model string) AgentOption {
	return func(a *ModelAgent) { a.model = strings.TrimSpace(model) }
}

// WithExecutor gives the agent a tool executor. Its registry's
// definitions are advertised to the model on every request.
func WithExecutor(exec *tools.Executor) AgentOption {
	return func(a *ModelAgent) { a.executor = exec }
}

// WithMaxIterations bounds the generate-then-call-tools loop.
func WithMaxIterations(n int) AgentOption {
	return func(a *ModelAgent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// WithSystemPrompt is prepended to the input prompt on the first
// iteration.
func WithSystemPrompt(prompt string) AgentOption {
	return func(a *ModelAgent) { a.systemPrompt = strings.TrimSpace(prompt) }
}

// ModelAgent is an agent backed by a completion Provider. Each execution
// asks the model for a completion, runs any tool calls it requests, feeds
// the outcomes back, and repeats until the model answers without calls or
// the iteration cap is reached. Completion cost is accumulated on the
// trace of the surrounding execution, which is how budget debits learn
// about provider spend.
type ModelAgent struct {
	agent.Base
	provider      Provider
	model         string
	systemPrompt  string
	executor      *tools.Executor
	maxIterations int
}

// NewModelAgent builds a provider-backed agent.
func NewModelAgent(id agent.Identity, provider Provider, opts ...AgentOption) (*ModelAgent, error) {
	if provider == nil {
		return nil, errors.New("provider is required")
	}
	a := &ModelAgent{
		Base:          agent.NewBase(id),
		provider:      provider,
		maxIterations: defaultMaxIterations,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// ModelName reports the pinned model, falling back to the provider name.
func (a *ModelAgent) ModelName() string {
	if a.model != "" {
		return a.model
	}
	return a.provider.Name()
}

func (a *ModelAgent) Execute(ctx context.Context, input any, run *agent.Context) (any, error) {
	prompt := promptFrom(input)
	if a.systemPrompt != "" {
		prompt = a.systemPrompt + "\n\n" + prompt
	}

	var defs []types.ToolDefinition
	if a.executor != nil {
		defs = a.executor.Registry().Definitions()
	}

	for i := 0; i < a.maxIterations; i++ {
		comp, err := a.provider.Complete(ctx, Request{
			Model:  a.model,
			Prompt: prompt,
			Tools:  defs,
		})
		if err != nil {
			return nil, fmt.Errorf("generation failed: %w", err)
		}
		if comp.Cost > 0 {
			if tr, ok := types.TraceFromContext(ctx); ok {
				tr.AddCost(comp.Cost)
			}
		}

		if len(comp.ToolCalls) == 0 {
			if comp.Text == "" {
				return nil, errors.New("provider returned empty completion")
			}
			return comp.Text, nil
		}

		if a.executor == nil {
			return nil, types.Fatal(fmt.Errorf(
				"model requested %d tool calls but no executor is configured", len(comp.ToolCalls)))
		}
		batch := a.executor.ExecuteBatch(ctx, comp.ToolCalls)
		prompt = appendToolOutcomes(prompt, comp.Text, batch.Results)
	}
	return nil, fmt.Errorf("max iterations reached (%d)", a.maxIterations)
}

// promptFrom renders the execution input as prompt text.
func promptFrom(input any) string {
	switch v := input.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
		return fmt.Sprintf("%v", v)
	}
}

// appendToolOutcomes extends the prompt with what the model said and what
// each requested tool returned, so the next iteration sees the results.
func appendToolOutcomes(prompt, text string, results []types.ToolCallResult) string {
	var b strings.Builder
	b.WriteString(prompt)
	if text != "" {
		b.WriteString("\n\nassistant: ")
		b.WriteString(text)
	}
	for _, res := range results {
		b.WriteString("\ntool ")
		b.WriteString(res.Name)
		if res.Success {
			b.WriteString(" returned: ")
			if data, err := json.Marshal(res.Data); err == nil {
				b.Write(data)
			} else {
				fmt.Fprintf(&b, "%v", res.Data)
			}
		} else {
			b.WriteString(" failed: ")
			b.WriteString(res.Error)
		}
	}
	return b.String()
}

var _ agent.Agent = (*ModelAgent)(nil)
