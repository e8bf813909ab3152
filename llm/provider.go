// Package llm defines the boundary between agents and model providers.
// Agents depend on the Provider interface only; concrete clients live
// outside this module and plug in at wiring time.
package llm

import (
	"context"
	"errors"

	"github.com/stratumhq/agentkit/types"
)

// ErrNotSupported reports a capability the provider does not implement.
var ErrNotSupported = errors.New("operation not supported by provider")

// Capabilities describes what a provider can do beyond plain completion.
type Capabilities struct {
	Tools            bool
	Streaming        bool
	StructuredOutput bool
}

// Request is one completion request. Tools, when present, are advertised
// to the model so the completion may ask for calls.
type Request struct {
	Model  string                 `json:"model,omitempty"`
	Prompt string                 `json:"prompt"`
	Tools  []types.ToolDefinition `json:"tools,omitempty"`
}

// Usage counts tokens for one completion, when the provider reports them.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
	TotalTokens  int `json:"totalTokens"`
}

// Completion is the provider's answer. ToolCalls carries the calls the
// model requested; Cost is the spend in currency units, zero when the
// provider cannot price the request.
type Completion struct {
	Text      string           `json:"text"`
	Model     string           `json:"model,omitempty"`
	ToolCalls []types.ToolCall `json:"toolCalls,omitempty"`
	Usage     *Usage           `json:"usage,omitempty"`
	Cost      float64          `json:"cost,omitempty"`
}

// Provider generates completions.
type Provider interface {
	Name() string
	Capabilities() Capabilities
	Complete(ctx context.Context, req Request) (Completion, error)
}
