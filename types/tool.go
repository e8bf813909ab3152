package types

import (
	"encoding/json"
	"time"
)

// ToolCall is a model-requested invocation of a named tool with serialized
// arguments. It originates outside the execution core and is never mutated.
type ToolCall struct {
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	JSONSchema  map[string]any `json:"jsonSchema,omitempty"`
}

// ToolCallResult is the outcome of one tool call. Exactly one result is
// produced per dispatched call, successful or not.
type ToolCallResult struct {
	CallID   string        `json:"callId,omitempty"`
	Name     string        `json:"name"`
	Success  bool          `json:"success"`
	Data     any           `json:"data,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
	TimedOut bool          `json:"timedOut,omitempty"`
}

// BatchResult aggregates the results of one tool batch. Failed counts every
// unsuccessful call; TimedOut counts the subset of those that hit the
// per-call deadline. Duration is wall clock for the whole batch, not the sum
// of per-call durations.
type BatchResult struct {
	Results   []ToolCallResult `json:"results"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	TimedOut  int              `json:"timedOut"`
	Duration  time.Duration    `json:"duration"`
}
