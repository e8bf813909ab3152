// Package guardrail declares the validation boundary around agent
// execution.
//
// Guardrails screen the value entering an agent (input) and the value it
// produces (output). They can block the execution, flag it with a warning,
// or redact the value and continue. The execution core invokes guardrails
// but does not implement any; concrete checks are supplied by the
// application.
package guardrail

import (
	"context"
	"fmt"
)

// Action defines what happens when a guardrail triggers.
type Action string

const (
	// ActionBlock rejects the execution entirely.
	ActionBlock Action = "block"
	// ActionWarn flags the issue but allows the execution to proceed.
	ActionWarn Action = "warn"
	// ActionRedact replaces the offending value and continues.
	ActionRedact Action = "redact"
)

// Result is returned by a guardrail check.
type Result struct {
	// Triggered is true if the guardrail matched.
	Triggered bool `json:"triggered"`
	// Action to take when triggered.
	Action Action `json:"action,omitempty"`
	// Name of the guardrail that fired.
	Name string `json:"name"`
	// Message describes what was detected.
	Message string `json:"message,omitempty"`
	// Redacted is the sanitized value (only for ActionRedact).
	Redacted any `json:"redacted,omitempty"`
}

// Input validates a value before it reaches the agent body.
type Input interface {
	Name() string
	CheckInput(ctx context.Context, input any) (Result, error)
}

// Output validates a value the agent body produced.
type Output interface {
	Name() string
	CheckOutput(ctx context.Context, output any) (Result, error)
}

// Guardrail is a convenience interface for guards that check both
// directions.
type Guardrail interface {
	Input
	Output
}

// Pipeline runs multiple guardrails in sequence.
type Pipeline struct {
	inputGuards  []Input
	outputGuards []Output
}

// NewPipeline creates a guardrail pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// AddInput registers an input guardrail.
func (p *Pipeline) AddInput(g Input) *Pipeline {
	p.inputGuards = append(p.inputGuards, g)
	return p
}

// AddOutput registers an output guardrail.
func (p *Pipeline) AddOutput(g Output) *Pipeline {
	p.outputGuards = append(p.outputGuards, g)
	return p
}

// Add registers a bidirectional guardrail for both input and output.
func (p *Pipeline) Add(g Guardrail) *Pipeline {
	p.inputGuards = append(p.inputGuards, g)
	p.outputGuards = append(p.outputGuards, g)
	return p
}

// CheckInput runs all input guardrails. A blocking result is returned alone
// and stops the scan; warnings and redactions accumulate. When ActionRedact
// triggers, the returned value is the redacted version.
func (p *Pipeline) CheckInput(ctx context.Context, input any) (any, []Result, error) {
	if p == nil {
		return input, nil, nil
	}
	value := input
	var triggered []Result
	for _, g := range p.inputGuards {
		res, err := g.CheckInput(ctx, value)
		if err != nil {
			return nil, nil, fmt.Errorf("guardrail %q failed: %w", g.Name(), err)
		}
		if !res.Triggered {
			continue
		}
		switch res.Action {
		case ActionBlock:
			return nil, []Result{res}, nil
		case ActionWarn:
			triggered = append(triggered, res)
		case ActionRedact:
			if res.Redacted != nil {
				value = res.Redacted
			}
			triggered = append(triggered, res)
		}
	}
	return value, triggered, nil
}

// CheckOutput runs all output guardrails with the same semantics as
// CheckInput.
func (p *Pipeline) CheckOutput(ctx context.Context, output any) (any, []Result, error) {
	if p == nil {
		return output, nil, nil
	}
	value := output
	var triggered []Result
	for _, g := range p.outputGuards {
		res, err := g.CheckOutput(ctx, value)
		if err != nil {
			return nil, nil, fmt.Errorf("guardrail %q failed: %w", g.Name(), err)
		}
		if !res.Triggered {
			continue
		}
		switch res.Action {
		case ActionBlock:
			return nil, []Result{res}, nil
		case ActionWarn:
			triggered = append(triggered, res)
		case ActionRedact:
			if res.Redacted != nil {
				value = res.Redacted
			}
			triggered = append(triggered, res)
		}
	}
	return value, triggered, nil
}

// InputGuards returns the registered input guardrails.
func (p *Pipeline) InputGuards() []Input { return p.inputGuards }

// OutputGuards returns the registered output guardrails.
func (p *Pipeline) OutputGuards() []Output { return p.outputGuards }

// BlockResult builds a blocking result.
func BlockResult(name, message string) Result {
	return Result{Triggered: true, Action: ActionBlock, Name: name, Message: message}
}

// WarnResult builds a warning result.
func WarnResult(name, message string) Result {
	return Result{Triggered: true, Action: ActionWarn, Name: name, Message: message}
}

// RedactResult builds a redaction result carrying the sanitized value.
func RedactResult(name, message string, redacted any) Result {
	return Result{Triggered: true, Action: ActionRedact, Name: name, Message: message, Redacted: redacted}
}

// InputFunc adapts a function into an input guardrail.
func InputFunc(name string, fn func(ctx context.Context, input any) (Result, error)) Input {
	return &funcGuard{name: name, input: fn}
}

// OutputFunc adapts a function into an output guardrail.
func OutputFunc(name string, fn func(ctx context.Context, output any) (Result, error)) Output {
	return &funcGuard{name: name, output: fn}
}

type funcGuard struct {
	name   string
	input  func(ctx context.Context, input any) (Result, error)
	output func(ctx context.Context, output any) (Result, error)
}

func (f *funcGuard) Name() string { return f.name }

func (f *funcGuard) CheckInput(ctx context.Context, input any) (Result, error) {
	if f.input == nil {
		return Result{Name: f.name}, nil
	}
	return f.input(ctx, input)
}

func (f *funcGuard) CheckOutput(ctx context.Context, output any) (Result, error) {
	if f.output == nil {
		return Result{Name: f.name}, nil
	}
	return f.output(ctx, output)
}
