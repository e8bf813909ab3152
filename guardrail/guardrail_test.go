package guardrail

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestPipelineCheckInputPassThrough(t *testing.T) {
	p := NewPipeline().AddInput(InputFunc("noop", func(ctx context.Context, input any) (Result, error) {
		return Result{Name: "noop"}, nil
	}))
	value, triggered, err := p.CheckInput(context.Background(), "hello")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if value != "hello" || len(triggered) != 0 {
		t.Fatalf("unexpected result: %v %v", value, triggered)
	}
}

func TestPipelineCheckInputBlocks(t *testing.T) {
	p := NewPipeline().
		AddInput(InputFunc("pii", func(ctx context.Context, input any) (Result, error) {
			return BlockResult("pii", "ssn detected"), nil
		})).
		AddInput(InputFunc("later", func(ctx context.Context, input any) (Result, error) {
			t.Fatalf("guardrails after a block must not run")
			return Result{}, nil
		}))

	_, triggered, err := p.CheckInput(context.Background(), "123-45-6789")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if len(triggered) != 1 || triggered[0].Action != ActionBlock {
		t.Fatalf("expected a single blocking result, got %v", triggered)
	}
}

func TestPipelineRedactsAndWarns(t *testing.T) {
	p := NewPipeline().
		AddInput(InputFunc("redactor", func(ctx context.Context, input any) (Result, error) {
			s, _ := input.(string)
			if !strings.Contains(s, "secret") {
				return Result{Name: "redactor"}, nil
			}
			return RedactResult("redactor", "secret removed", strings.ReplaceAll(s, "secret", "[redacted]")), nil
		})).
		AddInput(InputFunc("length", func(ctx context.Context, input any) (Result, error) {
			return WarnResult("length", "input is short"), nil
		}))

	value, triggered, err := p.CheckInput(context.Background(), "my secret plan")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if value != "my [redacted] plan" {
		t.Fatalf("redaction not applied: %v", value)
	}
	if len(triggered) != 2 {
		t.Fatalf("expected redact + warn, got %v", triggered)
	}
}

func TestPipelineCheckOutput(t *testing.T) {
	p := NewPipeline().AddOutput(OutputFunc("tone", func(ctx context.Context, output any) (Result, error) {
		return WarnResult("tone", "borderline"), nil
	}))
	value, triggered, err := p.CheckOutput(context.Background(), "fine")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if value != "fine" || len(triggered) != 1 {
		t.Fatalf("unexpected result: %v %v", value, triggered)
	}
}

func TestPipelineGuardErrorPropagates(t *testing.T) {
	boom := errors.New("guard crashed")
	p := NewPipeline().AddInput(InputFunc("broken", func(ctx context.Context, input any) (Result, error) {
		return Result{}, boom
	}))
	_, _, err := p.CheckInput(context.Background(), "x")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped guard error, got %v", err)
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Fatalf("error should name the guardrail: %v", err)
	}
}

func TestNilPipelineIsInert(t *testing.T) {
	var p *Pipeline
	value, triggered, err := p.CheckInput(context.Background(), "x")
	if err != nil || value != "x" || triggered != nil {
		t.Fatalf("nil pipeline should pass values through: %v %v %v", value, triggered, err)
	}
}
