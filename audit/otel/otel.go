// Package otel bridges the audit.Log to OpenTelemetry tracing.
//
// It converts audit records into OTel spans so orchestrated executions
// are visible in any OpenTelemetry-compatible backend (Jaeger, Zipkin,
// Grafana, etc.) alongside the rest of a service's traces.
package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/stratumhq/agentkit/audit"
)

const instrumentationName = "github.com/stratumhq/agentkit/audit"

// Sink implements audit.Log by emitting one span per execution record.
type Sink struct {
	tracer trace.Tracer
}

// NewSink creates an OTel sink using the given TracerProvider.
// If tp is nil, it uses a noop tracer provider.
func NewSink(tp trace.TracerProvider) *Sink {
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	return &Sink{
		tracer: tp.Tracer(instrumentationName),
	}
}

// LogExecution converts an audit record into an OTel span spanning the
// execution's start and completion times.
func (s *Sink) LogExecution(_ context.Context, rec audit.Record) error {
	rec.Normalize()

	_, span := s.tracer.Start(context.Background(), spanNameFor(rec), trace.WithTimestamp(rec.StartedAt))

	attrs := []attribute.KeyValue{
		attribute.String("agent.id", rec.AgentID),
		attribute.Bool("agent.success", rec.Success),
	}
	if rec.AgentName != "" {
		attrs = append(attrs, attribute.String("agent.name", rec.AgentName))
	}
	if rec.AgentVersion != "" {
		attrs = append(attrs, attribute.String("agent.version", rec.AgentVersion))
	}
	if rec.SessionID != "" {
		attrs = append(attrs, attribute.String("agent.session.id", rec.SessionID))
	}
	if rec.UserID != "" {
		attrs = append(attrs, attribute.String("agent.user.id", rec.UserID))
	}
	if rec.Environment != "" {
		attrs = append(attrs, attribute.String("agent.environment", rec.Environment))
	}
	if rec.Cost != 0 {
		attrs = append(attrs, attribute.Float64("agent.cost", rec.Cost))
	}
	if rec.Retries > 0 {
		attrs = append(attrs, attribute.Int("agent.retries", rec.Retries))
	}
	if rec.DurationMs > 0 {
		attrs = append(attrs, attribute.Int64("agent.duration_ms", rec.DurationMs))
	}
	if rec.Error != "" {
		attrs = append(attrs, attribute.String("agent.error", truncate(rec.Error, 1024)))
	}
	span.SetAttributes(attrs...)

	if !rec.Success {
		span.SetStatus(codes.Error, rec.Error)
		if rec.Error != "" {
			span.RecordError(fmt.Errorf("%s", rec.Error))
		}
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End(trace.WithTimestamp(rec.CompletedAt))
	return nil
}

func spanNameFor(rec audit.Record) string {
	if rec.AgentName != "" {
		return "agent.execute." + rec.AgentName
	}
	if rec.AgentID != "" {
		return "agent.execute." + rec.AgentID
	}
	return "agent.execute"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

var _ audit.Log = (*Sink)(nil)
