// Package audit records agent executions. The orchestrator writes exactly
// one record per execution, counting retries inside it rather than
// emitting a record per attempt. Implementations must tolerate concurrent
// appends.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record is one audit entry for one orchestrated execution.
type Record struct {
	ID           string    `json:"id,omitempty"`
	AgentID      string    `json:"agentId"`
	AgentName    string    `json:"agentName,omitempty"`
	AgentVersion string    `json:"agentVersion,omitempty"`
	SessionID    string    `json:"sessionId,omitempty"`
	UserID       string    `json:"userId,omitempty"`
	Environment  string    `json:"environment,omitempty"`
	Input        string    `json:"input,omitempty"`
	Output       string    `json:"output,omitempty"`
	Success      bool      `json:"success"`
	Error        string    `json:"error,omitempty"`
	StartedAt    time.Time `json:"startedAt"`
	CompletedAt  time.Time `json:"completedAt"`
	DurationMs   int64     `json:"durationMs"`
	Cost         float64   `json:"cost"`
	Retries      int       `json:"retries"`
}

func (r *Record) Normalize() {
	if r == nil {
		return
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}
	if r.CompletedAt.IsZero() {
		r.CompletedAt = r.StartedAt
	}
	if r.DurationMs == 0 {
		r.DurationMs = r.CompletedAt.Sub(r.StartedAt).Milliseconds()
	}
}

type Log interface {
	LogExecution(ctx context.Context, rec Record) error
}

type LogFunc func(ctx context.Context, rec Record) error

func (f LogFunc) LogExecution(ctx context.Context, rec Record) error {
	if f == nil {
		return nil
	}
	return f(ctx, rec)
}

type NopLog struct{}

func (NopLog) LogExecution(ctx context.Context, rec Record) error {
	_ = ctx
	_ = rec
	return nil
}

// Snapshot renders an input or output value for storage. Strings and
// byte slices pass through, errors keep their message, everything else is
// JSON when possible.
func Snapshot(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case error:
		return t.Error()
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}
