package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stratumhq/agentkit/types"
)

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(ev string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) index(ev string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.events {
		if e == ev {
			return i
		}
	}
	return -1
}

// peak replays the start/end events and returns the highest number of
// calls that were in flight at once.
func (l *eventLog) peak() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	current, peak := 0, 0
	for _, e := range l.events {
		if strings.HasPrefix(e, "start") {
			current++
			if current > peak {
				peak = current
			}
		} else {
			current--
		}
	}
	return peak
}

func probeRegistry(log *eventLog) *Registry {
	reg := NewRegistry()
	reg.MustRegister(NewFuncTool("probe", "records start and end", nil, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args struct {
			I int `json:"i"`
		}
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, err
		}
		log.add(fmt.Sprintf("start %d", args.I))
		defer log.add(fmt.Sprintf("end %d", args.I))
		return args.I, nil
	}))
	return reg
}

func probeCalls(n int) []types.ToolCall {
	calls := make([]types.ToolCall, n)
	for i := range calls {
		calls[i] = types.ToolCall{
			ID:        fmt.Sprintf("c%d", i),
			Name:      "probe",
			Arguments: json.RawMessage(fmt.Sprintf(`{"i":%d}`, i)),
		}
	}
	return calls
}

func TestExecuteCallSuccess(t *testing.T) {
	log := &eventLog{}
	exec := NewExecutor(probeRegistry(log), BatchConfig{})
	res := exec.ExecuteCall(context.Background(), types.ToolCall{ID: "call-1", Name: "probe", Arguments: json.RawMessage(`{"i":7}`)})

	if !res.Success {
		t.Fatalf("expected success, got %#v", res)
	}
	if res.CallID != "call-1" || res.Name != "probe" {
		t.Fatalf("result not aligned with call: %#v", res)
	}
	if res.Data != 7 {
		t.Fatalf("unexpected data: %v", res.Data)
	}
}

func TestExecuteCallToolNotFound(t *testing.T) {
	exec := NewExecutor(NewRegistry(), BatchConfig{})
	res := exec.ExecuteCall(context.Background(), types.ToolCall{ID: "c1", Name: "ghost"})

	if res.Success {
		t.Fatalf("expected failure for unknown tool")
	}
	if !strings.Contains(res.Error, "not found") {
		t.Fatalf("unexpected error: %q", res.Error)
	}
}

func TestExecuteCallInvalidJSONArguments(t *testing.T) {
	log := &eventLog{}
	exec := NewExecutor(probeRegistry(log), BatchConfig{})
	res := exec.ExecuteCall(context.Background(), types.ToolCall{ID: "c1", Name: "probe", Arguments: json.RawMessage(`{bad`)})

	if res.Success {
		t.Fatalf("expected failure for invalid JSON")
	}
	if !strings.Contains(res.Error, "not valid JSON") {
		t.Fatalf("unexpected error: %q", res.Error)
	}
}

func TestExecuteCallSchemaViolation(t *testing.T) {
	reg := NewRegistry()
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"n": map[string]any{"type": "integer"}},
		"required":   []any{"n"},
	}
	reg.MustRegister(NewFuncTool("strict", "requires n", schema, func(ctx context.Context, raw json.RawMessage) (any, error) {
		return "ran", nil
	}))
	exec := NewExecutor(reg, BatchConfig{})
	res := exec.ExecuteCall(context.Background(), types.ToolCall{ID: "c1", Name: "strict", Arguments: json.RawMessage(`{}`)})

	if res.Success {
		t.Fatalf("schema violation must fail the call: %#v", res)
	}
	if !strings.Contains(res.Error, "rejected") {
		t.Fatalf("unexpected error: %q", res.Error)
	}
}

func TestExecuteCallPanicBecomesResult(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(NewFuncTool("bomb", "always panics", nil, func(ctx context.Context, raw json.RawMessage) (any, error) {
		panic("index out of range")
	}))
	exec := NewExecutor(reg, BatchConfig{})
	res := exec.ExecuteCall(context.Background(), types.ToolCall{ID: "c1", Name: "bomb"})

	if res.Success {
		t.Fatalf("expected failure after panic")
	}
	if !strings.Contains(res.Error, "panicked") {
		t.Fatalf("unexpected error: %q", res.Error)
	}
}

func TestExecuteCallTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	reg := NewRegistry()
	reg.MustRegister(NewFuncTool("stuck", "never returns on its own", nil, func(ctx context.Context, raw json.RawMessage) (any, error) {
		<-release
		return "late", nil
	}))
	exec := NewExecutor(reg, BatchConfig{CallTimeout: 50 * time.Millisecond})
	res := exec.ExecuteCall(context.Background(), types.ToolCall{ID: "c1", Name: "stuck"})

	if res.Success {
		t.Fatalf("expected timeout failure")
	}
	if !res.TimedOut {
		t.Fatalf("TimedOut not set: %#v", res)
	}
	if !strings.Contains(res.Error, "timed out") {
		t.Fatalf("unexpected error: %q", res.Error)
	}
	if res.Duration < 40*time.Millisecond {
		t.Fatalf("duration should cover the deadline wait, got %s", res.Duration)
	}
}

func TestExecuteCallParentCancellationIsNotTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	reg := NewRegistry()
	reg.MustRegister(NewFuncTool("stuck", "never returns on its own", nil, func(ctx context.Context, raw json.RawMessage) (any, error) {
		<-release
		return "late", nil
	}))
	exec := NewExecutor(reg, BatchConfig{CallTimeout: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := exec.ExecuteCall(ctx, types.ToolCall{ID: "c1", Name: "stuck"})

	if res.Success || res.TimedOut {
		t.Fatalf("parent cancellation must not count as timeout: %#v", res)
	}
	if !strings.Contains(res.Error, context.Canceled.Error()) {
		t.Fatalf("unexpected error: %q", res.Error)
	}
}

func TestExecuteCallRecordsTraceStep(t *testing.T) {
	log := &eventLog{}
	exec := NewExecutor(probeRegistry(log), BatchConfig{})

	tr := types.NewTrace("agent-1")
	ctx := types.ContextWithTrace(context.Background(), tr)
	exec.ExecuteCall(ctx, types.ToolCall{ID: "c1", Name: "probe", Arguments: json.RawMessage(`{"i":1}`)})

	steps := tr.Steps()
	if len(steps) != 1 {
		t.Fatalf("expected one trace step, got %d", len(steps))
	}
	if steps[0].Kind != "tool" || steps[0].Name != "probe" || !steps[0].Success {
		t.Fatalf("unexpected step: %#v", steps[0])
	}
}

func TestBatchParallelWaves(t *testing.T) {
	log := &eventLog{}
	exec := NewExecutor(probeRegistry(log), BatchConfig{MaxParallel: 2})
	batch := exec.ExecuteBatch(context.Background(), probeCalls(5))

	if len(batch.Results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(batch.Results))
	}
	for i, res := range batch.Results {
		if res.CallID != fmt.Sprintf("c%d", i) {
			t.Fatalf("result %d not index-aligned: %#v", i, res)
		}
		if !res.Success || res.Data != i {
			t.Fatalf("call %d failed: %#v", i, res)
		}
	}
	if batch.Succeeded != 5 || batch.Failed != 0 {
		t.Fatalf("unexpected counts: %+v", batch)
	}

	if got := log.peak(); got > 2 {
		t.Fatalf("parallelism cap exceeded: %d calls in flight", got)
	}
	// Waves are [0 1] [2 3] [4]; later waves must start after the
	// previous wave fully finished.
	for _, pair := range [][2]string{
		{"end 0", "start 2"}, {"end 1", "start 2"},
		{"end 0", "start 3"}, {"end 1", "start 3"},
		{"end 2", "start 4"}, {"end 3", "start 4"},
	} {
		before, after := log.index(pair[0]), log.index(pair[1])
		if before == -1 || after == -1 || before > after {
			t.Fatalf("wave barrier violated: %q at %d, %q at %d", pair[0], before, pair[1], after)
		}
	}
}

func TestBatchParallelHaltStopsAfterFailingWave(t *testing.T) {
	log := &eventLog{}
	reg := probeRegistry(log)
	reg.MustRegister(NewFuncTool("fail", "always fails", nil, func(ctx context.Context, raw json.RawMessage) (any, error) {
		return nil, errors.New("no luck")
	}))

	calls := probeCalls(4)
	calls[0] = types.ToolCall{ID: "c0", Name: "fail"}

	exec := NewExecutor(reg, BatchConfig{MaxParallel: 2})
	batch := exec.ExecuteBatch(context.Background(), calls)

	if len(batch.Results) != 2 {
		t.Fatalf("expected results only for the dispatched wave, got %d", len(batch.Results))
	}
	if batch.Results[0].Success {
		t.Fatalf("expected first call to fail")
	}
	if !batch.Results[1].Success {
		t.Fatalf("in-flight wave member should still complete: %#v", batch.Results[1])
	}
	if log.index("start 2") != -1 || log.index("start 3") != -1 {
		t.Fatalf("later waves must not be dispatched after a halt: %v", log.events)
	}
}

func TestBatchParallelContinueOnError(t *testing.T) {
	log := &eventLog{}
	reg := probeRegistry(log)
	reg.MustRegister(NewFuncTool("fail", "always fails", nil, func(ctx context.Context, raw json.RawMessage) (any, error) {
		return nil, errors.New("no luck")
	}))

	calls := probeCalls(4)
	calls[0] = types.ToolCall{ID: "c0", Name: "fail"}

	exec := NewExecutor(reg, BatchConfig{MaxParallel: 2, ContinueOnError: true})
	batch := exec.ExecuteBatch(context.Background(), calls)

	if len(batch.Results) != 4 {
		t.Fatalf("expected all 4 results, got %d", len(batch.Results))
	}
	if batch.Succeeded != 3 || batch.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", batch)
	}
}

func TestBatchSequentialStopsAtFailure(t *testing.T) {
	log := &eventLog{}
	reg := probeRegistry(log)
	reg.MustRegister(NewFuncTool("fail", "always fails", nil, func(ctx context.Context, raw json.RawMessage) (any, error) {
		return nil, errors.New("no luck")
	}))

	calls := probeCalls(3)
	calls[1] = types.ToolCall{ID: "c1", Name: "fail"}

	exec := NewExecutor(reg, BatchConfig{Sequential: true})
	batch := exec.ExecuteBatch(context.Background(), calls)

	if len(batch.Results) != 2 {
		t.Fatalf("expected halt after the failing call, got %d results", len(batch.Results))
	}
	if log.index("start 2") != -1 {
		t.Fatalf("third call must not run: %v", log.events)
	}

	exec = NewExecutor(reg, BatchConfig{Sequential: true, ContinueOnError: true})
	batch = exec.ExecuteBatch(context.Background(), calls)
	if len(batch.Results) != 3 {
		t.Fatalf("expected all results with ContinueOnError, got %d", len(batch.Results))
	}
}

func TestBatchCountsTimeoutsAsFailures(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	reg := NewRegistry()
	reg.MustRegister(NewFuncTool("ok", "returns", nil, func(ctx context.Context, raw json.RawMessage) (any, error) {
		return "done", nil
	}))
	reg.MustRegister(NewFuncTool("fail", "errors", nil, func(ctx context.Context, raw json.RawMessage) (any, error) {
		return nil, errors.New("no luck")
	}))
	reg.MustRegister(NewFuncTool("stuck", "hangs", nil, func(ctx context.Context, raw json.RawMessage) (any, error) {
		<-release
		return "late", nil
	}))

	exec := NewExecutor(reg, BatchConfig{CallTimeout: 30 * time.Millisecond, ContinueOnError: true})
	batch := exec.ExecuteBatch(context.Background(), []types.ToolCall{
		{ID: "c0", Name: "ok"},
		{ID: "c1", Name: "fail"},
		{ID: "c2", Name: "stuck"},
	})

	if batch.Succeeded != 1 || batch.Failed != 2 || batch.TimedOut != 1 {
		t.Fatalf("unexpected counts: %+v", batch)
	}
	if batch.Duration <= 0 {
		t.Fatalf("batch duration should be recorded")
	}
}

func TestStats(t *testing.T) {
	results := []types.ToolCallResult{
		{Success: true, Duration: 10 * time.Millisecond},
		{Success: false, Duration: 20 * time.Millisecond},
		{Success: true, Duration: 30 * time.Millisecond},
	}
	stats := Stats(results)

	if stats.Calls != 3 {
		t.Fatalf("unexpected call count: %d", stats.Calls)
	}
	if stats.SuccessRate != 2.0/3.0 {
		t.Fatalf("unexpected success rate: %v", stats.SuccessRate)
	}
	if stats.AvgDuration != 20*time.Millisecond {
		t.Fatalf("unexpected avg: %s", stats.AvgDuration)
	}
	if stats.MinDuration != 10*time.Millisecond || stats.MaxDuration != 30*time.Millisecond {
		t.Fatalf("unexpected spread: min %s max %s", stats.MinDuration, stats.MaxDuration)
	}
}

func TestStatsEmpty(t *testing.T) {
	if got := Stats(nil); got != (BatchStats{}) {
		t.Fatalf("expected zero stats, got %+v", got)
	}
}
