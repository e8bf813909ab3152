package redisstream

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/stratumhq/agentkit/audit"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}
	stream := "agentkit:audittest:" + uuid.NewString()
	l, err := New(addr, WithStream(stream), WithMaxLen(100))
	if err != nil {
		t.Skipf("redis unavailable at %s: %v", addr, err)
	}
	t.Cleanup(func() {
		ctx := context.Background()
		_ = l.client.Del(ctx, l.stream).Err()
		_ = l.Close()
	})
	return l
}

func TestLog_AppendAndRecent(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()

	records := []audit.Record{
		{AgentID: "researcher", SessionID: "s1", Success: true, Cost: 0.5},
		{AgentID: "writer", SessionID: "s1", Success: false, Error: "provider down"},
	}
	for _, rec := range records {
		if err := l.LogExecution(ctx, rec); err != nil {
			t.Fatalf("log execution failed: %v", err)
		}
	}

	got, err := l.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].AgentID != "writer" || got[1].AgentID != "researcher" {
		t.Fatalf("expected newest first, got %+v", got)
	}
	if got[0].ID == "" {
		t.Fatalf("record not normalized before append: %+v", got[0])
	}
}

func TestLog_RequiresAddr(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatalf("expected error for blank addr")
	}
}
