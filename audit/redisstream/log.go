// Package redisstream appends audit records to a capped Redis stream,
// suitable for tailing executions across processes.
package redisstream

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/stratumhq/agentkit/audit"
)

const (
	defaultStream = "agentkit:audit"
	defaultMaxLen = 10000
)

type Log struct {
	client   *goredis.Client
	addr     string
	password string
	db       int
	stream   string
	maxLen   int64
	owned    bool
}

type Option func(*Log)

func WithClient(client *goredis.Client) Option {
	return func(l *Log) {
		if client != nil {
			l.client = client
		}
	}
}

func WithStream(stream string) Option {
	return func(l *Log) {
		stream = strings.TrimSpace(stream)
		if stream != "" {
			l.stream = stream
		}
	}
}

// WithMaxLen caps the stream length; Redis trims approximately.
func WithMaxLen(maxLen int64) Option {
	return func(l *Log) {
		if maxLen > 0 {
			l.maxLen = maxLen
		}
	}
}

func WithPassword(password string) Option {
	return func(l *Log) { l.password = password }
}

func WithDB(db int) Option {
	return func(l *Log) { l.db = db }
}

func New(addr string, opts ...Option) (*Log, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	l := &Log{
		addr:   addr,
		stream: defaultStream,
		maxLen: defaultMaxLen,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.client == nil {
		l.client = goredis.NewClient(&goredis.Options{Addr: l.addr, Password: l.password, DB: l.db})
		l.owned = true
	}
	if err := l.client.Ping(context.Background()).Err(); err != nil {
		if l.owned {
			_ = l.client.Close()
		}
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return l, nil
}

func (l *Log) LogExecution(ctx context.Context, rec audit.Record) error {
	if l == nil || l.client == nil {
		return nil
	}
	rec.Normalize()
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal audit record: %w", err)
	}
	err = l.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: l.stream,
		MaxLen: l.maxLen,
		Approx: true,
		Values: map[string]any{"record": string(payload)},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

// Recent returns up to count records, newest first. Entries that fail to
// decode are skipped.
func (l *Log) Recent(ctx context.Context, count int) ([]audit.Record, error) {
	if l == nil || l.client == nil {
		return nil, nil
	}
	if count <= 0 {
		count = 50
	}
	msgs, err := l.client.XRevRangeN(ctx, l.stream, "+", "-", int64(count)).Result()
	if err != nil {
		if err == goredis.Nil {
			return []audit.Record{}, nil
		}
		return nil, fmt.Errorf("failed to read audit stream: %w", err)
	}
	out := make([]audit.Record, 0, len(msgs))
	for _, msg := range msgs {
		payload, _ := msg.Values["record"].(string)
		if payload == "" {
			continue
		}
		var rec audit.Record
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (l *Log) Stream() string {
	return l.stream
}

// Close releases the client when this log created it; injected clients
// stay open.
func (l *Log) Close() error {
	if l == nil || l.client == nil || !l.owned {
		return nil
	}
	return l.client.Close()
}

var _ audit.Log = (*Log)(nil)
