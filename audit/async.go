package audit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrLogClosed is returned for records arriving after Close.
var ErrLogClosed = errors.New("audit log is closed")

type AsyncLog struct {
	downstream Log
	queue      chan Record
	done       chan struct{}
	dropped    atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// NewAsync decouples audit writes from the execution path by queueing
// records for a background writer. A full queue drops the record and
// counts it instead of blocking.
func NewAsync(downstream Log, buffer int) *AsyncLog {
	if downstream == nil {
		downstream = NopLog{}
	}
	if buffer <= 0 {
		buffer = 256
	}
	al := &AsyncLog{
		downstream: downstream,
		queue:      make(chan Record, buffer),
		done:       make(chan struct{}),
	}
	go al.loop()
	return al
}

func (l *AsyncLog) LogExecution(ctx context.Context, rec Record) error {
	if l == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	rec.Normalize()

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrLogClosed
	}
	select {
	case l.queue <- rec:
		return nil
	default:
		// Drop on pressure to avoid blocking the execution hot path.
		l.dropped.Add(1)
		return nil
	}
}

// Dropped reports how many records were discarded because the queue was
// full.
func (l *AsyncLog) Dropped() int64 {
	if l == nil {
		return 0
	}
	return l.dropped.Load()
}

// Close stops accepting records and waits for the queue to drain.
// Subsequent calls are no-ops.
func (l *AsyncLog) Close() {
	if l == nil {
		return
	}
	l.mu.Lock()
	alreadyClosed := l.closed
	l.closed = true
	if !alreadyClosed {
		close(l.queue)
	}
	l.mu.Unlock()
	<-l.done
}

func (l *AsyncLog) loop() {
	defer close(l.done)
	for rec := range l.queue {
		_ = l.downstream.LogExecution(context.Background(), rec)
	}
}

var _ Log = (*AsyncLog)(nil)
