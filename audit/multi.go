package audit

import (
	"context"
	"errors"
)

type MultiLog struct {
	logs []Log
}

// NewMulti fans records out to several logs. Nil entries are dropped; an
// empty set collapses to NopLog and a single survivor is returned as-is.
func NewMulti(logs ...Log) Log {
	filtered := make([]Log, 0, len(logs))
	for _, l := range logs {
		if l == nil {
			continue
		}
		filtered = append(filtered, l)
	}
	if len(filtered) == 0 {
		return NopLog{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &MultiLog{logs: filtered}
}

// LogExecution writes to every log even when one fails, so a flaky
// destination cannot starve the others of records.
func (m *MultiLog) LogExecution(ctx context.Context, rec Record) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, l := range m.logs {
		if err := l.LogExecution(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
