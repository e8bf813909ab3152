package multiagent

import "time"

const (
	defaultMaxRetries  = 3
	defaultBaseBackoff = 1000 * time.Millisecond
	defaultMaxBackoff  = 10000 * time.Millisecond
)

// RetryPolicy controls how failed executions are retried and how long to
// wait between attempts. Only failures carrying a retryable error are
// retried; registry misses and budget exhaustion never are.
type RetryPolicy struct {
	// MaxRetries is the number of additional attempts after the first
	// failure. Zero disables retrying.
	MaxRetries int
	// BaseBackoff is the wait before the first retry. Each further retry
	// doubles it.
	BaseBackoff time.Duration
	// MaxBackoff caps the doubling.
	MaxBackoff time.Duration
}

func defaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:  defaultMaxRetries,
		BaseBackoff: defaultBaseBackoff,
		MaxBackoff:  defaultMaxBackoff,
	}
}

// normalizeRetryPolicy fills unset fields with defaults and repairs
// inconsistent bounds so the retry loop never sees a zero or inverted
// backoff window.
func normalizeRetryPolicy(in RetryPolicy) RetryPolicy {
	out := in
	if out.MaxRetries < 0 {
		out.MaxRetries = 0
	}
	if out.BaseBackoff <= 0 {
		out.BaseBackoff = defaultBaseBackoff
	}
	if out.MaxBackoff <= 0 {
		out.MaxBackoff = defaultMaxBackoff
	}
	if out.MaxBackoff < out.BaseBackoff {
		out.MaxBackoff = out.BaseBackoff
	}
	return out
}

// backoffForAttempt returns how long to wait before retry number
// retryNumber (1-based): BaseBackoff doubled per retry, capped at
// MaxBackoff.
func (p RetryPolicy) backoffForAttempt(retryNumber int) time.Duration {
	if retryNumber < 1 {
		retryNumber = 1
	}
	delay := p.BaseBackoff
	for i := 1; i < retryNumber; i++ {
		delay *= 2
		if delay >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if delay > p.MaxBackoff {
		return p.MaxBackoff
	}
	return delay
}
