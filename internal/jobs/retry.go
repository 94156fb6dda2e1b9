package job

import (
	"time"

	config "github.com/maheshrc27/socialflow/configs"
)

// RetryPolicy decides what happens to a unit after a failed attempt. attempts counts the
// failed attempts including the one just made.
type RetryPolicy interface {
	Next(attempts int, now time.Time) (nextAttemptAt *time.Time, giveUp bool)
}

// UnboundedRetry keeps a failed unit due on the very next tick, forever.
type UnboundedRetry struct{}

func (UnboundedRetry) Next(int, time.Time) (*time.Time, bool) {
	return nil, false
}

// maxBackoff caps the delay when no Max is configured.
const maxBackoff = 24 * time.Hour

// CappedBackoff retries with exponential backoff and gives up after MaxAttempts.
// A zero MaxAttempts never gives up, a zero Base never delays and a zero Max means
// maxBackoff.
type CappedBackoff struct {
	MaxAttempts int
	Base        time.Duration
	Max         time.Duration
}

func (p CappedBackoff) Next(attempts int, now time.Time) (*time.Time, bool) {
	if p.MaxAttempts > 0 && attempts >= p.MaxAttempts {
		return nil, true
	}
	if p.Base <= 0 {
		return nil, false
	}

	limit := p.Max
	if limit <= 0 {
		limit = maxBackoff
	}

	delay := min(p.Base, limit)
	for i := 1; i < attempts && delay < limit; i++ {
		if delay > limit/2 {
			delay = limit
			break
		}
		delay *= 2
	}

	next := now.Add(delay)
	return &next, false
}

// NewRetryPolicy builds the policy configured for the scheduler. Without an attempt cap
// or backoff the unbounded policy is used.
func NewRetryPolicy(cfg config.Scheduler) RetryPolicy {
	if cfg.RetryMaxAttempts <= 0 && cfg.RetryBackoff <= 0 {
		return UnboundedRetry{}
	}
	return CappedBackoff{
		MaxAttempts: cfg.RetryMaxAttempts,
		Base:        cfg.RetryBackoff,
		Max:         cfg.RetryBackoffMax,
	}
}
