package ledger

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Shillz96/carfinderai/internal/lead"
)

// RetryPolicy re-runs an operation on transient remote failures with a
// doubling delay between attempts. Auth and client errors propagate
// immediately; retrying those only burns quota.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration

	sleep  func(time.Duration)
	logger *zap.Logger
}

// NewRetryPolicy builds a RetryPolicy. Zero attempts or delay get sane
// defaults.
func NewRetryPolicy(maxAttempts int, baseDelay time.Duration, logger *zap.Logger) RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		sleep:       time.Sleep,
		logger:      logger,
	}
}

// Do runs op until it succeeds, returns a non-transient error, or the
// attempt budget is spent. The last error is returned.
func (r RetryPolicy) Do(ctx context.Context, op func() error) error {
	delay := r.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !lead.IsTransient(lastErr) || attempt == r.MaxAttempts {
			return lastErr
		}
		r.logger.Warn("remote ledger call failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(lastErr))
		r.sleep(delay)
		delay *= 2
	}
	return lastErr
}
