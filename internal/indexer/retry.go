package indexer

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const defaultRetryBackoff = 100 * time.Millisecond

// retryPolicy bounds how chain reads are retried.
type retryPolicy struct {
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

func newRetryPolicy(maxRetries int, backoff time.Duration, logger *zap.Logger) retryPolicy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return retryPolicy{maxRetries: maxRetries, backoff: backoff, logger: logger}
}

// do runs fn until it succeeds, the attempts run out or ctx ends. The wait
// doubles after every failed attempt. Failures are logged under op.
func (p retryPolicy) do(ctx context.Context, op string, fn func(context.Context) error, fields ...zap.Field) error {
	wait := p.backoff
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		logFields := append(append(make([]zap.Field, 0, len(fields)+2), fields...), zap.Int("attempt", attempt), zap.Error(err))
		p.logger.Warn(op+" failed", logFields...)
		if attempt > p.maxRetries {
			return err
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait *= 2
	}
}
