package query

import (
	"context"
	"time"

	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/docrag/internal/logger"
)

// withRetry runs op up to attempts times with a fixed delay between attempts.
// The last error is returned once attempts are exhausted or ctx is done.
func withRetry[T any](
	ctx context.Context, attempts int, delay time.Duration, op func(context.Context) (T, error),
) (T, error) {
	attempts = max(attempts, 1)

	var (
		zero T
		err  error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		var out T
		out, err = op(ctx)
		if err == nil {
			return out, nil
		}
		if attempt == attempts {
			break
		}

		logpkg.FromContext(ctx).Warn("Retrieval attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, err
		case <-timer.C:
		}
	}
	return zero, err
}
