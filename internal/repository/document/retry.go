package document

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/kailas-cloud/crawlscope/internal/db"
	"github.com/kailas-cloud/crawlscope/internal/domain"
	"github.com/kailas-cloud/crawlscope/internal/metrics"
)

// read runs fn with a per-attempt timeout, retrying transient failures with
// exponential backoff. Failures come back wrapped in ErrGatewayFailure.
func read[T any](ctx context.Context, r *Repo, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.retryBase
	bo.MaxInterval = 20 * r.retryBase

	attempt := 0
	res, err := backoff.Retry(ctx, func() (T, error) {
		if attempt > 0 {
			metrics.GatewayRetriesTotal.WithLabelValues(op).Inc()
		}
		attempt++

		actx, cancel := withTimeout(ctx, r.readTimeout)
		defer cancel()

		v, err := fn(actx)
		if err == nil {
			return v, nil
		}
		if db.IsTransient(err) && ctx.Err() == nil {
			return v, err
		}
		return v, backoff.Permanent(err)
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(r.readRetries)+1),
	)

	metrics.GatewayRequestsTotal.WithLabelValues(op, metrics.Status(err)).Inc()
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %s: %w", domain.ErrGatewayFailure, op, err)
	}
	return res, nil
}

// write runs fn once under the write timeout. Writes are not retried here.
func (r *Repo) write(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	wctx, cancel := withTimeout(ctx, r.writeTimeout)
	defer cancel()

	err := fn(wctx)
	metrics.GatewayRequestsTotal.WithLabelValues(op, metrics.Status(err)).Inc()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrGatewayFailure, op, err)
	}
	return nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
