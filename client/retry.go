package client

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/gaborage/go-uniclient/logger"
)

// RetryStrategy produces a fresh backoff schedule for a single request. The
// factory form keeps schedules call-scoped so one client instance composes
// correctly under concurrent use.
type RetryStrategy func() backoff.BackOff

// ExponentialStrategy returns the default exponential backoff strategy. The
// schedule itself never gives up; the retry budget is enforced by the loop.
func ExponentialStrategy() RetryStrategy {
	return func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.MaxElapsedTime = 0
		return b
	}
}

// ConstantStrategy returns a strategy with a fixed delay between attempts.
func ConstantStrategy(delay time.Duration) RetryStrategy {
	return func() backoff.BackOff {
		return backoff.NewConstantBackOff(delay)
	}
}

// ZeroStrategy returns a strategy that retries immediately. Intended for
// tests and latency-sensitive callers with their own pacing.
func ZeroStrategy() RetryStrategy {
	return func() backoff.BackOff {
		return &backoff.ZeroBackOff{}
	}
}

// attemptFunc is the abstract attempt primitive the retry loop drives. The
// loop knows nothing about transports.
type attemptFunc func(attempt int) (*Response, int, error)

// runWithRetries drives the backoff loop: attempt, classify, consult the
// schedule, wait, repeat. Attempts are strictly sequential. Only retryable
// (timeout-class) failures re-enter the loop; everything else is fatal on
// first occurrence. The budget is exhausted when either the attempt count
// reaches maxRetries or the cumulative elapsed time reaches maxDelay,
// whichever comes first.
func runWithRetries(ctx context.Context, rc *resolvedConfig, log logger.Logger, attempt attemptFunc) (*Response, int, error) {
	schedule := rc.retryStrategy()
	schedule.Reset()
	start := time.Now()

	for tries := 0; ; tries++ {
		resp, statusCode, err := attempt(tries)
		if err == nil {
			return resp, statusCode, nil
		}
		if !IsRetryable(err) {
			return nil, 0, err
		}
		if tries >= rc.maxRetries {
			log.Warn().
				Err(err).
				Int("attempts", tries+1).
				Msg("Retry budget exhausted: attempt limit reached")
			return nil, 0, err
		}

		elapsed := time.Since(start)
		if elapsed >= rc.maxDelay {
			log.Warn().
				Err(err).
				Dur("elapsed", elapsed).
				Msg("Retry budget exhausted: time limit reached")
			return nil, 0, err
		}

		delay := schedule.NextBackOff()
		if delay == backoff.Stop {
			return nil, 0, err
		}
		if elapsed+delay > rc.maxDelay {
			log.Warn().
				Err(err).
				Dur("elapsed", elapsed).
				Dur("delay", delay).
				Msg("Retry budget exhausted: next delay exceeds time limit")
			return nil, 0, err
		}

		log.Debug().
			Err(err).
			Int("attempt", tries+1).
			Dur("delay", delay).
			Msg("Retrying request after timeout")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, 0, err
		}
	}
}
