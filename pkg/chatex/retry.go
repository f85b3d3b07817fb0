package chatex

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds RetryRateLimited.
type RetryPolicy struct {
	MaxRetries uint64
	// MaxDelay caps every wait, including the server's retry-after hint.
	// Zero means no cap.
	MaxDelay time.Duration
}

// retryAfterBackOff waits for the server hint when one was given and falls
// back to exponential back-off otherwise.
type retryAfterBackOff struct {
	next     time.Duration
	fallback backoff.BackOff
	maxDelay time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	d := b.next
	b.next = 0
	if d <= 0 {
		d = b.fallback.NextBackOff()
		if d == backoff.Stop {
			return d
		}
	}
	if b.maxDelay > 0 && d > b.maxDelay {
		d = b.maxDelay
	}
	return d
}

// maxRetryAfter is the largest hint, in seconds, that fits a time.Duration.
const maxRetryAfter = math.MaxInt64 / int64(time.Second)

// retryAfterDelay converts a retry-after hint in seconds to a delay. Hints
// that are not positive carry no information and yield zero, which selects
// the exponential fallback.
func retryAfterDelay(seconds int64) time.Duration {
	if seconds <= 0 {
		return 0
	}
	if seconds > maxRetryAfter {
		seconds = maxRetryAfter
	}
	return time.Duration(seconds) * time.Second
}

func (b *retryAfterBackOff) Reset() {
	b.next = 0
	b.fallback.Reset()
}

// RetryRateLimited calls op and retries it only while it fails with a
// rate-limited error, waiting the server's retry-after hint between attempts.
// Any other error is returned immediately.
func RetryRateLimited[T any](ctx context.Context, policy RetryPolicy, op func(ctx context.Context) (T, error)) (T, error) {
	exp := backoff.NewExponentialBackOff()
	if policy.MaxDelay > 0 && exp.InitialInterval > policy.MaxDelay {
		exp.InitialInterval = policy.MaxDelay
	}
	b := &retryAfterBackOff{fallback: exp, maxDelay: policy.MaxDelay}

	return backoff.RetryWithData(func() (T, error) {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Kind == KindRateLimited {
			b.next = retryAfterDelay(apiErr.RetryAfter)
			return v, err
		}
		return v, backoff.Permanent(err)
	}, backoff.WithContext(backoff.WithMaxRetries(b, policy.MaxRetries), ctx))
}
