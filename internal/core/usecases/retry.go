package usecases

import (
	"context"
	"math/rand"
	"time"

	"github.com/alexvidal/safewalk/internal/core/domain"
	"github.com/alexvidal/safewalk/internal/pkg/metrics"
)

const (
	defaultMaxRetries     = 3
	defaultInitialBackoff = 2 * time.Second
	maxJitter             = time.Second
)

// RetryPolicy executes a fallible operation with bounded retry and
// exponential backoff. Only failures carrying the rate-limit signature are
// retried; every other failure propagates to the caller unchanged. The
// policy performs no state mutation of its own.
//
// The worst-case cumulative wait grows geometrically with the retry budget;
// callers that need a hard bound must pass a context with a deadline.
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration

	// sleep and jitter are injectable for tests. Nil means real time.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() time.Duration
}

// NewRetryPolicy builds a policy with defaults applied to zero values.
func NewRetryPolicy(maxRetries int, initialBackoff time.Duration) RetryPolicy {
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}
	if initialBackoff <= 0 {
		initialBackoff = defaultInitialBackoff
	}
	return RetryPolicy{MaxRetries: maxRetries, InitialBackoff: initialBackoff}
}

// Do runs op, retrying on rate-limit failures until the budget is exhausted.
// At most MaxRetries+1 attempts are made. The backoff before retry k is
// InitialBackoff·2^(k-1) plus up to one second of random jitter, so
// simultaneous clients do not retry in lockstep.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	jitter := p.jitter
	if jitter == nil {
		jitter = func() time.Duration { return time.Duration(rand.Int63n(int64(maxJitter))) }
	}

	delay := p.InitialBackoff
	for attempt := 0; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !domain.IsRateLimit(err) || attempt >= p.MaxRetries {
			return err
		}

		metrics.RateLimitHits.Inc()
		metrics.RetryAttempts.Inc()
		if serr := sleep(ctx, delay+jitter()); serr != nil {
			return serr
		}
		delay *= 2
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
