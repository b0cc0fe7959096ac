package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes a bounded retry-with-backoff schedule. The same policy is
// applied to every outbound call (question source, answer judge, score store)
// instead of per-call-site retry loops.
type Policy struct {
	MaxAttempts     uint64 // total attempts including the first; 0 means retry until ctx is done
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Retryable       func(error) bool // nil treats every error as transient
}

// Do runs op until it succeeds, the attempt budget is spent, or ctx is done.
// Non-retryable errors abort immediately.
func (p Policy) Do(ctx context.Context, op func() error) error {
	exp := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		exp.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		exp.MaxInterval = p.MaxInterval
	}

	var bo backoff.BackOff = exp
	if p.MaxAttempts > 0 {
		bo = backoff.WithMaxRetries(bo, p.MaxAttempts-1)
	}
	bo = backoff.WithContext(bo, ctx)

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, bo)
}
