package backoff

import (
	"context"
	"time"
)

// Done signals that the policy has no more attempts to give.
const Done time.Duration = -1

// Operation is the unit of work executed under retry.
type Operation func() error

// IsRetriable reports whether an error from the operation is worth
// retrying. Definitive vendor rejections must return false.
type IsRetriable func(error) bool

// Policy is a bounded exponential backoff schedule. The zero value is
// not usable; construct with NewPolicy.
type Policy struct {
	initialInterval time.Duration
	coefficient     float64
	maximumInterval time.Duration
	maximumAttempts int

	currentAttempt int
	nextInterval   time.Duration
}

// NewPolicy returns a fresh retry schedule. A policy is single-use:
// build one per call chain.
func NewPolicy(initial time.Duration, coefficient float64, maximum time.Duration, attempts int) *Policy {
	return &Policy{
		initialInterval: initial,
		coefficient:     coefficient,
		maximumInterval: maximum,
		maximumAttempts: attempts,
	}
}

// DefaultPolicy is the retry budget for outbound provider calls:
// 3 retries starting at 250ms, doubling, capped at 2s.
func DefaultPolicy() *Policy {
	return NewPolicy(250*time.Millisecond, 2.0, 2*time.Second, 3)
}

// NextDelay returns the delay before the next attempt, or Done when the
// attempt budget is spent.
func (p *Policy) NextDelay() time.Duration {
	if p.currentAttempt >= p.maximumAttempts {
		return Done
	}
	if p.nextInterval == 0 {
		p.nextInterval = p.initialInterval
	} else {
		p.nextInterval = time.Duration(float64(p.nextInterval) * p.coefficient)
	}
	if p.nextInterval > p.maximumInterval {
		p.nextInterval = p.maximumInterval
	}
	p.currentAttempt++
	return p.nextInterval
}

// Retry executes op until it succeeds, the error is not retriable, the
// policy is exhausted, or ctx is canceled. The last error is returned.
func Retry(ctx context.Context, op Operation, policy *Policy, retriable IsRetriable) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op()
		if err == nil {
			return nil
		}
		if !retriable(err) {
			return err
		}

		next := policy.NextDelay()
		if next == Done {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(next):
		}
	}
}
