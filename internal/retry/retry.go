// Package retry runs operations under an exponential backoff policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

var ErrGaveUp = errors.New("retry: gave up")

// Policy describes how an operation is retried. MaxAttempts of zero retries
// until the operation succeeds or the context ends.
type Policy struct {
	Initial     time.Duration `yaml:"initial"`
	Max         time.Duration `yaml:"max"`
	Multiplier  float64       `yaml:"multiplier"`
	MaxAttempts int           `yaml:"max_attempts"`
}

func DefaultPolicy() Policy {
	return Policy{
		Initial:    500 * time.Millisecond,
		Max:        30 * time.Second,
		Multiplier: 2,
	}
}

// Forever reports whether the policy never gives up on its own.
func (p Policy) Forever() bool { return p.MaxAttempts <= 0 }

func (p Policy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	if p.Initial > 0 {
		b.InitialInterval = p.Initial
	}
	if p.Max > 0 {
		b.MaxInterval = p.Max
	}
	if p.Multiplier >= 1 {
		b.Multiplier = p.Multiplier
	}
	return b
}

// Do runs op until it succeeds, the attempts are used up or ctx ends.
// notify, when set, is called after every failed attempt that will be
// retried.
func (p Policy) Do(ctx context.Context, op func(context.Context) error, notify func(attempt int, err error, wait time.Duration)) error {
	attempts := 0
	opts := []backoff.RetryOption{
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxElapsedTime(0),
	}
	if !p.Forever() {
		opts = append(opts, backoff.WithMaxTries(uint(p.MaxAttempts)))
	}
	if notify != nil {
		opts = append(opts, backoff.WithNotify(func(err error, wait time.Duration) {
			notify(attempts, err, wait)
		}))
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		return struct{}{}, op(ctx)
	}, opts...)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrGaveUp, attempts, err)
}
