// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"math"
	"time"

	"github.com/sethvargo/go-retry"
)

// Retry policy defaults.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 1 * time.Second
	DefaultMultiplier  = 2.0
)

// Policy configures the bounded exponential-backoff retry applied to
// network-sensitive identity calls. The delay before attempt n+1 is
// BaseDelay * Multiplier^n, so the default sequence is 1s, 2s, 4s.
// A Policy value is immutable per invocation.
type Policy struct {
	// MaxAttempts is the total number of invocations, including the
	// first. MaxAttempts = 1 means no retries at all.
	MaxAttempts int

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration

	// Multiplier is the exponential backoff factor.
	Multiplier float64
}

// DefaultPolicy returns the default retry policy: 3 attempts, 1s base
// delay, doubling backoff.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Multiplier:  DefaultMultiplier,
	}
}

// normalized returns a copy with non-positive fields replaced by
// defaults.
func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.Multiplier <= 0 {
		p.Multiplier = DefaultMultiplier
	}
	return p
}

// backoff builds the retry.Backoff for one invocation: a deterministic
// exponential sequence (no jitter) capped at MaxAttempts-1 retries.
func (p Policy) backoff() retry.Backoff {
	attempt := 0
	b := retry.BackoffFunc(func() (time.Duration, bool) {
		d := time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt)))
		attempt++
		return d, false
	})
	return retry.WithMaxRetries(uint64(p.MaxAttempts-1), b)
}

// Execute invokes op under the given retry policy. The op is attempted
// at least once; it is retried only while attempts remain and the most
// recent failure is transient per IsTransient. Any other failure, or
// exhaustion of the attempt budget, propagates the last observed error
// unchanged. Backoff sleeps are aborted by context cancellation.
func Execute[T any](ctx context.Context, policy Policy, op func(context.Context) (T, error)) (T, error) {
	p := policy.normalized()

	var result T
	err := retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		v, opErr := op(ctx)
		if opErr != nil {
			if IsTransient(opErr) {
				return retry.RetryableError(opErr)
			}
			return opErr
		}
		result = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
