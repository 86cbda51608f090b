// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authgate/internal/auth"
)

// fastPolicy keeps backoff delays millisecond-scale so retry behavior
// stays observable without slowing the suite.
func fastPolicy(maxAttempts int) auth.Policy {
	return auth.Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   20 * time.Millisecond,
		Multiplier:  2,
	}
}

func TestExecute_SuccessFirstAttempt(t *testing.T) {
	calls := 0
	start := time.Now()

	result, err := auth.Execute(context.Background(), fastPolicy(3), func(context.Context) (string, error) {
		calls++
		return "session", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "session", result)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), 15*time.Millisecond, "success must not wait for backoff")
}

func TestExecute_NonTransientFailsImmediately(t *testing.T) {
	calls := 0
	cause := errors.New("Invalid login credentials")
	start := time.Now()

	_, err := auth.Execute(context.Background(), fastPolicy(3), func(context.Context) (string, error) {
		calls++
		return "", cause
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, calls, "non-transient failures must not be retried")
	assert.Less(t, time.Since(start), 15*time.Millisecond)
}

func TestExecute_TransientRetriesUntilExhausted(t *testing.T) {
	calls := 0
	cause := errors.New("network error during request")
	start := time.Now()

	_, err := auth.Execute(context.Background(), fastPolicy(3), func(context.Context) (string, error) {
		calls++
		return "", cause
	})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, cause, "the last observed failure propagates, not a synthesized one")
	assert.Equal(t, 3, calls)
	// Delays: 20ms then 40ms.
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestExecute_MaxAttemptsOne(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "transient failure", err: errors.New("network unreachable")},
		{name: "terminal failure", err: errors.New("Invalid login credentials")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			start := time.Now()

			_, err := auth.Execute(context.Background(), fastPolicy(1), func(context.Context) (string, error) {
				calls++
				return "", tt.err
			})

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, 1, calls)
			assert.Less(t, time.Since(start), 15*time.Millisecond, "single attempt means no delay")
		})
	}
}

func TestExecute_TransientThenSuccess(t *testing.T) {
	calls := 0
	start := time.Now()

	result, err := auth.Execute(context.Background(), fastPolicy(3), func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("Failed to fetch")
		}
		return 42, nil
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 3, calls)
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond, "two backoff delays must elapse")
}

func TestExecute_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	policy := auth.Policy{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 2}
	_, err := auth.Execute(ctx, policy, func(context.Context) (string, error) {
		calls++
		return "", errors.New("network error")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDefaultPolicy(t *testing.T) {
	p := auth.DefaultPolicy()
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, time.Second, p.BaseDelay)
	assert.InDelta(t, 2.0, p.Multiplier, 0.001)
}

func TestExecute_ZeroPolicyUsesDefaults(t *testing.T) {
	// A zero policy must not panic or spin; success on first attempt
	// never consults the backoff.
	calls := 0
	result, err := auth.Execute(context.Background(), auth.Policy{}, func(context.Context) (bool, error) {
		calls++
		return true, nil
	})

	require.NoError(t, err)
	assert.True(t, result)
	assert.Equal(t, 1, calls)
}
