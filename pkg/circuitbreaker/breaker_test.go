package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBreaker(timeout time.Duration) *Breaker {
	return New("test", Config{
		MaxRequests:      1,
		Timeout:          timeout,
		FailureThreshold: 2,
		SuccessThreshold: 1,
	})
}

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	b := newTestBreaker(time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, b.Execute(ctx, func() error { return nil }))
	}
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := newTestBreaker(time.Minute)
	ctx := context.Background()
	fail := func() error { return errors.New("downstream failure") }

	assert.Error(t, b.Execute(ctx, fail))
	assert.Equal(t, StateClosed, b.State())

	assert.Error(t, b.Execute(ctx, fail))
	assert.Equal(t, StateOpen, b.State())

	// Calls are rejected without invoking the operation.
	called := false
	err := b.Execute(ctx, func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := newTestBreaker(10 * time.Millisecond)
	ctx := context.Background()
	fail := func() error { return errors.New("downstream failure") }

	require.Error(t, b.Execute(ctx, fail))
	require.Error(t, b.Execute(ctx, fail))
	require.Equal(t, StateOpen, b.State())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, b.State())

	// One successful probe closes it.
	require.NoError(t, b.Execute(ctx, func() error { return nil }))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := newTestBreaker(10 * time.Millisecond)
	ctx := context.Background()
	fail := func() error { return errors.New("downstream failure") }

	require.Error(t, b.Execute(ctx, fail))
	require.Error(t, b.Execute(ctx, fail))

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, b.State())

	require.Error(t, b.Execute(ctx, fail))
	assert.Equal(t, StateOpen, b.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
}
