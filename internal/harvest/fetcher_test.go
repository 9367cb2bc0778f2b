package harvest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedFetcher returns one scripted step per call.
type scriptedFetcher struct {
	mu    sync.Mutex
	steps []scriptedStep
	calls int
}

type scriptedStep struct {
	out Outcome
	err error
}

func (f *scriptedFetcher) Fetch(_ context.Context, _ WorkItem) (Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	step := f.steps[f.calls]
	f.calls++
	return step.out, step.err
}

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestRateLimitedFetcherRetriesThenSucceeds(t *testing.T) {
	t.Parallel()
	inner := &scriptedFetcher{steps: []scriptedStep{
		{err: errors.New("connection reset")},
		{out: TransientFailure("status 503")},
		{out: Success(json.RawMessage(`{"ok":true}`))},
	}}
	policy := NewRetryPolicy(3, time.Millisecond, 2*time.Millisecond)
	f := NewRateLimitedFetcher(inner, 0, policy, zap.NewNop())

	out, err := f.Fetch(context.Background(), WorkItem{Key: "A"})
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, out.Kind)
	require.Equal(t, 3, out.Attempts)
	require.Equal(t, 3, inner.callCount())
}

func TestRateLimitedFetcherNotFoundIsDefinitive(t *testing.T) {
	t.Parallel()
	inner := &scriptedFetcher{steps: []scriptedStep{{out: NotFound()}}}
	f := NewRateLimitedFetcher(inner, 0, NewRetryPolicy(3, time.Millisecond, time.Millisecond), zap.NewNop())

	out, err := f.Fetch(context.Background(), WorkItem{Key: "A"})
	require.NoError(t, err)
	require.Equal(t, OutcomeNotFound, out.Kind)
	require.Equal(t, 1, inner.callCount())
}

func TestRateLimitedFetcherExhaustionReturnsTransient(t *testing.T) {
	t.Parallel()
	inner := &scriptedFetcher{steps: []scriptedStep{
		{err: errors.New("timeout")},
		{err: errors.New("timeout")},
		{err: errors.New("timeout")},
	}}
	f := NewRateLimitedFetcher(inner, 0, NewRetryPolicy(3, time.Millisecond, time.Millisecond), zap.NewNop())

	out, err := f.Fetch(context.Background(), WorkItem{Key: "A"})
	require.NoError(t, err, "retry exhaustion must not surface as an error")
	require.Equal(t, OutcomeTransient, out.Kind)
	require.Equal(t, "timeout", out.Reason)
	require.Equal(t, 3, out.Attempts)
	require.Equal(t, 3, inner.callCount())
}

func TestRateLimitedFetcherEnforcesMinimumDelay(t *testing.T) {
	t.Parallel()
	inner := &scriptedFetcher{steps: []scriptedStep{
		{out: Success(nil)},
		{out: Success(nil)},
		{out: Success(nil)},
	}}
	delay := 50 * time.Millisecond
	f := NewRateLimitedFetcher(inner, delay, NewRetryPolicy(1, time.Millisecond, time.Millisecond), zap.NewNop())

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background(), WorkItem{Key: "A"})
		require.NoError(t, err)
	}
	// N calls take at least (N-1) * delay.
	require.GreaterOrEqual(t, time.Since(start), 2*delay)
}

func TestRateLimitedFetcherCanceledContext(t *testing.T) {
	t.Parallel()
	inner := &scriptedFetcher{steps: []scriptedStep{{out: Success(nil)}}}
	f := NewRateLimitedFetcher(inner, time.Hour, NewRetryPolicy(1, time.Millisecond, time.Millisecond), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The pacing wait fails fast on a canceled context, before the inner
	// fetcher is ever reached.
	_, err := f.Fetch(ctx, WorkItem{Key: "A"})
	require.Error(t, err)
	require.Equal(t, 0, inner.callCount())
}
