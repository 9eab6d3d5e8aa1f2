package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/interview-analyzer/internal/apperror"
)

func recordingPolicy(attempts int, waits *[]time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  attempts,
		InitialDelay: time.Second,
		sleep: func(ctx context.Context, d time.Duration) error {
			*waits = append(*waits, d)
			return nil
		},
	}
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := RetryPolicy{InitialDelay: 2 * time.Second}

	assert.Equal(t, time.Duration(0), p.Backoff(0))
	assert.Equal(t, 2*time.Second, p.Backoff(1))
	assert.Equal(t, 4*time.Second, p.Backoff(2))
	assert.Equal(t, 8*time.Second, p.Backoff(3))
}

func TestRetryPolicy_RetriesInferenceFailures(t *testing.T) {
	var waits []time.Duration
	calls := 0

	err := recordingPolicy(3, &waits).Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return apperror.ModelInference("generate", errors.New("503"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, waits)
}

func TestRetryPolicy_ExhaustsAttempts(t *testing.T) {
	var waits []time.Duration
	calls := 0

	err := recordingPolicy(2, &waits).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return apperror.ModelInference("generate", errors.New("503"))
	})

	assert.ErrorIs(t, err, apperror.ErrModelInference)
	assert.Equal(t, 2, calls)
	assert.Len(t, waits, 1)
}

func TestRetryPolicy_StopsOnPermanentErrors(t *testing.T) {
	var waits []time.Duration
	calls := 0

	err := recordingPolicy(5, &waits).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return apperror.InvalidInput("analyze", "bad role")
	})

	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Equal(t, 1, calls)
	assert.Empty(t, waits)
}

func TestRetryPolicy_CancelledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := RetryPolicy{MaxAttempts: 3, InitialDelay: time.Hour}

	err := p.Do(ctx, func(ctx context.Context) error {
		return apperror.ModelInference("generate", errors.New("503"))
	})

	assert.ErrorContains(t, err, "context cancelled")
	assert.ErrorIs(t, err, apperror.ErrModelInference)
}

type flakyGenerator struct {
	failures int
	calls    int
}

func (f *flakyGenerator) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", apperror.ModelInference("generate", errors.New("rate limited"))
	}
	return "ok", nil
}

func TestWithRetry(t *testing.T) {
	var waits []time.Duration
	next := &flakyGenerator{failures: 1}
	generator := WithRetry(next, recordingPolicy(3, &waits), nil)

	text, err := generator.GenerateText(context.Background(), "prompt", 0.5)

	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 2, next.calls)
	assert.Equal(t, []time.Duration{time.Second}, waits)
}
