package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"alfredoptarigan/interview-analyzer/internal/apperror"
	"alfredoptarigan/interview-analyzer/internal/logger"
)

// RetryPolicy retries retryable failures with exponential backoff.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration

	// sleep is replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Backoff returns the wait before the given retry (1-based).
func (p RetryPolicy) Backoff(retry int) time.Duration {
	if retry < 1 {
		return 0
	}
	return p.InitialDelay * time.Duration(1<<(retry-1))
}

// Do runs op until it succeeds, returns a non-retryable error, or the
// attempts are exhausted. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !apperror.IsRetryable(lastErr) || attempt == attempts {
			break
		}
		if err := sleep(ctx, p.Backoff(attempt)); err != nil {
			return fmt.Errorf("context cancelled: %w", lastErr)
		}
	}

	return lastErr
}

type retryingGenerator struct {
	next   TextGenerator
	policy RetryPolicy
	log    *zap.Logger
}

// WithRetry wraps a TextGenerator so retryable inference failures are retried.
func WithRetry(next TextGenerator, policy RetryPolicy, log *zap.Logger) TextGenerator {
	return &retryingGenerator{
		next:   next,
		policy: policy,
		log:    logger.OrNop(log),
	}
}

// GenerateText implements TextGenerator.
func (r *retryingGenerator) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	var result string
	attempt := 0
	err := r.policy.Do(ctx, func(ctx context.Context) error {
		attempt++
		text, err := r.next.GenerateText(ctx, prompt, temperature)
		if err != nil {
			r.log.Warn("generation attempt failed", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		result = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return result, nil
}
