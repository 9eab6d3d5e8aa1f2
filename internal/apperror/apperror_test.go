package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("failed to analyze: %w", ModelInference("sentiment", errors.New("backend down")))

	assert.ErrorIs(t, err, ErrModelInference)
	assert.NotErrorIs(t, err, ErrInvalidInput)
	assert.NotErrorIs(t, err, ErrIndexUnavailable)
	assert.Equal(t, KindModelInference, KindOf(err))
	assert.True(t, IsRetryable(err))
}

func TestErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := IndexUnavailable("index", "vector store unreachable", cause)

	assert.ErrorIs(t, err, cause)
	assert.False(t, IsRetryable(err))
	assert.Equal(t, "index: vector store unreachable: connection refused [INDEX_UNAVAILABLE]", err.Error())
}

func TestInvalidInput(t *testing.T) {
	err := InvalidInput("analyze", "job description is required")

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.False(t, IsRetryable(err))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, "INVALID_INPUT", ErrInvalidInput.Error())
}
