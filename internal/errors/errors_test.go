package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError_Error(t *testing.T) {
	err := NewAPIError("answer", 502, "bad gateway")
	assert.Contains(t, err.Error(), "answer API error")
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "bad gateway")
}

func TestAPIError_Unwrap(t *testing.T) {
	inner := ErrTimeout
	err := &APIError{Service: "directory", StatusCode: 504, Message: "slow", Err: inner}
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestIsRetryable_StatusCodes(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503, 504} {
		assert.True(t, IsRetryable(NewAPIError("svc", code, "boom")), "status %d", code)
	}
	for _, code := range []int{400, 401, 403, 404, 422} {
		assert.False(t, IsRetryable(NewAPIError("svc", code, "boom")), "status %d", code)
	}
}

func TestIsRetryable_Sentinels(t *testing.T) {
	assert.True(t, IsRetryable(ErrTimeout))
	assert.True(t, IsRetryable(ErrRateLimit))
	assert.True(t, IsRetryable(ErrUnavailable))
	assert.False(t, IsRetryable(ErrNotFound))
	assert.False(t, IsRetryable(fmt.Errorf("wrapped: %w", ErrInvalidInput)))
}

func TestIsRetryable_WrappedAPIError(t *testing.T) {
	err := fmt.Errorf("calling upstream: %w", NewAPIError("docgen", 503, "unavailable"))
	assert.True(t, IsRetryable(err))
}
