package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/ugel-ilo/sgd-backend/internal/core"
)

func rateLimitErr() error {
	return &googleapi.Error{Code: 429, Message: "Resource has been exhausted"}
}

func TestWithRetry_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), time.Millisecond, "test", func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_RecoversAfterRateLimit(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), time.Millisecond, "test", func() error {
		calls++
		if calls < 3 {
			return rateLimitErr()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_ExhaustsBudget(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), time.Millisecond, "test", func() error {
		calls++
		return rateLimitErr()
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, core.KindRateLimit, core.KindOf(err))
}

func TestWithRetry_NonRateLimitErrorNotRetried(t *testing.T) {
	calls := 0
	boom := errors.New("connection reset")
	err := withRetry(context.Background(), time.Millisecond, "test", func() error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.Equal(t, core.KindTransient, core.KindOf(err))
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, isRateLimited(rateLimitErr()))
	assert.False(t, isRateLimited(&googleapi.Error{Code: 500}))
	assert.False(t, isRateLimited(errors.New("429 but not typed")))
}
