package llm

import (
	"context"
	"errors"
	"log"
	"time"

	"google.golang.org/api/googleapi"

	"github.com/ugel-ilo/sgd-backend/internal/core"
)

// Provider-level retry policy: rate-limit rejections are retried locally
// with short exponential backoff before the failure ever reaches the
// job-level retry tier.
const (
	maxAttempts      = 3
	defaultBaseDelay = 2 * time.Second
)

// isRateLimited reports whether err is a provider rate-limit rejection.
func isRateLimited(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == 429
	}
	return false
}

// withRetry runs fn up to maxAttempts times, sleeping base, 2*base, 4*base
// between rate-limited attempts. Non-rate-limit errors are returned as-is
// after a single attempt; an exhausted budget surfaces a KindRateLimit error.
func withRetry(ctx context.Context, base time.Duration, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !isRateLimited(err) {
			return err
		}
		if attempt == maxAttempts-1 {
			break
		}
		delay := base << attempt // base, 2*base, 4*base
		log.Printf("%s: rate limited (attempt %d/%d), retrying in %s", op, attempt+1, maxAttempts, delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return core.RateLimitError(err)
}
