package rag

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/S1nghAryan/pbl-4/internal/llm"
)

// MaxRetries bounds attempts per LLM call.
const MaxRetries = 3

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *llm.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// completeWithRetry runs one LLM completion under the configured
// timeout, retrying transient (429/5xx) failures with backoff.
// Deadline expiry maps to ErrTimeout.
func (p *Pipeline) completeWithRetry(ctx context.Context, messages []llm.Message) (string, error) {
	var lastErr error
	for attempt := range MaxRetries {
		callCtx, cancel := context.WithTimeout(ctx, p.cfg.LLMTimeout)
		text, err := p.llm.Complete(callCtx, messages)
		cancel()
		if err == nil {
			return text, nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		lastErr = err
		if !IsRetryable(err) {
			break
		}
		p.log.Warn("retryable llm error", "attempt", attempt, "error", err)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}
