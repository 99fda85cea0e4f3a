package llm

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrEmptyResponse is returned when the provider answers without choices.
	ErrEmptyResponse = errors.New("llm: empty response")
	// ErrIterationLimit marks an agent run that hit its step bound.
	ErrIterationLimit = errors.New("llm: agent iteration limit reached")
)

var (
	retryablePatterns = []string{
		"rate limit", "too many requests", "quota exceeded", "resource exhausted",
		"service unavailable", "temporarily unavailable", "overloaded", "try again later",
		"timeout", "timed out", "connection reset", "connection refused", "eof",
		"429", "500", "502", "503", "504",
	}
	permanentPatterns = []string{
		"invalid api key", "api key not valid", "unauthorized", "permission denied",
		"invalid model", "model not found", "content policy", "safety",
	}
)

// isRetryable decides whether a provider failure deserves another attempt.
// Providers expose no typed errors, so classification is by message text.
func isRetryable(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range permanentPatterns {
		if strings.Contains(msg, p) {
			return false
		}
	}
	for _, p := range retryablePatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
