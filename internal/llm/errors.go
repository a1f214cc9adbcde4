// internal/llm/errors.go
package llm

import (
	"context"
	"errors"
	"strings"
)

// ErrNotConfigured is returned when no provider has a usable credential.
var ErrNotConfigured = errors.New("no model provider is configured")

// FailureKind categorizes model-call failures for fallback decisions.
type FailureKind string

const (
	FailureNotConfigured FailureKind = "not_configured"
	FailureRateLimited   FailureKind = "rate_limited"
	FailureTimeout       FailureKind = "timeout"
	FailureProvider      FailureKind = "provider_error"
)

// Classify determines the failure kind from an error. Anything that is not
// a credential gap, a rate limit, or a timeout counts as a generic provider
// failure.
func Classify(err error) FailureKind {
	if errors.Is(err, ErrNotConfigured) {
		return FailureNotConfigured
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	if err == nil {
		return FailureProvider
	}
	msg := err.Error()
	if IsRateLimitMessage(msg) {
		return FailureRateLimited
	}
	if IsTimeoutMessage(msg) {
		return FailureTimeout
	}
	return FailureProvider
}

// AdvancesFallback reports whether a failure of the given kind on the given
// provider class should move the attempt to the next candidate. Rate limits
// and timeouts always advance. A generic failure advances only on the
// OpenAI class; on the Gemini class it ends the attempt.
func AdvancesFallback(kind FailureKind, provider ProviderClass) bool {
	switch kind {
	case FailureRateLimited, FailureTimeout:
		return true
	case FailureProvider:
		return provider == ProviderOpenAI
	default:
		return false
	}
}

// IsRateLimitError checks if an error indicates rate limiting or quota
// exhaustion.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	return IsRateLimitMessage(err.Error())
}

// IsTimeoutError checks if an error indicates a timeout.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return IsTimeoutMessage(err.Error())
}

// IsRateLimitMessage checks if a message indicates rate limiting. The
// patterns cover both provider families, including the quota wording the
// Gemini compatibility endpoint uses.
func IsRateLimitMessage(msg string) bool {
	if msg == "" {
		return false
	}
	lower := strings.ToLower(msg)

	// HTTP 429
	if strings.Contains(lower, "429") {
		return true
	}

	if strings.Contains(lower, "rate_limit") ||
		strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "too many requests") ||
		strings.Contains(lower, "exceeded your current quota") ||
		strings.Contains(lower, "quota exceeded") ||
		strings.Contains(lower, "insufficient_quota") ||
		strings.Contains(lower, "resource_exhausted") ||
		strings.Contains(lower, "resource has been exhausted") ||
		strings.Contains(lower, "usage limit") ||
		strings.Contains(lower, "requests per minute") ||
		strings.Contains(lower, "requests per day") {
		return true
	}

	return false
}

// IsTimeoutMessage checks if a message indicates a timeout.
func IsTimeoutMessage(msg string) bool {
	if msg == "" {
		return false
	}
	lower := strings.ToLower(msg)

	// HTTP 408, 504
	if strings.Contains(lower, "408") || strings.Contains(lower, "504") {
		return true
	}

	if strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "timed out") ||
		strings.Contains(lower, "deadline exceeded") ||
		strings.Contains(lower, "connection reset") {
		return true
	}

	return false
}
