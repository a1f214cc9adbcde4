// internal/tokens/estimator.go
// Package tokens provides token estimation utilities using tiktoken.
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/davidmazza/lucyreport/internal/logging"
)

// Estimator provides token estimation using tiktoken.
type Estimator struct {
	encoding *tiktoken.Tiktoken
	mu       sync.RWMutex
}

// DefaultEncoding is cl100k_base, a reasonable estimate for the hosted models
// the report pipeline talks to.
const DefaultEncoding = "cl100k_base"

var (
	globalEstimator     *Estimator
	globalEstimatorOnce sync.Once
)

// Get returns the global token estimator (singleton).
func Get() *Estimator {
	globalEstimatorOnce.Do(func() {
		var err error
		globalEstimator, err = New()
		if err != nil {
			logging.LogEvent("tokens: estimator unavailable, using character fallback: %v", err)
			globalEstimator = &Estimator{}
		}
	})
	return globalEstimator
}

// New creates a new token estimator.
func New() (*Estimator, error) {
	enc, err := tiktoken.GetEncoding(DefaultEncoding)
	if err != nil {
		return nil, err
	}
	return &Estimator{encoding: enc}, nil
}

// Count returns the token count for a string.
// Falls back to chars/4 if tiktoken is unavailable.
func (e *Estimator) Count(text string) int {
	if e == nil || e.encoding == nil {
		return len(text) / 4
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	tokens := e.encoding.Encode(text, nil, nil)
	return len(tokens)
}

// Estimate is a convenience function using the global estimator.
func Estimate(text string) int {
	return Get().Count(text)
}
