// internal/llm/fallback.go
package llm

import (
	"context"
	"strings"
	"time"

	"github.com/davidmazza/lucyreport/internal/logging"
)

// Generator is the single entry point report code uses for AI text. It
// tries the configured model first and walks the candidate chain when a
// retryable failure occurs. Only successful calls reach the tracker, so an
// exhausted attempt leaves the usage log exactly as it found it.
type Generator struct {
	tracker *Tracker
	timeout time.Duration

	// newClient builds a candidate binding. Tests substitute fakes here.
	newClient func(Candidate, float64) Client
}

// NewGenerator returns a generator recording successes into tracker and
// bounding every call with timeout.
func NewGenerator(tracker *Tracker, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = DefaultInvokeTimeout
	}
	return &Generator{
		tracker:   tracker,
		timeout:   timeout,
		newClient: newProviderClient,
	}
}

// GenerateText asks the configured model for a single-shot completion,
// falling back along the candidate chain on rate limits, timeouts, and
// OpenAI-class generic failures. A Gemini-class generic failure ends the
// attempt instead of advancing. The returned flag is false when every
// usable candidate failed; GenerateText never returns an error because
// report sections degrade to placeholder text rather than failing the run.
func (g *Generator) GenerateText(ctx context.Context, cfg *ModelConfig, prompt string) (string, bool) {
	if cfg == nil || len(cfg.Candidates) == 0 {
		return "", false
	}

	messages := []ChatMessage{{Role: "user", Content: prompt}}

	primary := cfg.Candidates[0]
	if strings.TrimSpace(primary.APIKey) != "" {
		if client := cfg.Client(); client != nil && client.Available() {
			logging.LogDebug("trying model %s (%s)", primary.Model, primary.Provider)
			resp, err := invokeWithTimeout(ctx, client, messages, g.timeout)
			if err == nil {
				g.record(primary.Model)
				return Normalize(resp), true
			}
			kind := Classify(err)
			logging.LogEvent("model %s failed (%s): %v", primary.Model, kind, err)
			if !AdvancesFallback(kind, primary.Provider) {
				return "", false
			}
		}
	}

	return g.fallbackFrom(ctx, cfg, 0, messages)
}

// fallbackFrom scans the chain starting after the candidate at index
// current. Candidates whose provider lost its credential are skipped
// without an attempt.
func (g *Generator) fallbackFrom(ctx context.Context, cfg *ModelConfig, current int, messages []ChatMessage) (string, bool) {
	for i := current + 1; i < len(cfg.Candidates); i++ {
		cand := cfg.Candidates[i]
		if strings.TrimSpace(cand.APIKey) == "" {
			logging.LogDebug("skipping %s: provider not configured", cand.Model)
			continue
		}

		client := g.newClient(cand, cfg.Temperature)
		if client == nil || !client.Available() {
			continue
		}

		logging.LogDebug("falling back to model %s (%s)", cand.Model, cand.Provider)
		resp, err := invokeWithTimeout(ctx, client, messages, g.timeout)
		if err == nil {
			g.record(cand.Model)
			return Normalize(resp), true
		}

		kind := Classify(err)
		logging.LogEvent("fallback model %s failed (%s): %v", cand.Model, kind, err)
		if !AdvancesFallback(kind, cand.Provider) {
			return "", false
		}
	}

	logging.LogEvent("all fallback candidates exhausted")
	return "", false
}

func (g *Generator) record(model string) {
	if g.tracker != nil {
		g.tracker.Track(model, true)
	}
}

// Tracker exposes the run's usage log for the disclosure section.
func (g *Generator) Tracker() *Tracker {
	return g.tracker
}
