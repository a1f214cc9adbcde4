// internal/llm/llm.go
// Package llm resolves which hosted models a report run may use, bounds
// every invocation with a timeout, and walks the fallback chain when a
// provider fails. Successful calls are recorded so the report can disclose
// which models wrote its narrative.
package llm

import (
	"context"
	"strings"
	"sync"
)

// ProviderClass identifies which hosted API family serves a model.
type ProviderClass string

const (
	// ProviderOpenAI covers the primary OpenAI-compatible API.
	ProviderOpenAI ProviderClass = "openai"
	// ProviderGemini covers Gemini models reached through the
	// OpenAI-compatibility endpoint.
	ProviderGemini ProviderClass = "gemini"
)

// ProviderFor classifies a model name into its provider class.
func ProviderFor(model string) ProviderClass {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gemini") {
		return ProviderGemini
	}
	return ProviderOpenAI
}

// ChatMessage represents a single message exchanged with a model.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseKind discriminates the payload shapes a provider can return.
type ResponseKind int

const (
	// ResponseUnknown marks a payload no other rule recognized.
	ResponseUnknown ResponseKind = iota
	// ResponsePlainText carries a single text value.
	ResponsePlainText
	// ResponseFragmentList carries an ordered list of typed fragments.
	ResponseFragmentList
)

// Fragment is one piece of a multi-part model response.
type Fragment struct {
	Type string
	Text string
}

// ProviderResponse is the raw result of one model call before normalization.
type ProviderResponse struct {
	Kind      ResponseKind
	Text      string
	Fragments []Fragment
	Raw       any
}

// Client is the surface the invoker needs from a provider binding.
type Client interface {
	// Generate performs one single-shot completion.
	Generate(ctx context.Context, messages []ChatMessage) (*ProviderResponse, error)
	// Model returns the bound model identifier.
	Model() string
	// Available reports whether the binding is usable at all.
	Available() bool
}

// Candidate is one model in the fallback chain together with the credential
// that authorizes it.
type Candidate struct {
	Model    string
	Provider ProviderClass
	APIKey   string
}

// ModelConfig bundles everything one report run needs to call models:
// the configured model, its sampling temperature, and the ordered candidate
// chain (the configured model always sits at index 0). The struct is
// treated as read-only once Resolve has built it.
type ModelConfig struct {
	Model       string
	Temperature float64
	Provider    ProviderClass
	Candidates  []Candidate

	once   sync.Once
	client Client
}

// Client returns the provider binding for the configured model, building it
// on first use.
func (m *ModelConfig) Client() Client {
	m.once.Do(func() {
		if len(m.Candidates) > 0 {
			m.client = newProviderClient(m.Candidates[0], m.Temperature)
		}
	})
	return m.client
}
