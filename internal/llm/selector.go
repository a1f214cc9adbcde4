// internal/llm/selector.go
package llm

import (
	"os"
	"strings"
)

const (
	// DefaultModel is tried first when no preference is configured.
	DefaultModel = "gpt-5.2"
	// altFlagshipModel is the alternative provider's strongest tier.
	altFlagshipModel = "gemini-3-pro-preview"
	// altFastModel is the alternative provider's fast tier.
	altFastModel = "gemini-3-flash-preview"
	// cheapModel is the same-provider budget tier, the last resort.
	cheapModel = "gpt-5-mini"

	envOpenAIKey = "OPENAI_API_KEY"
	envGeminiKey = "GEMINI_API_KEY"
)

// policyChain returns the fixed fallback order: primary flagship, the
// alternative provider's flagship, its fast tier, then the same-provider
// cheap tier.
func policyChain() []string {
	return []string{DefaultModel, altFlagshipModel, altFastModel, cheapModel}
}

// credentialFor returns the API key authorizing a provider class. A
// whitespace-only value counts as absent.
func credentialFor(provider ProviderClass) string {
	var key string
	switch provider {
	case ProviderGemini:
		key = os.Getenv(envGeminiKey)
	default:
		key = os.Getenv(envOpenAIKey)
	}
	return strings.TrimSpace(key)
}

// ChainEntry describes one model of the fallback chain together with the
// credential its provider requires and whether that credential is present.
type ChainEntry struct {
	Model         string
	Provider      ProviderClass
	CredentialEnv string
	Configured    bool
}

// ChainStatus reports the chain Resolve would consider for the given
// preference, in order and deduplicated, without filtering out entries
// whose provider holds no credential. It backs the models command.
func ChainStatus(preferred string) []ChainEntry {
	preferred = strings.TrimSpace(preferred)
	if preferred == "" {
		preferred = DefaultModel
	}

	ordered := append([]string{preferred}, policyChain()...)
	seen := make(map[string]struct{}, len(ordered))
	var entries []ChainEntry
	for _, model := range ordered {
		if _, dup := seen[model]; dup {
			continue
		}
		seen[model] = struct{}{}

		provider := ProviderFor(model)
		env := envOpenAIKey
		if provider == ProviderGemini {
			env = envGeminiKey
		}
		entries = append(entries, ChainEntry{
			Model:         model,
			Provider:      provider,
			CredentialEnv: env,
			Configured:    credentialFor(provider) != "",
		})
	}
	return entries
}

// Resolve builds the model configuration for a run. The candidate chain is
// the policy chain filtered to providers holding a credential, deduplicated
// by model name, with the preferred model moved to index 0. Credentials are
// read from the environment at call time. Resolve returns ErrNotConfigured
// when no provider is usable; callers degrade to placeholder text rather
// than failing the report.
func Resolve(preferred string, temperature float64) (*ModelConfig, error) {
	preferred = strings.TrimSpace(preferred)
	if preferred == "" {
		preferred = DefaultModel
	}

	ordered := append([]string{preferred}, policyChain()...)
	seen := make(map[string]struct{}, len(ordered))
	var candidates []Candidate
	for _, model := range ordered {
		if _, dup := seen[model]; dup {
			continue
		}
		seen[model] = struct{}{}

		provider := ProviderFor(model)
		key := credentialFor(provider)
		if key == "" {
			continue
		}
		candidates = append(candidates, Candidate{Model: model, Provider: provider, APIKey: key})
	}

	if len(candidates) == 0 {
		return nil, ErrNotConfigured
	}

	return &ModelConfig{
		Model:       candidates[0].Model,
		Temperature: temperature,
		Provider:    candidates[0].Provider,
		Candidates:  candidates,
	}, nil
}
