// internal/llm/openai.go
package llm

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"github.com/davidmazza/lucyreport/internal/logging"
)

// geminiBaseURL is the OpenAI-compatibility endpoint that serves Gemini
// models. There is no separate SDK in the stack; both provider classes
// speak the same chat-completion surface.
const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// apiClient binds one model on an OpenAI-compatible API.
type apiClient struct {
	client      *openai.Client
	provider    string
	model       string
	temperature float64
}

// newProviderClient builds the binding for a candidate. Gemini candidates
// are routed to the compatibility endpoint; everything else uses the
// standard base URL.
func newProviderClient(cand Candidate, temperature float64) Client {
	cfg := openai.DefaultConfig(cand.APIKey)
	if cand.Provider == ProviderGemini {
		cfg.BaseURL = geminiBaseURL
	}
	return &apiClient{
		client:      openai.NewClientWithConfig(cfg),
		provider:    string(cand.Provider),
		model:       cand.Model,
		temperature: temperature,
	}
}

func (c *apiClient) Model() string { return c.model }

func (c *apiClient) Available() bool {
	return c != nil && c.client != nil && c.model != ""
}

// Generate performs one single-shot completion and wraps the first choice
// as a plain-text payload.
func (c *apiClient) Generate(ctx context.Context, messages []ChatMessage) (*ProviderResponse, error) {
	if !c.Available() {
		return nil, errors.New("provider client not initialized")
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: float32(c.temperature),
		Messages:    toOpenAIMessages(messages),
	}
	logging.LogRequest("lucyreport->llm", c.provider, c.model, "chat", messages)

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("empty response: no choices returned")
	}
	logging.LogRequest("llm->lucyreport", c.provider, c.model, "chat", resp.Choices[0].Message.Content)
	return &ProviderResponse{
		Kind: ResponsePlainText,
		Text: resp.Choices[0].Message.Content,
		Raw:  resp,
	}, nil
}

func toOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
