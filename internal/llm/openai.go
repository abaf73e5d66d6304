package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"querypilot/internal/domain"
)

// OpenAI talks to an OpenAI-compatible /chat/completions endpoint.
type OpenAI struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

var _ domain.Completer = (*OpenAI)(nil)

// NewOpenAI creates an OpenAI-compatible client.
func NewOpenAI(baseURL, apiKey, model string, client *http.Client) *OpenAI {
	return &OpenAI{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  client,
	}
}

type openAIRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// Complete implements domain.Completer.
func (c *OpenAI) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	header := http.Header{}
	if c.apiKey != "" {
		header.Set("Authorization", "Bearer "+c.apiKey)
	}

	var out openAIResponse
	err := postJSON(ctx, c.client, ProviderOpenAI, c.baseURL+"/chat/completions", header, openAIRequest{
		Model:       c.model,
		Messages:    messages(req),
		Temperature: req.Temperature,
	}, &out)
	if err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", errors.New("openai response has no choices")
	}
	return out.Choices[0].Message.Content, nil
}
