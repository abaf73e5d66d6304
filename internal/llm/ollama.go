package llm

import (
	"context"
	"net/http"
	"strings"

	"querypilot/internal/domain"
)

// Ollama talks to a local Ollama server's /api/chat endpoint.
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

var _ domain.Completer = (*Ollama)(nil)

// NewOllama creates an Ollama client.
func NewOllama(baseURL, model string, client *http.Client) *Ollama {
	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  client,
	}
}

type ollamaRequest struct {
	Model    string         `json:"model"`
	Messages []message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options"`
}

type ollamaResponse struct {
	Message message `json:"message"`
}

// Complete implements domain.Completer.
func (c *Ollama) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	var out ollamaResponse
	err := postJSON(ctx, c.client, ProviderOllama, c.baseURL+"/api/chat", nil, ollamaRequest{
		Model:    c.model,
		Messages: messages(req),
		Stream:   false,
		Options:  map[string]any{"temperature": req.Temperature},
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Message.Content, nil
}
