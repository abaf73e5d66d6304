package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querypilot/internal/domain"
)

func TestOpenAI_Complete(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			return
		}
		assert.Equal(t, "gemma2-9b-it", body["model"])
		assert.Contains(t, body, "temperature", "zero temperature must be sent explicitly")
		assert.InDelta(t, 0, body["temperature"], 1e-9)
		msgs, _ := body["messages"].([]any)
		if assert.Len(t, msgs, 2) {
			assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
			assert.Equal(t, "question", msgs[1].(map[string]any)["content"])
		}

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"sql\":\"SELECT 1\"}"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAI(srv.URL+"/v1/", "secret", DefaultOpenAIModel, srv.Client())
	got, err := c.Complete(context.Background(), domain.CompletionRequest{System: "rules", User: "question"})
	require.NoError(t, err)
	assert.Equal(t, `{"sql":"SELECT 1"}`, got)
}

func TestOpenAI_Errors(t *testing.T) {
	t.Parallel()

	t.Run("status", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":{"message":"invalid api key"}}`, http.StatusUnauthorized)
		}))
		defer srv.Close()

		_, err := NewOpenAI(srv.URL, "bad", "m", srv.Client()).Complete(context.Background(), domain.CompletionRequest{User: "q"})
		var se *StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
		assert.Contains(t, se.Body, "invalid api key")
	})

	t.Run("no choices", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()

		_, err := NewOpenAI(srv.URL, "", "m", srv.Client()).Complete(context.Background(), domain.CompletionRequest{User: "q"})
		require.Error(t, err)
	})

	t.Run("context deadline", func(t *testing.T) {
		t.Parallel()
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := NewOpenAI(srv.URL, "", "m", srv.Client()).Complete(ctx, domain.CompletionRequest{User: "q"})
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestOllama_Complete(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var body ollamaRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			return
		}
		assert.False(t, body.Stream)
		assert.Equal(t, "llama3.1", body.Model)
		assert.InDelta(t, 0.2, body.Options["temperature"], 1e-9)
		assert.Len(t, body.Messages, 1, "empty system prompt is omitted")

		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"- insight"},"done":true}`))
	}))
	defer srv.Close()

	got, err := NewOllama(srv.URL, DefaultOllamaModel, srv.Client()).
		Complete(context.Background(), domain.CompletionRequest{User: "q", Temperature: 0.2})
	require.NoError(t, err)
	assert.Equal(t, "- insight", got)
}

func TestNew(t *testing.T) {
	t.Parallel()

	c, err := New(Config{Provider: "openai", APIKey: "k"})
	require.NoError(t, err)
	oa, ok := c.(*OpenAI)
	require.True(t, ok)
	assert.Equal(t, DefaultOpenAIBaseURL, oa.baseURL)
	assert.Equal(t, DefaultOpenAIModel, oa.model)
	assert.Equal(t, DefaultTimeout, oa.client.Timeout)

	c, err = New(Config{Provider: "Ollama", Model: "mistral", Timeout: time.Second})
	require.NoError(t, err)
	ol, ok := c.(*Ollama)
	require.True(t, ok)
	assert.Equal(t, DefaultOllamaBaseURL, ol.baseURL)
	assert.Equal(t, "mistral", ol.model)

	_, err = New(Config{Provider: "bard"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
}
