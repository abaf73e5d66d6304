// Package insight asks the language model for a short synopsis of a result.
package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"querypilot/internal/domain"
)

// Sample bounds for the summary request.
const (
	MaxRows    = 200
	MaxPayload = 6000 // characters of serialized rows
)

const systemPrompt = "You summarize analytical SQL results briefly and clearly for business users."

// Summarizer produces best-effort bullet-point summaries.
type Summarizer struct {
	llm         domain.Completer
	timeout     time.Duration
	temperature float64
	logger      *slog.Logger
}

// NewSummarizer creates a Summarizer sampling at temperature 0.2.
func NewSummarizer(llm domain.Completer, timeout time.Duration, logger *slog.Logger) *Summarizer {
	return &Summarizer{
		llm:         llm,
		timeout:     timeout,
		temperature: 0.2,
		logger:      logger.With("component", "insight"),
	}
}

// Summarize returns MessageNoRows for an empty result, the model's summary
// otherwise, and nil when the call fails.
func (s *Summarizer) Summarize(ctx context.Context, question string, rows []domain.Row) *string {
	if len(rows) == 0 {
		msg := domain.MessageNoRows
		return &msg
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	text, err := s.llm.Complete(ctx, domain.CompletionRequest{
		System:      systemPrompt,
		User:        BuildPrompt(question, rows),
		Temperature: s.temperature,
	})
	if err != nil {
		s.logger.Warn("summary failed", "error", err)
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		s.logger.Warn("summary empty")
		return nil
	}
	return &text
}

// BuildPrompt renders the user message: the question plus the first MaxRows
// rows as JSON cut to MaxPayload characters.
func BuildPrompt(question string, rows []domain.Row) string {
	sample := rows
	if len(sample) > MaxRows {
		sample = sample[:MaxRows]
	}
	payload, err := json.Marshal(sample)
	if err != nil {
		payload = []byte("[]")
	}
	return fmt.Sprintf("User question: %s\n\nData (JSON rows, truncated):\n%s\n\n"+
		"Write 3-5 concise bullet points highlighting the key insights. "+
		"Avoid restating raw rows; compute relevant totals or top items if obvious.",
		question, truncate(string(payload), MaxPayload))
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
