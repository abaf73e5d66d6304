// Package planner turns a natural-language question into a Plan by asking
// the language model for intent, chart type and SQL in a single call.
package planner

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"querypilot/internal/domain"
)

// Planner asks the language model for query plans.
type Planner struct {
	llm     domain.Completer
	dialect string
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Planner. A zero timeout leaves the call bounded only by ctx.
func New(llm domain.Completer, dialect string, timeout time.Duration, logger *slog.Logger) *Planner {
	return &Planner{
		llm:     llm,
		dialect: dialect,
		timeout: timeout,
		logger:  logger.With("component", "planner"),
	}
}

// Generate produces a plan for prompt. Temperature is pinned to zero and
// there is no retry: a failed call or unusable response is returned as
// *domain.PlanError, a vetoed statement as *domain.UnsafeSQLError.
func (p *Planner) Generate(ctx context.Context, prompt string, st *domain.CatalogState) (*domain.Plan, error) {
	if st == nil || st.Snapshot == nil {
		return nil, domain.ErrPlan(nil, "catalog not loaded")
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := p.llm.Complete(ctx, domain.CompletionRequest{
		System:      BuildSystemPrompt(p.dialect, st),
		User:        prompt,
		Temperature: 0,
	})
	if err != nil {
		p.logger.Error("plan completion failed", "error", err, "duration", time.Since(start))
		return nil, domain.ErrPlan(err, "completion failed")
	}

	plan, err := ParsePlan(text)
	if err != nil {
		var unsafe *domain.UnsafeSQLError
		if errors.As(err, &unsafe) {
			p.logger.Warn("blocked SQL in plan", "keyword", unsafe.Keyword, "sql", unsafe.SQL)
		} else {
			p.logger.Warn("unusable plan response", "error", err, "response", truncate(text, 500))
		}
		return nil, err
	}

	p.logger.Debug("plan generated",
		"intent", plan.Intent,
		"chart_type", plan.ChartType,
		"sql", plan.SQL,
		"duration", time.Since(start))
	return plan, nil
}
