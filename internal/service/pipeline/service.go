// Package pipeline orchestrates one question end to end: plan, safety
// check, execution, chart, summary and forecast.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"querypilot/internal/domain"
	"querypilot/internal/service/catalog"
	"querypilot/internal/service/chart"
	"querypilot/internal/service/forecast"
	"querypilot/internal/service/insight"
	"querypilot/internal/service/planner"
	"querypilot/internal/service/query"
	"querypilot/internal/sqlguard"
)

const historyWriteTimeout = 2 * time.Second

// Service runs the request-time stages. Every failure after startup is
// recovered into the Response; Submit never returns an error.
type Service struct {
	catalog    *catalog.Catalog
	planner    *planner.Planner
	executor   *query.Executor
	summarizer *insight.Summarizer
	forecaster *forecast.Forecaster
	history    domain.QueryHistoryRepository // optional
	logger     *slog.Logger
}

// NewService creates a pipeline Service. history may be nil.
func NewService(
	cat *catalog.Catalog,
	pl *planner.Planner,
	exec *query.Executor,
	sum *insight.Summarizer,
	fc *forecast.Forecaster,
	history domain.QueryHistoryRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		catalog:    cat,
		planner:    pl,
		executor:   exec,
		summarizer: sum,
		forecaster: fc,
		history:    history,
		logger:     logger.With("component", "pipeline"),
	}
}

// Submit answers prompt.
func (s *Service) Submit(ctx context.Context, prompt string) *domain.Response {
	start := time.Now()
	logger := s.logger
	if id := domain.RequestIDFromContext(ctx); id != "" {
		logger = logger.With("request_id", id)
	}

	resp, out := s.run(ctx, logger, prompt)

	logger.Info("question answered",
		"status", out.status,
		"intent", resp.Intent,
		"duration", time.Since(start))
	s.record(ctx, logger, prompt, resp, out, time.Since(start))
	return resp
}

// outcome is what history needs beyond the response itself.
type outcome struct {
	status   string
	sql      *string // set for blocked statements too
	rowCount *int64
}

func (s *Service) run(ctx context.Context, logger *slog.Logger, prompt string) (*domain.Response, outcome) {
	st := s.catalog.State()

	plan, err := s.planner.Generate(ctx, prompt, st)
	if err != nil {
		var unsafe *domain.UnsafeSQLError
		if errors.As(err, &unsafe) {
			return failure(domain.IntentHistorical, nil, domain.MessageBlocked),
				outcome{status: domain.HistoryBlocked, sql: &unsafe.SQL}
		}
		return failure(domain.IntentHistorical, nil, domain.MessagePlanFailed),
			outcome{status: domain.HistoryPlanFailed}
	}

	if unknown := sqlguard.UnknownTables(plan.SQL, st.Snapshot); len(unknown) > 0 {
		logger.Warn("plan references tables outside the catalog", "tables", unknown, "sql", plan.SQL)
	}

	sqlText := plan.SQL
	rs, err := s.executor.Run(ctx, plan.SQL)
	if err != nil {
		var unsafe *domain.UnsafeSQLError
		if errors.As(err, &unsafe) {
			return failure(plan.Intent, nil, domain.MessageBlocked),
				outcome{status: domain.HistoryBlocked, sql: &sqlText}
		}
		return failure(plan.Intent, &sqlText, "SQL Error: "+err.Error()),
			outcome{status: domain.HistorySQLError, sql: &sqlText}
	}

	resp := &domain.Response{
		Intent:  plan.Intent,
		Query:   &sqlText,
		Data:    rs.Rows,
		Chart:   chart.Build(plan.ChartType, rs),
		Summary: s.summarizer.Summarize(ctx, prompt, rs.Rows),
		Message: domain.MessageSuccess,
	}
	if plan.Intent == domain.IntentForecast {
		resp.Forecast = s.forecaster.Forecast(rs, 0, prompt)
		if resp.Forecast.IsNote() {
			logger.Info("forecast skipped", "note", resp.Forecast.Note)
		}
	}
	n := int64(rs.Len())
	return resp, outcome{status: domain.HistorySuccess, sql: &sqlText, rowCount: &n}
}

func failure(intent domain.Intent, sqlText *string, message string) *domain.Response {
	return &domain.Response{Intent: intent, Query: sqlText, Message: message}
}

// record writes the outcome to query history. Failures are logged only.
func (s *Service) record(ctx context.Context, logger *slog.Logger, prompt string, resp *domain.Response, out outcome, elapsed time.Duration) {
	if s.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyWriteTimeout)
	defer cancel()

	entry := &domain.QueryHistoryEntry{
		RequestID:  domain.RequestIDFromContext(ctx),
		Prompt:     prompt,
		Intent:     string(resp.Intent),
		SQL:        out.sql,
		Status:     out.status,
		RowCount:   out.rowCount,
		Message:    resp.Message,
		DurationMs: elapsed.Milliseconds(),
	}
	if err := s.history.Insert(ctx, entry); err != nil {
		logger.Warn("query history write failed", "error", err)
	}
}
