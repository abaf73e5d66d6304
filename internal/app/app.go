// Package app provides application-level wiring for the query server: it
// builds the catalog, the pipeline stages and the optional reload schedule
// from already-opened external dependencies.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"querypilot/internal/config"
	"querypilot/internal/domain"
	"querypilot/internal/service/catalog"
	"querypilot/internal/service/forecast"
	"querypilot/internal/service/insight"
	"querypilot/internal/service/pipeline"
	"querypilot/internal/service/planner"
	"querypilot/internal/service/query"
)

// Deps holds the external dependencies that main() must provide.
type Deps struct {
	Cfg       *config.Config
	Warehouse domain.Warehouse
	LLM       domain.Completer
	History   domain.QueryHistoryRepository // nil when history is disabled
	Logger    *slog.Logger
}

// Services groups the wired services the HTTP layer needs.
type Services struct {
	Catalog  *catalog.Catalog
	Pipeline *pipeline.Service
	History  domain.QueryHistoryRepository // nil when history is disabled
}

// App holds the fully-wired application.
type App struct {
	Services  Services
	Scheduler *catalog.Scheduler // nil when SCHEMA_RELOAD_CRON is empty
}

// New builds the catalog (fatal on failure) and wires every pipeline stage.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger

	cat := catalog.New(deps.Warehouse, cfg.ProfileTimeout, logger)
	if err := cat.Load(ctx); err != nil {
		return nil, fmt.Errorf("build schema catalog: %w", err)
	}

	pl := planner.New(deps.LLM, deps.Warehouse.Dialect(), cfg.LLMTimeout, logger)
	exec := query.NewExecutor(deps.Warehouse, cfg.QueryTimeout, logger)
	sum := insight.NewSummarizer(deps.LLM, cfg.LLMTimeout, logger)
	fc := forecast.NewForecaster(logger)
	svc := pipeline.NewService(cat, pl, exec, sum, fc, deps.History, logger)

	a := &App{
		Services: Services{
			Catalog:  cat,
			Pipeline: svc,
			History:  deps.History,
		},
	}

	if cfg.SchemaReloadCron != "" {
		sched, err := catalog.NewScheduler(cat, cfg.SchemaReloadCron, logger)
		if err != nil {
			return nil, err
		}
		a.Scheduler = sched
	}
	return a, nil
}
