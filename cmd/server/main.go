package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"querypilot/internal/api"
	"querypilot/internal/app"
	"querypilot/internal/config"
	internaldb "querypilot/internal/db"
	"querypilot/internal/db/repository"
	"querypilot/internal/domain"
	"querypilot/internal/engine"
	"querypilot/internal/llm"
	"querypilot/internal/middleware"
	"querypilot/internal/ui"
)

const (
	defaultListenAddr = ":8000"
	shutdownTimeout   = 15 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	wh, err := engine.Open(ctx, engine.Options{
		Driver: cfg.WarehouseDriver,
		DSN:    cfg.WarehouseDSN,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("open warehouse: %w", err)
	}
	defer wh.Close() //nolint:errcheck
	logger.Info("warehouse opened", "driver", wh.Dialect())

	completer, err := llm.New(llm.Config{
		Provider: cfg.LLMProvider,
		BaseURL:  cfg.LLMBaseURL,
		APIKey:   cfg.LLMAPIKey,
		Model:    cfg.LLMModel,
		Timeout:  cfg.LLMTimeout,
	})
	if err != nil {
		return fmt.Errorf("language model: %w", err)
	}

	var history domain.QueryHistoryRepository
	if cfg.HistoryEnabled() {
		store, err := internaldb.OpenStore(ctx, cfg.HistoryDBPath)
		if err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
		defer store.Close() //nolint:errcheck
		history = repository.NewQueryHistoryRepo(store)
		logger.Info("query history enabled", "path", cfg.HistoryDBPath)
	}

	application, err := app.New(ctx, app.Deps{
		Cfg:       cfg,
		Warehouse: wh,
		LLM:       completer,
		History:   history,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	if st := application.Services.Catalog.State(); st != nil {
		logger.Info("schema catalog loaded",
			"tables", len(st.Snapshot.Tables),
			"relationships", len(st.Snapshot.Relationships))
	}
	if application.Scheduler != nil {
		application.Scheduler.Start()
		defer application.Scheduler.Stop()
		logger.Info("schema reload scheduled", "spec", cfg.SchemaReloadCron, "next", application.Scheduler.Next())
	}

	var historyLister api.HistoryLister
	if history != nil {
		historyLister = history
	}
	handler := api.NewHandler(application.Services.Pipeline, application.Services.Catalog, historyLister, logger)
	uiHandler := ui.NewHandler(application.Services.Pipeline, application.Services.Catalog, cfg.IsProduction(), logger)

	r := newRouter(cfg, handler, uiHandler)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening", "addr", cfg.ListenAddr)
		logger.Info(fmt.Sprintf(`Try: curl -X POST http://%s/query -H 'Content-Type: application/json' -d '{"prompt":"Total sales by month"}'`,
			curlHostForListenAddr(cfg.ListenAddr)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newRouter assembles the middleware chain and mounts the JSON API and the
// HTML UI.
func newRouter(cfg *config.Config, handler *api.Handler, uiHandler *ui.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))

	handler.RegisterRoutes(r)
	r.Route("/ui", func(r chi.Router) { ui.MountRoutes(r, uiHandler) })
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusFound)
	})
	return r
}

// curlHostForListenAddr turns a listen address into a host:port usable in a
// curl example. Wildcard and empty hosts become localhost.
func curlHostForListenAddr(listenAddr string) string {
	addr := strings.TrimSpace(listenAddr)
	if addr == "" {
		addr = defaultListenAddr
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
