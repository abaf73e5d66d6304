//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"querypilot/internal/api"
	"querypilot/internal/app"
	"querypilot/internal/config"
	"querypilot/internal/db"
	"querypilot/internal/db/repository"
	"querypilot/internal/domain"
	"querypilot/internal/engine"
	"querypilot/internal/middleware"
	"querypilot/internal/testutil"
	"querypilot/internal/ui"
)

// httpTestEnv is a running server over a Northwind SQLite warehouse with a
// scripted language model and an on-disk history store.
type httpTestEnv struct {
	Server *httptest.Server
	App    *app.App
	LLM    *testutil.MockCompleter
}

// planFn returns the plan JSON the scripted model answers with for a prompt.
type planFn func(prompt string) string

func setupHTTPServer(t *testing.T, plan planFn) *httpTestEnv {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	wh, err := engine.Open(ctx, engine.Options{
		Driver: engine.DriverSQLite,
		DSN:    testutil.NewNorthwindDB(t),
		Logger: logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = wh.Close() })

	llm := &testutil.MockCompleter{
		CompleteFn: func(_ context.Context, req domain.CompletionRequest) (string, error) {
			if req.Temperature == 0 {
				return plan(req.User), nil
			}
			return "- scripted summary", nil
		},
	}

	cfg := &config.Config{
		LLMTimeout:     5 * time.Second,
		QueryTimeout:   5 * time.Second,
		ProfileTimeout: 5 * time.Second,
	}
	history := repository.NewQueryHistoryRepo(db.OpenTestStore(t))

	a, err := app.New(ctx, app.Deps{
		Cfg:       cfg,
		Warehouse: wh,
		LLM:       llm,
		History:   history,
		Logger:    logger,
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	api.NewHandler(a.Services.Pipeline, a.Services.Catalog, history, logger).RegisterRoutes(r)
	uiHandler := ui.NewHandler(a.Services.Pipeline, a.Services.Catalog, false, logger)
	r.Route("/ui", func(r chi.Router) { ui.MountRoutes(r, uiHandler) })

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &httpTestEnv{Server: srv, App: a, LLM: llm}
}

func doJSON(t *testing.T, method, url string, body string, out any) int {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}
