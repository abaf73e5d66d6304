package app

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querypilot/internal/config"
	"querypilot/internal/db"
	"querypilot/internal/db/repository"
	"querypilot/internal/domain"
	"querypilot/internal/engine"
	"querypilot/internal/testutil"
)

func testConfig() *config.Config {
	return &config.Config{
		LLMTimeout:     time.Second,
		QueryTimeout:   time.Second,
		ProfileTimeout: time.Second,
	}
}

func openNorthwind(t *testing.T) *engine.Warehouse {
	t.Helper()
	wh, err := engine.Open(context.Background(), engine.Options{Driver: engine.DriverSQLite, DSN: testutil.NewNorthwindDB(t)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = wh.Close() })
	return wh
}

func TestNew_WiresPipelineAndHistory(t *testing.T) {
	store := db.OpenTestStore(t)
	history := repository.NewQueryHistoryRepo(store)
	llm := &testutil.MockCompleter{
		CompleteFn: func(_ context.Context, req domain.CompletionRequest) (string, error) {
			if req.Temperature == 0 {
				return `{"intent":"historical","chart_type":"bar","sql":"SELECT CategoryName, COUNT(*) AS n FROM Categories GROUP BY CategoryName"}`, nil
			}
			return "- three categories", nil
		},
	}

	a, err := New(context.Background(), Deps{
		Cfg:       testConfig(),
		Warehouse: openNorthwind(t),
		LLM:       llm,
		History:   history,
		Logger:    slog.New(slog.DiscardHandler),
	})
	require.NoError(t, err)
	assert.Nil(t, a.Scheduler)

	st := a.Services.Catalog.State()
	require.NotNil(t, st)
	assert.True(t, st.Snapshot.HasTable("Order Details"))
	assert.Contains(t, st.DateRanges, "Orders")

	resp := a.Services.Pipeline.Submit(context.Background(), "how many products per category")
	require.Equal(t, domain.MessageSuccess, resp.Message)
	assert.Len(t, resp.Data, 3)
	require.NotNil(t, resp.Chart)
	assert.Equal(t, domain.ChartBar, resp.Chart.Type)

	entries, total, err := a.Services.History.List(context.Background(), domain.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, domain.HistorySuccess, entries[0].Status)
	assert.Equal(t, "how many products per category", entries[0].Prompt)
}

func TestNew_Scheduler(t *testing.T) {
	t.Parallel()
	wh := openNorthwind(t)

	t.Run("valid spec", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig()
		cfg.SchemaReloadCron = "@every 1h"
		a, err := New(context.Background(), Deps{Cfg: cfg, Warehouse: wh, LLM: &testutil.MockCompleter{}, Logger: slog.New(slog.DiscardHandler)})
		require.NoError(t, err)
		require.NotNil(t, a.Scheduler)
	})

	t.Run("invalid spec", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig()
		cfg.SchemaReloadCron = "every so often"
		_, err := New(context.Background(), Deps{Cfg: cfg, Warehouse: wh, LLM: &testutil.MockCompleter{}, Logger: slog.New(slog.DiscardHandler)})
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
	})
}

func TestNew_CatalogFailureIsFatal(t *testing.T) {
	t.Parallel()
	wh := &testutil.MockWarehouse{
		TablesFn: func(context.Context) ([]string, error) {
			return nil, errors.New("disk I/O error")
		},
	}

	_, err := New(context.Background(), Deps{Cfg: testConfig(), Warehouse: wh, LLM: &testutil.MockCompleter{}, Logger: slog.New(slog.DiscardHandler)})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "build schema catalog")
	assert.Contains(t, err.Error(), "disk I/O error")
}
