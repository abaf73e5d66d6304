// Package catalog builds and holds the planning context: the schema snapshot
// of the warehouse and the date ranges of its temporal columns.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"querypilot/internal/domain"
)

// Extract introspects every table of the warehouse: its columns in database
// order and its declared foreign keys, recorded child -> parent. Foreign keys
// pointing at a table outside the catalog are dropped.
func Extract(ctx context.Context, wh domain.Warehouse, logger *slog.Logger) (*domain.SchemaSnapshot, error) {
	tables, err := wh.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract schema: %w", err)
	}

	snap := &domain.SchemaSnapshot{
		Tables:        make([]string, 0, len(tables)),
		Columns:       make(map[string][]string, len(tables)),
		Relationships: []domain.Relationship{},
	}
	lines := make([]string, 0, len(tables))
	for _, t := range tables {
		cols, err := wh.Columns(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("extract schema: %w", err)
		}
		snap.Tables = append(snap.Tables, t)
		snap.Columns[t] = cols
		lines = append(lines, fmt.Sprintf("%s(%s)", t, strings.Join(cols, ", ")))
	}
	snap.Text = strings.Join(lines, "\n")

	for _, t := range snap.Tables {
		fks, err := wh.ForeignKeys(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("extract schema: %w", err)
		}
		for _, fk := range fks {
			target, ok := snap.ResolveTable(fk.RefTable)
			if !ok {
				logger.Warn("foreign key references unknown table",
					"table", t, "column", fk.Column, "ref_table", fk.RefTable)
				continue
			}
			snap.Relationships = append(snap.Relationships, domain.Relationship{
				FromTable: t,
				FromCol:   fk.Column,
				ToTable:   target,
				ToCol:     fk.RefColumn,
			})
		}
	}

	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("extract schema: %w", err)
	}
	return snap, nil
}

// Catalog holds the current planning context. State is swapped atomically
// on reload, so readers never observe a partially built value.
type Catalog struct {
	wh             domain.Warehouse
	profileTimeout time.Duration
	logger         *slog.Logger

	reloadMu sync.Mutex
	state    atomic.Pointer[domain.CatalogState]
}

// New creates an empty catalog; call Load before serving requests.
func New(wh domain.Warehouse, profileTimeout time.Duration, logger *slog.Logger) *Catalog {
	return &Catalog{
		wh:             wh,
		profileTimeout: profileTimeout,
		logger:         logger.With("component", "catalog"),
	}
}

// Load builds the initial state. A failure here is fatal at startup.
func (c *Catalog) Load(ctx context.Context) error {
	_, err := c.Reload(ctx)
	return err
}

// Reload rebuilds the state and publishes it. On failure the previous state
// stays in place.
func (c *Catalog) Reload(ctx context.Context) (*domain.CatalogState, error) {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	start := time.Now()
	snap, err := Extract(ctx, c.wh, c.logger)
	if err != nil {
		c.logger.Error("catalog build failed", "error", err)
		return nil, err
	}
	st := &domain.CatalogState{
		Snapshot:   snap,
		DateRanges: ProfileDateRanges(ctx, c.wh, snap, c.profileTimeout, c.logger),
		LoadedAt:   time.Now().UTC(),
	}
	c.state.Store(st)
	c.logger.Info("catalog loaded",
		"tables", len(snap.Tables),
		"relationships", len(snap.Relationships),
		"duration", time.Since(start))
	return st, nil
}

// State returns the current state, or nil before the first successful load.
func (c *Catalog) State() *domain.CatalogState {
	return c.state.Load()
}
