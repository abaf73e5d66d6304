package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"querypilot/internal/domain"
	"querypilot/internal/heuristic"
)

const profileParallelism = 8

// ProfileDateRanges computes min/max bounds for every column whose name
// contains a date-like token. Per-column failures are logged and the column
// is left out; this never fails as a whole.
func ProfileDateRanges(ctx context.Context, wh domain.Warehouse, snap *domain.SchemaSnapshot, timeout time.Duration, logger *slog.Logger) domain.DateRanges {
	var (
		mu     sync.Mutex
		ranges = domain.DateRanges{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(profileParallelism)

	for _, table := range snap.Tables {
		for _, col := range snap.Columns[table] {
			if !heuristic.NameMatches(col, heuristic.ProfileTokens) {
				continue
			}
			g.Go(func() error {
				cctx := gctx
				if timeout > 0 {
					var cancel context.CancelFunc
					cctx, cancel = context.WithTimeout(gctx, timeout)
					defer cancel()
				}
				lo, hi, ok, err := wh.MinMax(cctx, table, col)
				if err != nil {
					logger.Debug("date range skipped", "table", table, "column", col, "error", err)
					return nil
				}
				if !ok {
					return nil
				}
				mu.Lock()
				if ranges[table] == nil {
					ranges[table] = map[string]domain.DateRange{}
				}
				ranges[table][col] = domain.DateRange{Min: lo, Max: hi}
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()
	return ranges
}
