// Package query runs vetted statements against the warehouse.
package query

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"querypilot/internal/domain"
	"querypilot/internal/sqlguard"
)

// Executor gates and times every statement sent to the warehouse.
type Executor struct {
	wh      domain.Warehouse
	timeout time.Duration
	logger  *slog.Logger
}

// NewExecutor creates an Executor. A zero timeout leaves statements bounded
// only by the caller's context.
func NewExecutor(wh domain.Warehouse, timeout time.Duration, logger *slog.Logger) *Executor {
	return &Executor{
		wh:      wh,
		timeout: timeout,
		logger:  logger.With("component", "executor"),
	}
}

// Run re-applies the safety check and executes sqlText. A vetoed statement
// never reaches the warehouse and is returned as *domain.UnsafeSQLError;
// database rejections come back as *domain.ExecutionError.
func (e *Executor) Run(ctx context.Context, sqlText string) (*domain.RowSet, error) {
	if err := sqlguard.Check(sqlText); err != nil {
		e.logger.Warn("blocked SQL before execution", "sql", sqlText)
		return nil, err
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	rs, err := e.wh.Query(ctx, sqlText)
	if err != nil {
		var ee *domain.ExecutionError
		if !errors.As(err, &ee) {
			err = &domain.ExecutionError{SQL: sqlText, Message: err.Error()}
		}
		e.logger.Warn("query failed", "sql", sqlText, "error", err, "duration", time.Since(start))
		return nil, err
	}
	if rs.Rows == nil {
		rs.Rows = []domain.Row{}
	}
	e.logger.Info("query executed", "rows", rs.Len(), "duration", time.Since(start))
	return rs, nil
}
