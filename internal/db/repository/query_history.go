// Package repository implements domain repositories over the SQLite metastore.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"querypilot/internal/db"
	"querypilot/internal/domain"
)

const timeLayout = "2006-01-02T15:04:05.000Z"

// QueryHistoryRepo implements domain.QueryHistoryRepository.
type QueryHistoryRepo struct {
	write *sql.DB
	read  *sql.DB
}

var _ domain.QueryHistoryRepository = (*QueryHistoryRepo)(nil)

// NewQueryHistoryRepo creates a repository over a migrated store.
func NewQueryHistoryRepo(store *db.Store) *QueryHistoryRepo {
	return &QueryHistoryRepo{write: store.Write, read: store.Read}
}

// Insert records e and fills its ID and CreatedAt.
func (r *QueryHistoryRepo) Insert(ctx context.Context, e *domain.QueryHistoryEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	res, err := r.write.ExecContext(ctx, `
		INSERT INTO query_history (request_id, prompt, intent, sql_text, status, row_count, message, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RequestID, e.Prompt, e.Intent, nullString(e.SQL), e.Status, nullInt64(e.RowCount),
		e.Message, e.DurationMs, e.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert query history: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert query history: %w", err)
	}
	e.ID = id
	return nil
}

// List returns entries newest first along with the total count.
func (r *QueryHistoryRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.QueryHistoryEntry, int64, error) {
	var total int64
	if err := r.read.QueryRowContext(ctx, `SELECT COUNT(*) FROM query_history`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count query history: %w", err)
	}

	rows, err := r.read.QueryContext(ctx, `
		SELECT id, request_id, prompt, intent, sql_text, status, row_count, message, duration_ms, created_at
		FROM query_history
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list query history: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	entries := []domain.QueryHistoryEntry{}
	for rows.Next() {
		var (
			e         domain.QueryHistoryEntry
			sqlText   sql.NullString
			rowCount  sql.NullInt64
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Prompt, &e.Intent, &sqlText, &e.Status,
			&rowCount, &e.Message, &e.DurationMs, &createdAt); err != nil {
			return nil, 0, fmt.Errorf("scan query history: %w", err)
		}
		if sqlText.Valid {
			e.SQL = &sqlText.String
		}
		if rowCount.Valid {
			e.RowCount = &rowCount.Int64
		}
		if t, err := time.Parse(timeLayout, createdAt); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}
