package domain

import "time"

// Query history statuses.
const (
	HistorySuccess    = "SUCCESS"
	HistoryPlanFailed = "PLAN_FAILED"
	HistoryBlocked    = "BLOCKED"
	HistorySQLError   = "SQL_ERROR"
)

// QueryHistoryEntry records one submit_query outcome.
type QueryHistoryEntry struct {
	ID         int64     `json:"id"`
	RequestID  string    `json:"request_id,omitempty"`
	Prompt     string    `json:"prompt"`
	Intent     string    `json:"intent"`
	SQL        *string   `json:"sql"`
	Status     string    `json:"status"`
	RowCount   *int64    `json:"row_count"`
	Message    string    `json:"message"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
