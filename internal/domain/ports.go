package domain

import "context"

// Warehouse is the relational store the pipeline plans and runs against.
// Implemented by engine.Warehouse.
type Warehouse interface {
	Dialect() string
	Tables(ctx context.Context) ([]string, error)
	Columns(ctx context.Context, table string) ([]string, error)
	ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error)
	Query(ctx context.Context, sqlQuery string) (*RowSet, error)
	// MinMax returns the bounds of a column rendered as text; ok is false
	// when either bound is NULL.
	MinMax(ctx context.Context, table, column string) (minVal, maxVal string, ok bool, err error)
}

// CompletionRequest is one chat completion call.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float64
}

// Completer is the language-model boundary. Implemented by the llm package.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// QueryHistoryRepository persists pipeline outcomes.
// Implemented by repository.QueryHistoryRepo.
type QueryHistoryRepository interface {
	Insert(ctx context.Context, e *QueryHistoryEntry) error
	List(ctx context.Context, page PageRequest) ([]QueryHistoryEntry, int64, error)
}
