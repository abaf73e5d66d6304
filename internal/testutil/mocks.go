// Package testutil provides shared mock implementations of domain interfaces
// and database fixtures for use in tests across the codebase.
package testutil

import (
	"context"
	"sync"

	"querypilot/internal/domain"
)

// === Completer Mock ===

// MockCompleter implements domain.Completer for testing.
type MockCompleter struct {
	CompleteFn func(ctx context.Context, req domain.CompletionRequest) (string, error)

	mu       sync.Mutex
	Requests []domain.CompletionRequest // collected requests for assertions
}

var _ domain.Completer = (*MockCompleter)(nil)

// Complete implements the interface method for testing.
func (m *MockCompleter) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.CompleteFn != nil {
		return m.CompleteFn(ctx, req)
	}
	panic("unexpected call to MockCompleter.Complete")
}

// Calls returns the number of completions requested so far.
func (m *MockCompleter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// === Warehouse Mock ===

// MockWarehouse implements domain.Warehouse for testing.
type MockWarehouse struct {
	DialectName   string
	TablesFn      func(ctx context.Context) ([]string, error)
	ColumnsFn     func(ctx context.Context, table string) ([]string, error)
	ForeignKeysFn func(ctx context.Context, table string) ([]domain.ForeignKey, error)
	QueryFn       func(ctx context.Context, sql string) (*domain.RowSet, error)
	MinMaxFn      func(ctx context.Context, table, column string) (string, string, bool, error)

	mu      sync.Mutex
	Queries []string // collected SQL for assertions
}

var _ domain.Warehouse = (*MockWarehouse)(nil)

// Dialect implements the interface method for testing.
func (m *MockWarehouse) Dialect() string {
	if m.DialectName == "" {
		return "sqlite3"
	}
	return m.DialectName
}

// Tables implements the interface method for testing.
func (m *MockWarehouse) Tables(ctx context.Context) ([]string, error) {
	if m.TablesFn != nil {
		return m.TablesFn(ctx)
	}
	panic("unexpected call to MockWarehouse.Tables")
}

// Columns implements the interface method for testing.
func (m *MockWarehouse) Columns(ctx context.Context, table string) ([]string, error) {
	if m.ColumnsFn != nil {
		return m.ColumnsFn(ctx, table)
	}
	panic("unexpected call to MockWarehouse.Columns")
}

// ForeignKeys implements the interface method for testing.
func (m *MockWarehouse) ForeignKeys(ctx context.Context, table string) ([]domain.ForeignKey, error) {
	if m.ForeignKeysFn != nil {
		return m.ForeignKeysFn(ctx, table)
	}
	return nil, nil
}

// Query implements the interface method for testing.
func (m *MockWarehouse) Query(ctx context.Context, sql string) (*domain.RowSet, error) {
	m.mu.Lock()
	m.Queries = append(m.Queries, sql)
	m.mu.Unlock()
	if m.QueryFn != nil {
		return m.QueryFn(ctx, sql)
	}
	panic("unexpected call to MockWarehouse.Query")
}

// MinMax implements the interface method for testing.
func (m *MockWarehouse) MinMax(ctx context.Context, table, column string) (string, string, bool, error) {
	if m.MinMaxFn != nil {
		return m.MinMaxFn(ctx, table, column)
	}
	return "", "", false, nil
}

// QueryCount returns the number of statements executed so far.
func (m *MockWarehouse) QueryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Queries)
}

// === Query History Repository Mock ===

// MockQueryHistoryRepo implements domain.QueryHistoryRepository for testing.
type MockQueryHistoryRepo struct {
	InsertFn func(ctx context.Context, e *domain.QueryHistoryEntry) error
	ListFn   func(ctx context.Context, page domain.PageRequest) ([]domain.QueryHistoryEntry, int64, error)

	mu      sync.Mutex
	Entries []*domain.QueryHistoryEntry // collected entries for assertions
}

var _ domain.QueryHistoryRepository = (*MockQueryHistoryRepo)(nil)

// Insert implements the interface method for testing.
func (m *MockQueryHistoryRepo) Insert(ctx context.Context, e *domain.QueryHistoryEntry) error {
	if m.InsertFn != nil {
		if err := m.InsertFn(ctx, e); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Entries = append(m.Entries, e)
	m.mu.Unlock()
	return nil
}

// List implements the interface method for testing.
func (m *MockQueryHistoryRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.QueryHistoryEntry, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, page)
	}
	panic("unexpected call to MockQueryHistoryRepo.List")
}

// LastEntry returns the last collected history entry, or nil if none.
func (m *MockQueryHistoryRepo) LastEntry() *domain.QueryHistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Entries) == 0 {
		return nil
	}
	return m.Entries[len(m.Entries)-1]
}
