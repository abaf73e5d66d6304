package engine

import (
	"context"

	"querypilot/internal/domain"
)

type duckdbDialect struct{}

func (duckdbDialect) name() string { return DriverDuckDB }

func (duckdbDialect) tables(ctx context.Context, q querier) ([]string, error) {
	return queryStrings(ctx, q, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
}

func (duckdbDialect) columns(ctx context.Context, q querier, table string) ([]string, error) {
	return queryStrings(ctx, q, `
		SELECT column_name FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = ?
		ORDER BY ordinal_position`, table)
}

// Parallel unnest zips the constrained and referenced column lists.
func (duckdbDialect) foreignKeys(ctx context.Context, q querier, table string) ([]domain.ForeignKey, error) {
	return queryForeignKeys(ctx, q, `
		SELECT unnest(constraint_column_names), referenced_table, unnest(referenced_column_names)
		FROM duckdb_constraints()
		WHERE schema_name = current_schema() AND table_name = ? AND constraint_type = 'FOREIGN KEY'
		ORDER BY constraint_index`, table)
}
