package engine

import (
	"context"
	"database/sql"

	"querypilot/internal/domain"
)

const defaultMaxOpen = 8

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// dialect holds the metadata queries that differ between drivers.
type dialect interface {
	name() string
	tables(ctx context.Context, q querier) ([]string, error)
	columns(ctx context.Context, q querier, table string) ([]string, error)
	foreignKeys(ctx context.Context, q querier, table string) ([]domain.ForeignKey, error)
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverSQLite, "sqlite":
		return sqliteDialect{}, nil
	case DriverDuckDB:
		return duckdbDialect{}, nil
	case DriverPostgres:
		return postgresDialect{}, nil
	}
	return nil, domain.ErrValidation("unsupported warehouse driver %q", driver)
}

// queryStrings collects the first column of every row.
func queryStrings(ctx context.Context, q querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func queryForeignKeys(ctx context.Context, q querier, query string, args ...any) ([]domain.ForeignKey, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.ForeignKey
	for rows.Next() {
		var col, refTable string
		var refCol sql.NullString
		if err := rows.Scan(&col, &refTable, &refCol); err != nil {
			return nil, err
		}
		out = append(out, domain.ForeignKey{Column: col, RefTable: refTable, RefColumn: refCol.String})
	}
	return out, rows.Err()
}
