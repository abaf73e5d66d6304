package engine

import (
	"context"

	"querypilot/internal/domain"
)

type postgresDialect struct{}

func (postgresDialect) name() string { return DriverPostgres }

func (postgresDialect) tables(ctx context.Context, q querier) ([]string, error) {
	return queryStrings(ctx, q, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
}

func (postgresDialect) columns(ctx context.Context, q querier, table string) ([]string, error) {
	return queryStrings(ctx, q, `
		SELECT column_name FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position`, table)
}

func (postgresDialect) foreignKeys(ctx context.Context, q querier, table string) ([]domain.ForeignKey, error) {
	return queryForeignKeys(ctx, q, `
		SELECT a.attname, cf.relname, af.attname
		FROM pg_constraint c
		JOIN pg_class cl ON cl.oid = c.conrelid
		JOIN pg_namespace n ON n.oid = cl.relnamespace
		JOIN pg_class cf ON cf.oid = c.confrelid
		CROSS JOIN LATERAL unnest(c.conkey, c.confkey) WITH ORDINALITY AS k(attnum, fattnum, ord)
		JOIN pg_attribute a ON a.attrelid = c.conrelid AND a.attnum = k.attnum
		JOIN pg_attribute af ON af.attrelid = c.confrelid AND af.attnum = k.fattnum
		WHERE c.contype = 'f' AND n.nspname = current_schema() AND cl.relname = $1
		ORDER BY c.oid, k.ord`, table)
}
