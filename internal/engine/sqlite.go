package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"querypilot/internal/domain"
)

// SQLite DSN parameters for the read-only warehouse pool.
const (
	defaultBusyTimeout = "5000" // 5 seconds
)

// OpenSQLite opens a read-only pool over an existing SQLite file. The file
// must exist: SQLite would otherwise create an empty database and the
// catalog would silently come up with no tables.
func OpenSQLite(ctx context.Context, path string, maxOpen int) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound("database file %q not found", path)
		}
		return nil, fmt.Errorf("stat sqlite: %w", err)
	}

	db, err := sql.Open(DriverSQLite, buildDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpen
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// buildDSN constructs a read-only URI DSN.
func buildDSN(path string) string {
	params := url.Values{}
	params.Set("mode", "ro")
	params.Set("_busy_timeout", defaultBusyTimeout)
	params.Set("_query_only", "true")
	return "file:" + path + "?" + params.Encode()
}

type sqliteDialect struct{}

func (sqliteDialect) name() string { return DriverSQLite }

func (sqliteDialect) tables(ctx context.Context, q querier) ([]string, error) {
	return queryStrings(ctx, q, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite\_%' ESCAPE '\'`)
}

func (sqliteDialect) columns(ctx context.Context, q querier, table string) ([]string, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var cols []string
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     sql.NullString
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func (sqliteDialect) foreignKeys(ctx context.Context, q querier, table string) ([]domain.ForeignKey, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var fks []domain.ForeignKey
	for rows.Next() {
		var (
			id, seq            int
			refTable, fromCol  string
			toCol              sql.NullString
			onUpdate, onDelete string
			match              string
		)
		if err := rows.Scan(&id, &seq, &refTable, &fromCol, &toCol, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}
		fks = append(fks, domain.ForeignKey{Column: fromCol, RefTable: refTable, RefColumn: toCol.String})
	}
	return fks, rows.Err()
}
