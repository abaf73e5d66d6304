// Package engine is the database boundary: it introspects and queries the
// relational warehouse the pipeline plans against.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2" // registers "duckdb"
	_ "github.com/lib/pq"              // registers "postgres"
	_ "github.com/mattn/go-sqlite3"    // registers "sqlite3"

	"querypilot/internal/domain"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
)

// Compile-time check.
var _ domain.Warehouse = (*Warehouse)(nil)

// Options selects and configures the warehouse connection.
type Options struct {
	Driver string
	DSN    string
	// MaxOpenConns bounds concurrent request connections (0 = 8).
	MaxOpenConns int
	Logger       *slog.Logger
}

// Warehouse implements domain.Warehouse over database/sql.
type Warehouse struct {
	db      *sql.DB
	dialect dialect
	logger  *slog.Logger
}

// Open connects to the warehouse described by opts. A missing SQLite file is
// reported as *domain.NotFoundError.
func Open(ctx context.Context, opts Options) (*Warehouse, error) {
	var (
		db  *sql.DB
		err error
	)
	switch opts.Driver {
	case DriverSQLite, "sqlite", "":
		db, err = OpenSQLite(ctx, opts.DSN, opts.MaxOpenConns)
		opts.Driver = DriverSQLite
	case DriverDuckDB, DriverPostgres:
		db, err = openPool(ctx, opts.Driver, opts.DSN, opts.MaxOpenConns)
	default:
		return nil, domain.ErrValidation("unsupported warehouse driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}
	return New(db, opts.Driver, opts.Logger)
}

// New wraps an already-open database handle.
func New(db *sql.DB, driver string, logger *slog.Logger) (*Warehouse, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Warehouse{db: db, dialect: d, logger: logger}, nil
}

func openPool(ctx context.Context, driver, dsn string, maxOpen int) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpen
	}
	db.SetMaxOpenConns(maxOpen)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// Close releases the connection pool.
func (w *Warehouse) Close() error {
	return w.db.Close()
}

// Dialect returns the driver name, e.g. "sqlite3".
func (w *Warehouse) Dialect() string {
	return w.dialect.name()
}

// Tables enumerates user tables.
func (w *Warehouse) Tables(ctx context.Context) ([]string, error) {
	tables, err := w.dialect.tables(ctx, w.db)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

// Columns lists a table's columns in database order.
func (w *Warehouse) Columns(ctx context.Context, table string) ([]string, error) {
	cols, err := w.dialect.columns(ctx, w.db, table)
	if err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", table, err)
	}
	return cols, nil
}

// ForeignKeys lists the foreign keys declared on table.
func (w *Warehouse) ForeignKeys(ctx context.Context, table string) ([]domain.ForeignKey, error) {
	fks, err := w.dialect.foreignKeys(ctx, w.db, table)
	if err != nil {
		return nil, fmt.Errorf("list foreign keys of %s: %w", table, err)
	}
	return fks, nil
}

// MinMax runs a single aggregate over column.
func (w *Warehouse) MinMax(ctx context.Context, table, column string) (string, string, bool, error) {
	q := fmt.Sprintf("SELECT MIN(%s), MAX(%s) FROM %s", quoteIdent(column), quoteIdent(column), quoteIdent(table))
	var lo, hi any
	if err := w.db.QueryRowContext(ctx, q).Scan(&lo, &hi); err != nil {
		return "", "", false, err
	}
	if lo == nil || hi == nil {
		return "", "", false, nil
	}
	return textValue(lo), textValue(hi), true, nil
}

// Query runs one statement on a dedicated connection that is released on
// every exit path. Read statements return their rows; anything else is
// executed and acknowledged with a single rows_affected row. Database
// failures come back as *domain.ExecutionError.
func (w *Warehouse) Query(ctx context.Context, sqlQuery string) (*domain.RowSet, error) {
	conn, err := w.db.Conn(ctx)
	if err != nil {
		return nil, &domain.ExecutionError{SQL: sqlQuery, Message: err.Error()}
	}
	defer conn.Close() //nolint:errcheck

	if !IsReadStatement(sqlQuery) {
		w.logger.Warn("executing non-read statement", "sql", sqlQuery)
		res, err := conn.ExecContext(ctx, sqlQuery)
		if err != nil {
			return nil, &domain.ExecutionError{SQL: sqlQuery, Message: err.Error()}
		}
		n, err := res.RowsAffected()
		if err != nil {
			n = 0
		}
		return &domain.RowSet{
			Columns:      []string{"rows_affected"},
			Rows:         []domain.Row{{"rows_affected": n}},
			RowsAffected: &n,
		}, nil
	}

	rows, err := conn.QueryContext(ctx, sqlQuery)
	if err != nil {
		return nil, &domain.ExecutionError{SQL: sqlQuery, Message: err.Error()}
	}
	defer rows.Close() //nolint:errcheck

	rs, err := scanRows(rows)
	if err != nil {
		return nil, &domain.ExecutionError{SQL: sqlQuery, Message: err.Error()}
	}
	return rs, nil
}

var readKeywords = map[string]bool{
	"SELECT": true, "WITH": true, "PRAGMA": true, "EXPLAIN": true,
	"VALUES": true, "SHOW": true, "DESCRIBE": true, "TABLE": true,
}

// IsReadStatement reports whether the statement's leading keyword is a
// row-returning one. Leading parentheses and SQL comments are skipped.
func IsReadStatement(sqlQuery string) bool {
	s := strings.TrimSpace(sqlQuery)
	for {
		switch {
		case strings.HasPrefix(s, "--"):
			if i := strings.IndexByte(s, '\n'); i >= 0 {
				s = strings.TrimSpace(s[i+1:])
				continue
			}
			return false
		case strings.HasPrefix(s, "/*"):
			if i := strings.Index(s, "*/"); i >= 0 {
				s = strings.TrimSpace(s[i+2:])
				continue
			}
			return false
		case strings.HasPrefix(s, "("):
			s = strings.TrimSpace(s[1:])
			continue
		}
		break
	}
	end := strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	})
	if end < 0 {
		end = len(s)
	}
	return readKeywords[strings.ToUpper(s[:end])]
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
