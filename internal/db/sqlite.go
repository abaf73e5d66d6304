// Package db provides the SQLite metastore that records query history,
// with embedded goose migrations.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers "sqlite3"
)

// SQLite DSN parameters for the metastore.
const (
	defaultBusyTimeout = "5000" // 5 seconds
	defaultSynchronous = "NORMAL"
	defaultJournalMode = "WAL"
	defaultReadMaxOpen = 4
)

// Mode selects the pool flavour.
type Mode string

// Pool modes.
const (
	// ModeWrite is a single-connection pool with immediate transactions.
	ModeWrite Mode = "write"
	// ModeRead is a multi-connection pool.
	ModeRead Mode = "read"
)

// OpenSQLite opens a *sql.DB pool for the given SQLite file path. Both
// modes use WAL, busy_timeout=5000ms and synchronous=NORMAL; the write pool
// holds a single connection so writers never contend.
func OpenSQLite(ctx context.Context, path string, mode Mode, maxOpen int) (*sql.DB, error) {
	if mode != ModeRead && mode != ModeWrite {
		return nil, fmt.Errorf("invalid SQLite mode %q: must be \"read\" or \"write\"", mode)
	}

	db, err := sql.Open("sqlite3", buildDSN(path, mode))
	if err != nil {
		return nil, fmt.Errorf("open sqlite (%s): %w", mode, err)
	}

	switch mode {
	case ModeWrite:
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	case ModeRead:
		if maxOpen <= 0 {
			maxOpen = defaultReadMaxOpen
		}
		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(maxOpen)
	}
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite (%s): %w", mode, err)
	}
	return db, nil
}

func buildDSN(path string, mode Mode) string {
	params := url.Values{}
	params.Set("_journal_mode", defaultJournalMode)
	params.Set("_busy_timeout", defaultBusyTimeout)
	params.Set("_synchronous", defaultSynchronous)
	if mode == ModeWrite {
		params.Set("_txlock", "immediate")
	}
	return path + "?" + params.Encode()
}

// Store is the migrated metastore: a write pool and a read pool over one file.
type Store struct {
	Write *sql.DB
	Read  *sql.DB
}

// OpenStore creates the file's directory if needed, opens both pools and
// applies pending migrations.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create metastore dir: %w", err)
		}
	}

	writeDB, err := OpenSQLite(ctx, path, ModeWrite, 0)
	if err != nil {
		return nil, err
	}
	if _, err := RunMigrations(ctx, writeDB); err != nil {
		_ = writeDB.Close()
		return nil, err
	}
	readDB, err := OpenSQLite(ctx, path, ModeRead, 0)
	if err != nil {
		_ = writeDB.Close()
		return nil, err
	}
	return &Store{Write: writeDB, Read: readDB}, nil
}

// Close closes both pools.
func (s *Store) Close() error {
	rerr := s.Read.Close()
	if err := s.Write.Close(); err != nil {
		return err
	}
	return rerr
}
