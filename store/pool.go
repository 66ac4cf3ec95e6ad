// Package store owns the SQLite-backed schema, connection pool,
// per-dimension identity caches and the batch persister described in
// spec.md §4.3/§4.4. The pool is the Go idiom's equivalent of
// original_source's r2d2 pool: database/sql already IS a connection
// pool, so no third-party pooling library is wired — see DESIGN.md.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// PoolConfig holds the tunables named in spec.md §5/§6.
type PoolConfig struct {
	Path        string
	MaxOpenConn int           // default 15
	AcquireWait time.Duration // default 12s
}

// DefaultPoolConfig returns spec.md's documented defaults for the
// given database path.
func DefaultPoolConfig(path string) PoolConfig {
	return PoolConfig{
		Path:        path,
		MaxOpenConn: 15,
		AcquireWait: 12 * time.Second,
	}
}

// Pool wraps *sql.DB with the fixed size and acquire-timeout contract
// spec.md §5 describes for the connection pool.
type Pool struct {
	db   *sql.DB
	wait time.Duration
}

// Open creates (or opens) the SQLite database at cfg.Path, applies the
// schema idempotently, and returns a ready pool. Fatal per spec.md §7
// item 5: the caller should abort the process on error.
func Open(cfg PoolConfig) (*Pool, error) {
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", cfg.Path, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConn)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Pool{db: db, wait: cfg.AcquireWait}, nil
}

// Close releases the pool's connections.
func (p *Pool) Close() error {
	return p.db.Close()
}

// Acquire blocks, up to the pool's configured acquire timeout, for a
// single reusable connection handle. In the single-writer steady
// state described by spec.md §5, this degenerates to one live
// handle held by the persister for the duration of a block's
// transaction.
func (p *Pool) Acquire(ctx context.Context) (*sql.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, p.wait)
	defer cancel()

	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return conn, nil
}
