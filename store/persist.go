package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/loggerson/loggerson/diagnostics"
	"github.com/loggerson/loggerson/models"
)

// Persister owns the identity cache and the single database connection
// used to intern dimensions and insert fact rows for one block at a
// time, per spec.md §4.4. It is not safe for concurrent use — the
// pipeline's Conductor runs exactly one persister goroutine.
type Persister struct {
	pool  *Pool
	cache *IdentityCache
}

// NewPersister pairs a pool with a (possibly pre-populated) cache.
func NewPersister(pool *Pool, cache *IdentityCache) *Persister {
	return &Persister{pool: pool, cache: cache}
}

// PersistBlock interns every dimension referenced by entries and
// inserts one entrys row per entry, all within a single transaction.
// Per-row SQL errors are tee'd to diag and the row is skipped; the
// transaction itself still commits unless the commit itself fails. A
// block that cannot acquire a connection, begin its transaction or
// commit is reported via diagnostics.DbError. On a failed commit the
// identity cache is also cleared, because the keys it learned during
// this block may belong to rolled-back rows; later intern calls then
// resolve each value against the database again (lookup-or-insert).
func (p *Persister) PersistBlock(ctx context.Context, entries []models.LogEntry, diag chan<- diagnostics.Message) error {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		diag <- diagnostics.DbError{Err: err}
		return fmt.Errorf("acquire connection for block: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		diag <- diagnostics.DbError{Err: err}
		return fmt.Errorf("begin block transaction: %w", err)
	}

	for _, entry := range entries {
		if err := p.persistEntry(ctx, tx, entry, diag); err != nil {
			diag <- diagnostics.SqliteError{Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		*p.cache = *NewIdentityCache()
		diag <- diagnostics.DbError{Err: err}
		return fmt.Errorf("commit block: %w", err)
	}
	return nil
}

func (p *Persister) persistEntry(ctx context.Context, tx *sql.Tx, entry models.LogEntry, diag chan<- diagnostics.Message) error {
	requestID, err := p.internRequest(ctx, tx, entry.Request)
	if err != nil {
		return err
	}

	userID, err := p.internUser(ctx, tx, entry.User)
	if err != nil {
		return err
	}

	var referrerID sql.NullInt64
	if entry.Referrer != nil {
		id, err := p.internReferrer(ctx, tx, *entry.Referrer)
		if err != nil {
			return err
		}
		referrerID = sql.NullInt64{Int64: id, Valid: true}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO entrys (timestamp, request_id, user_id, referrer_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, entry.Timestamp, requestID, userID, referrerID)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("entry rows affected: %w", err)
	}
	diag <- diagnostics.RowInserted{}
	if affected == 0 {
		diag <- diagnostics.RowDuplicate{}
	}
	return nil
}

// internRequest returns request's surrogate key, inserting it first if
// this is the first time this (method, url, status_code) triple has
// been seen by this process.
func (p *Persister) internRequest(ctx context.Context, tx *sql.Tx, req models.Request) (int64, error) {
	if id, ok := p.cache.requests[req]; ok {
		return id, nil
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO requests (method, url, status_code) VALUES (?, ?, ?)
		ON CONFLICT (method, url, status_code) DO NOTHING
	`, req.Method, req.URL, req.StatusCode)
	if err != nil {
		return 0, fmt.Errorf("intern request: %w", err)
	}

	id, err := lastOrLookup(ctx, tx, res,
		`SELECT id FROM requests WHERE method = ? AND url = ? AND status_code = ?`,
		req.Method, req.URL, req.StatusCode)
	if err != nil {
		return 0, fmt.Errorf("intern request: %w", err)
	}
	p.cache.requests[req] = id
	return id, nil
}

func (p *Persister) internUseragent(ctx context.Context, tx *sql.Tx, ua models.Useragent) (int64, error) {
	if id, ok := p.cache.useragents[ua]; ok {
		return id, nil
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO useragents (value) VALUES (?)
		ON CONFLICT (value) DO NOTHING
	`, ua.Value)
	if err != nil {
		return 0, fmt.Errorf("intern useragent: %w", err)
	}

	id, err := lastOrLookup(ctx, tx, res,
		`SELECT id FROM useragents WHERE value = ?`, ua.Value)
	if err != nil {
		return 0, fmt.Errorf("intern useragent: %w", err)
	}
	p.cache.useragents[ua] = id
	return id, nil
}

// internUser interns the user's useragent first, then the user row
// itself, matching original_source's db.rs ordering (a user row always
// references an already-resolved useragent_id).
func (p *Persister) internUser(ctx context.Context, tx *sql.Tx, user models.User) (int64, error) {
	if id, ok := p.cache.users[user]; ok {
		return id, nil
	}

	uaID, err := p.internUseragent(ctx, tx, user.Useragent)
	if err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO users (hash, useragent_id) VALUES (?, ?)
		ON CONFLICT (hash, useragent_id) DO NOTHING
	`, user.Hash, uaID)
	if err != nil {
		return 0, fmt.Errorf("intern user: %w", err)
	}

	id, err := lastOrLookup(ctx, tx, res,
		`SELECT id FROM users WHERE hash = ? AND useragent_id = ?`, user.Hash, uaID)
	if err != nil {
		return 0, fmt.Errorf("intern user: %w", err)
	}
	p.cache.users[user] = id
	return id, nil
}

func (p *Persister) internReferrer(ctx context.Context, tx *sql.Tx, ref models.Referrer) (int64, error) {
	if id, ok := p.cache.referrers[ref]; ok {
		return id, nil
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO referrers (url) VALUES (?)
		ON CONFLICT (url) DO NOTHING
	`, ref.URL)
	if err != nil {
		return 0, fmt.Errorf("intern referrer: %w", err)
	}

	id, err := lastOrLookup(ctx, tx, res,
		`SELECT id FROM referrers WHERE url = ?`, ref.URL)
	if err != nil {
		return 0, fmt.Errorf("intern referrer: %w", err)
	}
	p.cache.referrers[ref] = id
	return id, nil
}

// lastOrLookup returns res's LastInsertId when the INSERT actually
// inserted a row (RowsAffected > 0), and otherwise falls back to
// query, since ON CONFLICT DO NOTHING leaves LastInsertId undefined
// when the row already existed.
func lastOrLookup(ctx context.Context, tx *sql.Tx, res sql.Result, query string, args ...any) (int64, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		return res.LastInsertId()
	}

	var id int64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("row vanished after conflicting insert: %w", err)
		}
		return 0, err
	}
	return id, nil
}
