package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/loggerson/loggerson/diagnostics"
	"github.com/loggerson/loggerson/iterutil"
	"github.com/loggerson/loggerson/models"
)

// IdentityCache holds the four write-through maps from a dimension's
// content value to its assigned surrogate key, per spec.md §4.3. It is
// owned by exactly one goroutine (the persister) and is never shared,
// so it carries no internal synchronization.
type IdentityCache struct {
	requests   map[models.Request]int64
	useragents map[models.Useragent]int64
	users      map[models.User]int64
	referrers  map[models.Referrer]int64
}

// NewIdentityCache returns an empty cache, as created once per process
// per spec.md §3.
func NewIdentityCache() *IdentityCache {
	return &IdentityCache{
		requests:   make(map[models.Request]int64),
		useragents: make(map[models.Useragent]int64),
		users:      make(map[models.User]int64),
		referrers:  make(map[models.Referrer]int64),
	}
}

// Populate seeds the cache from the database's current dimension rows,
// so a restart doesn't redundantly re-insert known dimensions. Row-level
// decode errors are tee'd to diag and otherwise ignored, per spec.md
// §4.3. Called once, on persister startup.
func (c *IdentityCache) Populate(ctx context.Context, conn *sql.Conn, diag chan<- diagnostics.Message) error {
	if err := c.populateRequests(ctx, conn, diag); err != nil {
		return err
	}
	if err := c.populateUseragents(ctx, conn, diag); err != nil {
		return err
	}
	if err := c.populateUsers(ctx, conn, diag); err != nil {
		return err
	}
	if err := c.populateReferrers(ctx, conn, diag); err != nil {
		return err
	}
	return nil
}

func (c *IdentityCache) populateRequests(ctx context.Context, conn *sql.Conn, diag chan<- diagnostics.Message) error {
	rows, err := conn.QueryContext(ctx, `SELECT id, method, url, status_code FROM requests`)
	if err != nil {
		return fmt.Errorf("populate requests cache: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var req models.Request
		if err := rows.Scan(&id, &req.Method, &req.URL, &req.StatusCode); err != nil {
			iterutil.TrySend[diagnostics.Message](diag, diagnostics.SqliteError{Err: err})
			continue
		}
		c.requests[req] = id
	}
	return rows.Err()
}

func (c *IdentityCache) populateUseragents(ctx context.Context, conn *sql.Conn, diag chan<- diagnostics.Message) error {
	rows, err := conn.QueryContext(ctx, `SELECT id, value FROM useragents`)
	if err != nil {
		return fmt.Errorf("populate useragents cache: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var ua models.Useragent
		if err := rows.Scan(&id, &ua.Value); err != nil {
			iterutil.TrySend[diagnostics.Message](diag, diagnostics.SqliteError{Err: err})
			continue
		}
		c.useragents[ua] = id
	}
	return rows.Err()
}

func (c *IdentityCache) populateUsers(ctx context.Context, conn *sql.Conn, diag chan<- diagnostics.Message) error {
	rows, err := conn.QueryContext(ctx, `
		SELECT u.id, u.hash, ua.value
		FROM users u
		JOIN useragents ua ON ua.id = u.useragent_id
	`)
	if err != nil {
		return fmt.Errorf("populate users cache: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var user models.User
		if err := rows.Scan(&id, &user.Hash, &user.Useragent.Value); err != nil {
			iterutil.TrySend[diagnostics.Message](diag, diagnostics.SqliteError{Err: err})
			continue
		}
		c.users[user] = id
	}
	return rows.Err()
}

func (c *IdentityCache) populateReferrers(ctx context.Context, conn *sql.Conn, diag chan<- diagnostics.Message) error {
	rows, err := conn.QueryContext(ctx, `SELECT id, url FROM referrers`)
	if err != nil {
		return fmt.Errorf("populate referrers cache: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var ref models.Referrer
		if err := rows.Scan(&id, &ref.URL); err != nil {
			iterutil.TrySend[diagnostics.Message](diag, diagnostics.SqliteError{Err: err})
			continue
		}
		c.referrers[ref] = id
	}
	return rows.Err()
}
