package store

import (
	"context"
	"testing"

	"github.com/loggerson/loggerson/diagnostics"
	"github.com/loggerson/loggerson/models"
	"github.com/loggerson/loggerson/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestPool(t *testing.T) *Pool {
	t.Helper()
	path := testutil.TempFilePath(t, "loggerson-test-*.db")
	cfg := DefaultPoolConfig(path)
	pool, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return pool
}

func sampleEntry() models.LogEntry {
	return models.LogEntry{
		Timestamp: 971211336,
		Request:   models.Request{Method: "GET", URL: "/index.html", StatusCode: 200},
		User: models.User{
			Hash:      models.HashIdentity("127.0.0.1", "Mozilla/4.0"),
			Useragent: models.Useragent{Value: "Mozilla/4.0"},
		},
	}
}

func TestPersistBlockInsertsAndInterns(t *testing.T) {
	pool := openTestPool(t)
	cache := NewIdentityCache()
	p := NewPersister(pool, cache)
	diag := make(chan diagnostics.Message, 16)

	entry := sampleEntry()
	err := p.PersistBlock(context.Background(), []models.LogEntry{entry}, diag)
	require.NoError(t, err)

	dc, err := pool.DimensionCounts(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, dc.Requests)
	assert.EqualValues(t, 1, dc.Useragents)
	assert.EqualValues(t, 1, dc.Users)
	assert.EqualValues(t, 0, dc.Referrers)
	assert.EqualValues(t, 1, dc.Entrys)
}

func TestPersistBlockDuplicateEntryIsNotCounted(t *testing.T) {
	pool := openTestPool(t)
	cache := NewIdentityCache()
	p := NewPersister(pool, cache)
	diag := make(chan diagnostics.Message, 16)

	entry := sampleEntry()
	require.NoError(t, p.PersistBlock(context.Background(), []models.LogEntry{entry}, diag))
	require.NoError(t, p.PersistBlock(context.Background(), []models.LogEntry{entry}, diag))

	dc, err := pool.DimensionCounts(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, dc.Entrys)

	var sawDuplicate bool
	for {
		select {
		case msg := <-diag:
			if _, ok := msg.(diagnostics.RowDuplicate); ok {
				sawDuplicate = true
			}
		default:
			assert.True(t, sawDuplicate)
			return
		}
	}
}

func TestInternRequestIsIdempotent(t *testing.T) {
	pool := openTestPool(t)
	cache := NewIdentityCache()
	p := NewPersister(pool, cache)

	conn, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	defer conn.Close()
	tx, err := conn.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	defer tx.Rollback()

	req := models.Request{Method: "GET", URL: "/a", StatusCode: 200}
	id1, err := p.internRequest(context.Background(), tx, req)
	require.NoError(t, err)
	id2, err := p.internRequest(context.Background(), tx, req)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}
