package pipeline

import (
	"context"
	"io"
	"testing"

	"github.com/loggerson/loggerson/diagnostics"
	"github.com/loggerson/loggerson/store"
	"github.com/loggerson/loggerson/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConductorRunEndToEnd(t *testing.T) {
	src := &fakeSource{blocks: []LinesBlock{
		{Lines: []string{validLine, "garbage line", validLine}},
	}}

	path := testutil.TempFilePath(t, "conductor-test-*.db")
	pool, err := store.Open(store.DefaultPoolConfig(path))
	require.NoError(t, err)
	defer pool.Close()

	persister := store.NewPersister(pool, store.NewIdentityCache())
	agg := diagnostics.NewAggregator(io.Discard, false)

	c := NewConductor(src, persister, agg, ChunkQueue)
	counters := c.Run(context.Background())

	assert.EqualValues(t, 2, counters.Parsed)
	assert.EqualValues(t, 1, counters.ParseErrors)
	assert.EqualValues(t, 1, counters.Inserted)

	dc, err := pool.DimensionCounts(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, dc.Entrys)
}
