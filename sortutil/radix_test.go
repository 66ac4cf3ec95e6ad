package sortutil

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/loggerson/loggerson/models"
	"github.com/stretchr/testify/require"
)

func entryAt(ts int64) models.LogEntry {
	return models.LogEntry{Timestamp: ts}
}

func TestSortLogEntriesByTimestampSmall(t *testing.T) {
	entries := []models.LogEntry{entryAt(5), entryAt(-3), entryAt(0), entryAt(2)}
	SortLogEntriesByTimestamp(entries)

	want := []int64{-3, 0, 2, 5}
	for i, e := range entries {
		require.Equal(t, want[i], e.Timestamp)
	}
}

func TestSortLogEntriesByTimestampLarge(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	n := 10000
	entries := make([]models.LogEntry, n)
	for i := range entries {
		entries[i] = entryAt(r.Int63n(2_000_000_000) - 1_000_000_000)
	}

	SortLogEntriesByTimestamp(entries)

	require.True(t, sort.SliceIsSorted(entries, func(i, j int) bool {
		return entries[i].Timestamp < entries[j].Timestamp
	}))
}

func TestSortLogEntriesByTimestampStable(t *testing.T) {
	// Entries with equal timestamps must keep their relative order so a
	// caller can rely on secondary ordering (e.g. insertion order) being
	// preserved, per spec.md §4.2's "stable on timestamp".
	entries := []models.LogEntry{
		{Timestamp: 1, Request: models.Request{URL: "/a"}},
		{Timestamp: 1, Request: models.Request{URL: "/b"}},
		{Timestamp: 1, Request: models.Request{URL: "/c"}},
	}
	SortLogEntriesByTimestamp(entries)

	require.Equal(t, "/a", entries[0].Request.URL)
	require.Equal(t, "/b", entries[1].Request.URL)
	require.Equal(t, "/c", entries[2].Request.URL)
}

func TestSortLogEntriesByTimestampEmptyAndSingle(t *testing.T) {
	var empty []models.LogEntry
	SortLogEntriesByTimestamp(empty)

	single := []models.LogEntry{entryAt(42)}
	SortLogEntriesByTimestamp(single)
	require.Equal(t, int64(42), single[0].Timestamp)
}
