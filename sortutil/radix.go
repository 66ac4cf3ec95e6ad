// Package sortutil provides the stable timestamp sort used to order a
// parsed block before it reaches the persister. Adapted from the
// cidrx teacher's iputils.RadixSortUint32: an LSD radix (counting)
// sort, generalized from 4 passes over uint32 to 8 passes over the
// sign-flipped bits of an int64 so negative epoch values still sort
// correctly. Counting sort is stable by construction at every pass,
// which satisfies spec.md §4.2's "stable on timestamp" requirement
// without sort.SliceStable's O(n log n) behavior on 100k-row blocks.
package sortutil

import "github.com/loggerson/loggerson/models"

// SortLogEntriesByTimestamp stably sorts entries in ascending
// timestamp order, in place.
func SortLogEntriesByTimestamp(entries []models.LogEntry) {
	n := len(entries)
	if n <= 1 {
		return
	}
	if n <= 64 {
		insertionSortEntries(entries)
		return
	}

	keys := make([]uint64, n)
	for i, e := range entries {
		keys[i] = flipSign(e.Timestamp)
	}

	scratchKeys := make([]uint64, n)
	scratchEntries := make([]models.LogEntry, n)

	src, dst := entries, scratchEntries
	srcKeys, dstKeys := keys, scratchKeys
	for pass := 0; pass < 8; pass++ {
		shift := uint(pass * 8)
		radixPass(src, srcKeys, dst, dstKeys, shift)
		src, dst = dst, src
		srcKeys, dstKeys = dstKeys, srcKeys
	}

	// After 8 passes (even count) src is back to pointing at the
	// original "entries" backing array's contents, already sorted in
	// place; scratchEntries holds the same data as dst on the final
	// swap. Copy defensively in case the caller relied on the original
	// slice header identity.
	if &src[0] != &entries[0] {
		copy(entries, src)
	}
}

// flipSign maps int64 to a uint64 that preserves ordering: flipping the
// sign bit makes the most negative int64 map to 0 and the most positive
// to the maximum uint64, so an unsigned byte-wise radix sort orders
// signed values correctly.
func flipSign(v int64) uint64 {
	return uint64(v) ^ (1 << 63)
}

// radixPass performs one counting-sort pass over byte `shift/8` of the
// keys, permuting entries the same way as their keys.
func radixPass(srcEntries []models.LogEntry, srcKeys []uint64, dstEntries []models.LogEntry, dstKeys []uint64, shift uint) {
	var counts [256]int
	for _, k := range srcKeys {
		b := (k >> shift) & 0xFF
		counts[b]++
	}

	total := 0
	for i := range counts {
		c := counts[i]
		counts[i] = total
		total += c
	}

	for i, k := range srcKeys {
		b := (k >> shift) & 0xFF
		pos := counts[b]
		dstKeys[pos] = k
		dstEntries[pos] = srcEntries[i]
		counts[b]++
	}
}

func insertionSortEntries(entries []models.LogEntry) {
	for i := 1; i < len(entries); i++ {
		key := entries[i]
		j := i - 1
		for j >= 0 && entries[j].Timestamp > key.Timestamp {
			entries[j+1] = entries[j]
			j--
		}
		entries[j+1] = key
	}
}
