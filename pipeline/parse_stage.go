package pipeline

import (
	"context"
	"runtime"
	"sync"

	"github.com/loggerson/loggerson/diagnostics"
	"github.com/loggerson/loggerson/logparser"
	"github.com/loggerson/loggerson/models"
	"github.com/loggerson/loggerson/sortutil"
)

// ParsedBlock is one parsed, deduplicated, time-sorted block ready for
// the persister stage.
type ParsedBlock struct {
	Entries []models.LogEntry
}

// RunParsers drains source one block at a time, fans each block's
// lines out across a worker pool sized by runtime.NumCPU (mirroring
// ChristianF88-cidrx/logparser.ParallelParser), sorts and
// best-effort-dedups each block, and returns a channel of ParsedBlocks
// with capacity chunkQueue (config.IngestConfig.ChunkQueue in
// production; pass the ChunkQueue constant for the spec.md default —
// spec.md §4.5's bounded handoff). The returned channel is closed once
// source is exhausted, after an AllParsingDone diagnostic has been
// sent.
func RunParsers(ctx context.Context, source LineSource, diag chan<- diagnostics.Message, chunkQueue int) <-chan ParsedBlock {
	out := make(chan ParsedBlock, chunkQueue)

	go func() {
		defer close(out)
		defer source.Close()

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			block, ok, err := source.NextBlock()
			if err != nil {
				diag <- diagnostics.LogFileIOError{Err: err}
				return
			}
			if !ok {
				diag <- diagnostics.AllParsingDone{}
				return
			}

			entries := parseBlock(block, diag)
			sortutil.SortLogEntriesByTimestamp(entries)
			entries = dedupFingerprints(entries)

			select {
			case out <- ParsedBlock{Entries: entries}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// parseBlock parses block.Lines across a fixed worker pool, in the
// batched fan-out/fan-in idiom of parseFileWithStreamingIO: each
// worker claims whole line-batches off a work channel, and a single
// collector goroutine appends result batches as they arrive. Order
// across workers is not preserved here — the subsequent radix sort by
// timestamp is what establishes the block's final order.
func parseBlock(block LinesBlock, diag chan<- diagnostics.Message) []models.LogEntry {
	workers := runtime.NumCPU()
	if workers > len(block.Lines) {
		workers = len(block.Lines)
	}
	if workers < 1 {
		workers = 1
	}

	const batchSize = 256
	linesChan := make(chan []string, workers*2)
	resultsChan := make(chan []models.LogEntry, workers*2)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range linesChan {
				res := make([]models.LogEntry, 0, len(batch))
				for _, line := range batch {
					entry, err := logparser.ParseLine(line)
					if err != nil {
						diag <- diagnostics.LogParseError{Line: line, Err: err}
						continue
					}
					diag <- diagnostics.RowParsed{}
					res = append(res, entry)
				}
				if len(res) > 0 {
					resultsChan <- res
				}
			}
		}()
	}

	entries := make([]models.LogEntry, 0, len(block.Lines))
	var collectorWG sync.WaitGroup
	collectorWG.Add(1)
	go func() {
		defer collectorWG.Done()
		for res := range resultsChan {
			entries = append(entries, res...)
		}
	}()

	for start := 0; start < len(block.Lines); start += batchSize {
		end := start + batchSize
		if end > len(block.Lines) {
			end = len(block.Lines)
		}
		linesChan <- block.Lines[start:end]
	}
	close(linesChan)
	wg.Wait()
	close(resultsChan)
	collectorWG.Wait()

	return entries
}

// dedupFingerprints drops entries whose (timestamp, user, request)
// fingerprint has already been seen earlier in the block, per spec.md
// §4.2's best-effort within-block dedup. It is not a substitute for
// the database's UNIQUE constraint.
func dedupFingerprints(entries []models.LogEntry) []models.LogEntry {
	seen := make(map[models.Fingerprint]struct{}, len(entries))
	out := entries[:0]
	for _, e := range entries {
		fp := e.Fingerprint()
		if _, ok := seen[fp]; ok {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, e)
	}
	return out
}
