package pipeline

import (
	"context"
	"sync"

	"github.com/loggerson/loggerson/diagnostics"
	"github.com/loggerson/loggerson/store"
)

// Conductor wires the parse stage, the persister stage, and the
// diagnostic aggregator together per spec.md §4.5's termination
// protocol: the parser closes its output channel once the source is
// exhausted; the persister drains that channel to completion, emits
// AllInsertDone, and only then does the conductor close the shared
// diagnostic channel — which is what lets the aggregator's Run return.
type Conductor struct {
	source     LineSource
	persister  *store.Persister
	agg        *diagnostics.Aggregator
	chunkQueue int
}

// NewConductor builds a Conductor over the given line source, batch
// persister, and diagnostic aggregator. chunkQueue sets the bounded
// parsed-block channel's capacity (config.IngestConfig.ChunkQueue in
// production; pass the ChunkQueue constant for the spec.md default).
func NewConductor(source LineSource, persister *store.Persister, agg *diagnostics.Aggregator, chunkQueue int) *Conductor {
	return &Conductor{source: source, persister: persister, agg: agg, chunkQueue: chunkQueue}
}

// Run drives the pipeline to completion and returns the final
// counters reported by the aggregator.
func (c *Conductor) Run(ctx context.Context) diagnostics.Counters {
	diagIn, diagOut := diagnostics.NewUnboundedChannel()

	aggDone := make(chan diagnostics.Counters, 1)
	go func() {
		aggDone <- c.agg.Run(diagOut)
	}()

	parsedBlocks := RunParsers(ctx, c.source, diagIn, c.chunkQueue)

	var persistWG sync.WaitGroup
	persistWG.Add(1)
	go func() {
		defer persistWG.Done()
		for block := range parsedBlocks {
			// PersistBlock reports its own per-row and per-block
			// failures via diagIn; a returned error here only means the
			// whole block's transaction never committed, which is
			// already surfaced as a DbError, so there is nothing more
			// to do but move on to the next block.
			_ = c.persister.PersistBlock(ctx, block.Entries, diagIn)
		}
		diagIn <- diagnostics.AllInsertDone{}
	}()

	persistWG.Wait()
	close(diagIn)

	return <-aggDone
}
