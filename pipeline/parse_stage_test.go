package pipeline

import (
	"context"
	"testing"

	"github.com/loggerson/loggerson/diagnostics"
	"github.com/loggerson/loggerson/logparser"
	"github.com/loggerson/loggerson/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validLine = `127.0.0.1 - - [01/Oct/2000:13:55:36 -0700] "GET /index.html HTTP/1.0" 200 1043 "-" "Mozilla/4.0"`

// fakeSource hands out pre-built blocks, then reports exhaustion.
type fakeSource struct {
	blocks []LinesBlock
	idx    int
	closed bool
}

func (f *fakeSource) NextBlock() (LinesBlock, bool, error) {
	if f.idx >= len(f.blocks) {
		return LinesBlock{}, false, nil
	}
	b := f.blocks[f.idx]
	f.idx++
	return b, true, nil
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

func drainDiag(t *testing.T, diag chan diagnostics.Message) []diagnostics.Message {
	t.Helper()
	var out []diagnostics.Message
	for {
		select {
		case msg, ok := <-diag:
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestRunParsersProducesOneBlockPerInputBlock(t *testing.T) {
	src := &fakeSource{blocks: []LinesBlock{
		{Lines: []string{validLine, validLine}},
		{Lines: []string{validLine}},
	}}
	diag := make(chan diagnostics.Message, 64)

	out := RunParsers(context.Background(), src, diag, ChunkQueue)

	var blocks []ParsedBlock
	for b := range out {
		blocks = append(blocks, b)
	}
	require.Len(t, blocks, 2)
	// The first input block has two copies of the same line, so its
	// fingerprint-dedup collapses it to one entry.
	assert.Len(t, blocks[0].Entries, 1)
	assert.Len(t, blocks[1].Entries, 1)
	assert.True(t, src.closed)
}

func TestRunParsersTeesMalformedLines(t *testing.T) {
	src := &fakeSource{blocks: []LinesBlock{
		{Lines: []string{validLine, "not a log line"}},
	}}
	diag := make(chan diagnostics.Message, 64)

	out := RunParsers(context.Background(), src, diag, ChunkQueue)
	var blocks []ParsedBlock
	for b := range out {
		blocks = append(blocks, b)
	}
	require.Len(t, blocks, 1)
	assert.Len(t, blocks[0].Entries, 1)

	msgs := drainDiag(t, diag)
	var sawParseError, sawParsed, sawDone bool
	for _, m := range msgs {
		switch m.(type) {
		case diagnostics.LogParseError:
			sawParseError = true
		case diagnostics.RowParsed:
			sawParsed = true
		case diagnostics.AllParsingDone:
			sawDone = true
		}
	}
	assert.True(t, sawParseError)
	assert.True(t, sawParsed)
	assert.True(t, sawDone)
}

func TestDedupFingerprints(t *testing.T) {
	entry, err := logparser.ParseLine(validLine)
	require.NoError(t, err)

	out := dedupFingerprints([]models.LogEntry{entry, entry, entry})
	assert.Len(t, out, 1)
}
