// Package pipeline wires the three ingestion stages described in
// spec.md §4.2/§4.5: a line source chunked into fixed-size blocks, a
// parallel parse-worker pool per block, and a single persister stage
// fed through a bounded channel. Grounded on
// ChristianF88-cidrx/logparser's parseFileWithStreamingIO worker-pool
// idiom (batched channels, sync.WaitGroup fan-out/fan-in) and
// ChristianF88-cidrx/ingestor's scanner-based line reading.
package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pierrec/lz4/v4"
)

// ChunkSize is spec.md §4.2's block size: the number of lines grouped
// into one LinesBlock before it is handed to the parse-worker pool.
const ChunkSize = 100_000

// ChunkQueue is spec.md §4.5's bounded channel capacity between the
// parser stage and the persister stage.
const ChunkQueue = 3

// LinesBlock is one chunk of raw input lines, in source order.
type LinesBlock struct {
	Lines []string
}

// LineSource yields successive LinesBlocks until the input is
// exhausted. The final block may be shorter than ChunkSize; NextBlock
// returns ok=false once there is nothing left at all.
type LineSource interface {
	NextBlock() (block LinesBlock, ok bool, err error)
	Close() error
}

// fileLineSource reads a plain-text (optionally .lz4-compressed)
// access log file, chunked into chunkSize-line blocks.
type fileLineSource struct {
	f         *os.File
	scanner   *bufio.Scanner
	chunkSize int
}

// OpenFileSource opens path as a LineSource, chunking it into
// chunkSize-line blocks (config.IngestConfig.ChunkSize in production;
// pass the ChunkSize constant for the spec.md default). Files ending
// in ".lz4" are transparently decompressed (SPEC_FULL.md §5's
// compressed-input enrichment) via pierrec/lz4; all other paths are
// read as plain text.
func OpenFileSource(path string, chunkSize int) (LineSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input %q: %w", path, err)
	}

	var r io.Reader = f
	if strings.HasSuffix(path, ".lz4") {
		r = lz4.NewReader(f)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 256*1024), 4*1024*1024)

	return &fileLineSource{f: f, scanner: scanner, chunkSize: chunkSize}, nil
}

func (s *fileLineSource) NextBlock() (LinesBlock, bool, error) {
	lines := make([]string, 0, s.chunkSize)
	for s.scanner.Scan() {
		line := s.scanner.Text()
		if line != "" {
			lines = append(lines, line)
		}
		if len(lines) >= s.chunkSize {
			return LinesBlock{Lines: lines}, true, nil
		}
	}
	if err := s.scanner.Err(); err != nil {
		return LinesBlock{}, false, fmt.Errorf("read input: %w", err)
	}
	if len(lines) == 0 {
		return LinesBlock{}, false, nil
	}
	return LinesBlock{Lines: lines}, true, nil
}

func (s *fileLineSource) Close() error {
	return s.f.Close()
}
