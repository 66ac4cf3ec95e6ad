// Package lumbersource is an alternate pipeline.LineSource that
// accepts Lumberjack/Beats protocol-v2 batches over TCP instead of
// reading a static file, for the streaming ingestion mode named in
// SPEC_FULL.md §5. Adapted from
// ChristianF88-cidrx/ingestor.TCPIngestor, which wraps the same
// elastic/go-lumber v2 server; the event-to-request decode there is
// replaced here with a pass-through of the raw "message" field, since
// logparser.ParseLine — not this package — owns the access-log
// grammar.
package lumbersource

import (
	"fmt"
	"net"
	"time"

	lj "github.com/elastic/go-lumber/lj"
	srv2 "github.com/elastic/go-lumber/server/v2"

	"github.com/loggerson/loggerson/pipeline"
)

// Source is a pipeline.LineSource backed by a Lumberjack v2 TCP
// server. Each accepted batch's events are unpacked into raw lines
// and accumulated into chunkSize-sized blocks, the same chunking
// contract OpenFileSource offers.
type Source struct {
	listener  net.Listener
	server    *srv2.Server
	events    chan *lj.Batch
	pending   []string
	chunkSize int
}

// Listen starts a Lumberjack v2 server on addr. readTimeout bounds how
// long the server waits for a client frame before closing that
// connection, mirroring TCPIngestor's constructor. chunkSize sets the
// line count accumulated into one block before NextBlock returns
// (config.IngestConfig.ChunkSize in production; pass the ChunkSize
// constant for the spec.md default).
func Listen(addr string, readTimeout time.Duration, chunkSize int) (*Source, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv, err := srv2.NewWithListener(ln, srv2.Timeout(readTimeout))
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("start lumberjack server: %w", err)
	}

	s := &Source{
		listener:  ln,
		server:    srv,
		events:    make(chan *lj.Batch, 1000),
		chunkSize: chunkSize,
	}

	go func() {
		for batch := range srv.ReceiveChan() {
			s.events <- batch
			batch.ACK()
		}
		close(s.events)
	}()

	return s, nil
}

// NextBlock blocks until either chunkSize lines have accumulated or
// the server has shut down. Lines still pending at shutdown are
// returned as a final, shorter block; ok is false once nothing is
// left.
func (s *Source) NextBlock() (pipeline.LinesBlock, bool, error) {
	for batch := range s.events {
		for _, evt := range batch.Events {
			line, ok := extractMessage(evt)
			if !ok {
				continue
			}
			s.pending = append(s.pending, line)
		}
		if len(s.pending) >= s.chunkSize {
			block := pipeline.LinesBlock{Lines: s.pending}
			s.pending = nil
			return block, true, nil
		}
	}

	if len(s.pending) == 0 {
		return pipeline.LinesBlock{}, false, nil
	}
	block := pipeline.LinesBlock{Lines: s.pending}
	s.pending = nil
	return block, true, nil
}

// Close shuts down the underlying server and listener.
func (s *Source) Close() error {
	s.server.Close()
	return s.listener.Close()
}

func extractMessage(evt any) (string, bool) {
	m, ok := evt.(map[string]interface{})
	if !ok {
		return "", false
	}
	msg, ok := m["message"].(string)
	return msg, ok
}
