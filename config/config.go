// Package config loads the ingestion pipeline's tunables from a TOML
// file, the way ChristianF88-cidrx/config loads its CIDR-analysis
// config — same library (BurntSushi/toml), same "defaults then
// override from file" shape, generalized to a single flat [ingest]
// section since this pipeline has no per-trie nested configuration to
// decode.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// IngestConfig holds every tunable named in spec.md §5/§6.
type IngestConfig struct {
	// LogFile is the static input path. Ignored when Listen is set.
	// Paths ending in ".lz4" are transparently decompressed.
	LogFile string `toml:"logFile"`

	// Listen, if non-empty, switches the pipeline into streaming mode:
	// a Lumberjack/Beats v2 TCP server is started on this address
	// instead of reading LogFile.
	Listen string `toml:"listen"`

	// DBPath is the SQLite database file the normalized rows are
	// written to.
	DBPath string `toml:"dbPath"`

	// MetricsPath, if set, receives a Prometheus text-exposition dump
	// once the run completes.
	MetricsPath string `toml:"metricsPath"`

	// ChunkSize is the number of lines grouped into one block before
	// it is handed to the parse-worker pool (pipeline.OpenFileSource,
	// lumbersource.Listen).
	ChunkSize int `toml:"chunkSize"` // default 100_000

	// ChunkQueue is the bounded channel capacity between the parser
	// stage and the persister stage (pipeline.NewConductor).
	ChunkQueue int `toml:"chunkQueue"` // default 3

	FrameMS     int `toml:"frameMs"`     // default 30
	PoolMaxConn int `toml:"poolMaxConn"` // default 15
	PoolWaitMS  int `toml:"poolWaitMs"`  // default 12_000

	// ListenReadTimeoutMS bounds how long the Lumberjack server waits
	// on a client frame before closing that connection.
	ListenReadTimeoutMS int `toml:"listenReadTimeoutMs"` // default 30_000
}

// Default returns spec.md's documented defaults.
func Default() IngestConfig {
	return IngestConfig{
		ChunkSize:           100_000,
		ChunkQueue:          3,
		FrameMS:             30,
		PoolMaxConn:         15,
		PoolWaitMS:          12_000,
		ListenReadTimeoutMS: 30_000,
	}
}

// Load reads path and overlays it on Default(). A missing optional
// field keeps its default value.
func Load(path string) (IngestConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	var onDisk struct {
		Ingest IngestConfig `toml:"ingest"`
	}
	onDisk.Ingest = cfg

	if _, err := toml.Decode(string(data), &onDisk); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}

	return onDisk.Ingest, nil
}

// Validate checks that the config describes a runnable pipeline:
// exactly one of LogFile or Listen must be set, and DBPath is always
// required.
func (c IngestConfig) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("dbPath is required")
	}
	if c.LogFile == "" && c.Listen == "" {
		return fmt.Errorf("either logFile or listen must be set")
	}
	if c.LogFile != "" && c.Listen != "" {
		return fmt.Errorf("logFile and listen are mutually exclusive")
	}
	return nil
}

// FrameInterval is FrameMS as a time.Duration.
func (c IngestConfig) FrameInterval() time.Duration {
	return time.Duration(c.FrameMS) * time.Millisecond
}

// PoolWait is PoolWaitMS as a time.Duration.
func (c IngestConfig) PoolWait() time.Duration {
	return time.Duration(c.PoolWaitMS) * time.Millisecond
}

// ListenReadTimeout is ListenReadTimeoutMS as a time.Duration.
func (c IngestConfig) ListenReadTimeout() time.Duration {
	return time.Duration(c.ListenReadTimeoutMS) * time.Millisecond
}
