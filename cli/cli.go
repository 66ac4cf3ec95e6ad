// Package cli is the urfave/cli/v2 entrypoint, in the same shape as
// ChristianF88-cidrx/cli: shared *cli.Flag vars, a command Action,
// and a package-level App the binary's main() runs. Generalized from
// the teacher's live/static CIDR-analysis commands down to a single
// ingest command with two sources: a static file or a streaming
// Lumberjack listener.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	cli "github.com/urfave/cli/v2"

	"github.com/loggerson/loggerson/config"
	"github.com/loggerson/loggerson/diagnostics"
	"github.com/loggerson/loggerson/lumbersource"
	"github.com/loggerson/loggerson/pipeline"
	"github.com/loggerson/loggerson/store"
)

const version = "0.1.0"

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "Path to a TOML config file (overrides defaults; flags override the file)",
	}
	logFileFlag = &cli.StringFlag{
		Name:  "log-file",
		Usage: "Path to the static access log to ingest (.lz4 is transparently decompressed)",
	}
	listenFlag = &cli.StringFlag{
		Name:  "listen",
		Usage: "Address to run a Lumberjack/Beats v2 TCP listener on, instead of reading a static file",
	}
	dbFlag = &cli.StringFlag{
		Name:  "db",
		Usage: "Path to the SQLite database file",
	}
	metricsOutFlag = &cli.StringFlag{
		Name:  "metrics-out",
		Usage: "Path to write a Prometheus text-exposition dump to after the run completes",
	}
	quietFlag = &cli.BoolFlag{
		Name:  "quiet",
		Usage: "Suppress the progress spinner even on a TTY",
	}
)

// App is the binary's command tree.
var App = &cli.App{
	Name:    "loggerson",
	Usage:   "Ingest NCSA/Apache combined access logs into a normalized SQLite store",
	Version: version,
	Commands: []*cli.Command{
		{
			Name:  "ingest",
			Usage: "Run the ingestion pipeline once, to completion",
			Flags: []cli.Flag{configFlag, logFileFlag, listenFlag, dbFlag, metricsOutFlag, quietFlag},
			Action: func(c *cli.Context) error {
				return runIngest(c)
			},
		},
	},
}

func runIngest(c *cli.Context) error {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if v := c.String("log-file"); v != "" {
		cfg.LogFile = v
	}
	if v := c.String("listen"); v != "" {
		cfg.Listen = v
	}
	if v := c.String("db"); v != "" {
		cfg.DBPath = v
	}
	if v := c.String("metrics-out"); v != "" {
		cfg.MetricsPath = v
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var source pipeline.LineSource
	if cfg.Listen != "" {
		src, err := lumbersource.Listen(cfg.Listen, cfg.ListenReadTimeout(), cfg.ChunkSize)
		if err != nil {
			return fmt.Errorf("start lumberjack listener: %w", err)
		}
		source = src
	} else {
		src, err := pipeline.OpenFileSource(cfg.LogFile, cfg.ChunkSize)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		source = src
	}

	pool, err := store.Open(store.PoolConfig{
		Path:        cfg.DBPath,
		MaxOpenConn: cfg.PoolMaxConn,
		AcquireWait: cfg.PoolWait(),
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer pool.Close()

	cache := store.NewIdentityCache()
	if conn, err := pool.Acquire(context.Background()); err == nil {
		popDiag := make(chan diagnostics.Message, 64)
		go func() {
			for range popDiag {
			}
		}()
		err := cache.Populate(context.Background(), conn, popDiag)
		conn.Close()
		close(popDiag)
		if err != nil {
			return fmt.Errorf("populate identity cache: %w", err)
		}
	} else {
		return fmt.Errorf("acquire connection to populate cache: %w", err)
	}

	persister := store.NewPersister(pool, cache)

	out := io.Writer(os.Stdout)
	enableBar := !c.Bool("quiet") && diagnostics.DetectTTY(os.Stdout.Fd())
	agg := diagnostics.NewAggregator(out, enableBar)
	agg.SetFrameInterval(cfg.FrameInterval())

	conductor := pipeline.NewConductor(source, persister, agg, cfg.ChunkQueue)
	_ = conductor.Run(context.Background())

	if cfg.MetricsPath != "" {
		if err := agg.Metrics().DumpTo(cfg.MetricsPath); err != nil {
			return fmt.Errorf("dump metrics: %w", err)
		}
	}

	dc, err := pool.DimensionCounts(context.Background())
	if err != nil {
		return fmt.Errorf("read final row counts: %w", err)
	}
	diagnostics.WriteSummaryTable(out, dc)

	return nil
}
