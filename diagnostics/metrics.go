package diagnostics

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Metrics mirrors the Counters as prometheus counters so a run can
// dump a point-in-time metrics snapshot (SPEC_FULL.md §5). No HTTP
// listener is started — that would be a query-time service, which
// spec.md's Non-goals exclude; this is a one-shot text-exposition
// dump taken after the run completes.
type Metrics struct {
	registry      *prometheus.Registry
	rowsParsed    prometheus.Counter
	rowsInserted  prometheus.Counter
	rowsDuplicate prometheus.Counter
	parseErrors   prometheus.Counter
	ioErrors      prometheus.Counter
	insertErrors  prometheus.Counter
	blocksFailed  prometheus.Counter
}

// NewMetrics registers a fresh set of counters on a private registry
// (never the global default registry, so multiple runs in the same
// process — as in tests — don't collide).
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rowsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loggerson_rows_parsed_total",
			Help: "Access-log lines successfully parsed.",
		}),
		rowsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loggerson_rows_inserted_total",
			Help: "Entry rows attempted against entrys (includes ON CONFLICT DO NOTHING absorptions).",
		}),
		rowsDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loggerson_rows_duplicate_total",
			Help: "Entry rows silently absorbed by ON CONFLICT DO NOTHING.",
		}),
		parseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loggerson_parse_errors_total",
			Help: "Lines that failed to match the combined log grammar.",
		}),
		ioErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loggerson_io_errors_total",
			Help: "Non-fatal I/O errors reading input lines.",
		}),
		insertErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loggerson_insert_errors_total",
			Help: "Per-row database errors during batch insert.",
		}),
		blocksFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loggerson_blocks_failed_total",
			Help: "Blocks whose transaction failed to commit.",
		}),
	}
	m.registry.MustRegister(
		m.rowsParsed, m.rowsInserted, m.rowsDuplicate,
		m.parseErrors, m.ioErrors, m.insertErrors, m.blocksFailed,
	)
	return m
}

// DumpTo writes the registry's current values in Prometheus text
// exposition format to path.
func (m *Metrics) DumpTo(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	families, err := m.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(f, expfmt.FmtText)
	for _, fam := range families {
		if err := enc.Encode(fam); err != nil {
			return err
		}
	}
	return nil
}
