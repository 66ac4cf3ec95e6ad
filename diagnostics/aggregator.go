package diagnostics

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// TerminalMsPerFrame is spec.md §6's TERMINAL_MS_PER_FRAME default.
const TerminalMsPerFrame = 30 * time.Millisecond

// Counters holds the integer state described in spec.md §4.6.
type Counters struct {
	Parsed       uint64
	ParseErrors  uint64
	IOErrors     uint64
	Inserted     uint64
	InsertErrors uint64
	Duplicates   uint64
	BlocksFailed uint64
	StartedAt    time.Time
	EndedAt      time.Time
}

// Aggregator consumes diagnostic messages and renders a throttled,
// in-place progress summary per spec.md §4.6.
type Aggregator struct {
	counters Counters
	bar      *progressbar.ProgressBar
	metrics  *Metrics
	out      io.Writer
	lastLine []LogParseError // first errCap parse errors, in arrival order; renderFinal does not print them
	errCap   int
	frame    time.Duration
}

// NewAggregator builds an aggregator. out receives the rendered
// progress/final lines (os.Stdout in production, per spec.md §6). When
// enableBar is false (stdout is not a TTY), the spinner is suppressed
// but counters are still tracked and metrics still recorded, matching
// kraklabs-cie's TTY-detection pattern.
func NewAggregator(out io.Writer, enableBar bool) *Aggregator {
	a := &Aggregator{
		out:     out,
		metrics: NewMetrics(),
		errCap:  20,
		frame:   TerminalMsPerFrame,
	}
	if enableBar {
		a.bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("ingesting"),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionThrottle(TerminalMsPerFrame),
		)
	}
	return a
}

// SetFrameInterval overrides the render throttle (TerminalMsPerFrame
// by default) — wired from config.IngestConfig.FrameInterval so an
// operator can trade progress-line freshness for overhead.
func (a *Aggregator) SetFrameInterval(d time.Duration) {
	a.frame = d
}

// DetectTTY mirrors kraklabs-cie's isatty-based progress gating.
func DetectTTY(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Run drains diag until it is closed, updating counters and rendering
// at most once per frame interval (TerminalMsPerFrame unless
// SetFrameInterval changed it). Returns the final counters.
func (a *Aggregator) Run(diag <-chan Message) Counters {
	a.counters.StartedAt = time.Now()

	ticker := time.NewTicker(a.frame)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-diag:
			if !ok {
				a.counters.EndedAt = time.Now()
				a.renderFinal()
				return a.counters
			}
			a.apply(msg)
		case <-ticker.C:
			a.renderProgress()
		}
	}
}

func (a *Aggregator) apply(msg Message) {
	switch m := msg.(type) {
	case RowParsed:
		a.counters.Parsed++
		a.metrics.rowsParsed.Inc()
	case RowInserted:
		a.counters.Inserted++
		a.metrics.rowsInserted.Inc()
	case RowDuplicate:
		a.counters.Duplicates++
		a.metrics.rowsDuplicate.Inc()
	case LogParseError:
		a.counters.ParseErrors++
		a.metrics.parseErrors.Inc()
		if len(a.lastLine) < a.errCap {
			a.lastLine = append(a.lastLine, m)
		}
	case LogFileIOError:
		a.counters.IOErrors++
		a.metrics.ioErrors.Inc()
	case SqliteError:
		a.counters.InsertErrors++
		a.metrics.insertErrors.Inc()
	case DbError:
		a.counters.BlocksFailed++
		a.metrics.blocksFailed.Inc()
	case AllParsingDone, AllInsertDone:
		// Phase markers only; no counter to update.
	}
}

func (a *Aggregator) renderProgress() {
	desc := fmt.Sprintf(
		"parsed=%s errs=%s inserted=%s dup=%s insert_errs=%s",
		humanize.Comma(int64(a.counters.Parsed)),
		humanize.Comma(int64(a.counters.ParseErrors)),
		humanize.Comma(int64(a.counters.Inserted)),
		humanize.Comma(int64(a.counters.Duplicates)),
		humanize.Comma(int64(a.counters.InsertErrors)),
	)
	if a.bar != nil {
		a.bar.Describe(desc)
		_ = a.bar.Add(0)
		return
	}
	fmt.Fprintln(a.out, desc)
}

func (a *Aggregator) renderFinal() {
	if a.bar != nil {
		_ = a.bar.Finish()
		fmt.Fprintln(a.out)
	}

	elapsed := a.counters.EndedAt.Sub(a.counters.StartedAt)
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(a.out, "%s parsed=%s (errs=%s, io_errs=%s) inserted=%s (dup=%s, errs=%s) failed_blocks=%s elapsed=%s\n",
		bold("done"),
		humanize.Comma(int64(a.counters.Parsed)),
		humanize.Comma(int64(a.counters.ParseErrors)),
		humanize.Comma(int64(a.counters.IOErrors)),
		humanize.Comma(int64(a.counters.Inserted)),
		humanize.Comma(int64(a.counters.Duplicates)),
		humanize.Comma(int64(a.counters.InsertErrors)),
		humanize.Comma(int64(a.counters.BlocksFailed)),
		elapsed.Round(time.Millisecond),
	)
}

// Metrics returns the aggregator's prometheus registry for callers
// that want to persist a point-in-time metrics dump (SPEC_FULL.md §5).
func (a *Aggregator) Metrics() *Metrics { return a.metrics }
