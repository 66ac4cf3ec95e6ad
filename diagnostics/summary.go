package diagnostics

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// DimensionCounts is the row count per dimension/fact table, read back
// from the database after a run (SPEC_FULL.md §5's "final summary
// table" enrichment — beyond the single progress line spec.md §4.6
// requires).
type DimensionCounts struct {
	Requests   int64
	Useragents int64
	Users      int64
	Referrers  int64
	Entrys     int64
}

// WriteSummaryTable renders dc as a go-pretty table to out.
func WriteSummaryTable(out io.Writer, dc DimensionCounts) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"table", "rows"})
	t.AppendRows([]table.Row{
		{"requests", dc.Requests},
		{"useragents", dc.Useragents},
		{"users", dc.Users},
		{"referrers", dc.Referrers},
		{"entrys", dc.Entrys},
	})
	t.Render()
}
