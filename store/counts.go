package store

import (
	"context"

	"github.com/loggerson/loggerson/diagnostics"
)

// DimensionCounts reads the current row count of each dimension/fact
// table, for the final summary report (SPEC_FULL.md §5).
func (p *Pool) DimensionCounts(ctx context.Context) (diagnostics.DimensionCounts, error) {
	var dc diagnostics.DimensionCounts

	queries := []struct {
		query string
		dest  *int64
	}{
		{`SELECT COUNT(*) FROM requests`, &dc.Requests},
		{`SELECT COUNT(*) FROM useragents`, &dc.Useragents},
		{`SELECT COUNT(*) FROM users`, &dc.Users},
		{`SELECT COUNT(*) FROM referrers`, &dc.Referrers},
		{`SELECT COUNT(*) FROM entrys`, &dc.Entrys},
	}

	for _, q := range queries {
		if err := p.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return dc, err
		}
	}
	return dc, nil
}
