package dashboard

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizdesk/bizdesk/internal/platform/db"
)

// Repository runs the aggregate queries behind the dashboard.
type Repository interface {
	QuoteStatusCounts(ctx context.Context) (map[string]int, error)
	QuoteRanges(ctx context.Context, ranges []Range) ([]RangeStats, error)
	EntityCounts(ctx context.Context) (customers, products int, err error)
}

type repository struct {
	db db.DBTX
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) QuoteStatusCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM quotes GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// QuoteRanges aggregates all ranges in one round trip. Accepted value counts
// quotes that were accepted or already converted to an order.
func (r *repository) QuoteRanges(ctx context.Context, ranges []Range) ([]RangeStats, error) {
	starts := make([]time.Time, len(ranges))
	ends := make([]time.Time, len(ranges))
	for i, rg := range ranges {
		starts[i], ends[i] = rg.Start, rg.End
	}
	rows, err := r.db.Query(ctx, `SELECT b.idx, COUNT(q.id),
			COALESCE(SUM(q.cash_total) FILTER (WHERE q.status IN ('accepted', 'converted_to_order')), 0)
		FROM unnest($1::timestamptz[], $2::timestamptz[]) WITH ORDINALITY AS b(starts, ends, idx)
		LEFT JOIN quotes q ON q.created_at >= b.starts AND q.created_at < b.ends
		GROUP BY b.idx
		ORDER BY b.idx`, starts, ends)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]RangeStats, len(ranges))
	for rows.Next() {
		var idx int
		var st RangeStats
		if err := rows.Scan(&idx, &st.QuoteCount, &st.AcceptedValue); err != nil {
			return nil, err
		}
		if idx >= 1 && idx <= len(out) {
			out[idx-1] = st
		}
	}
	return out, rows.Err()
}

func (r *repository) EntityCounts(ctx context.Context) (int, int, error) {
	var customers, products int
	err := r.db.QueryRow(ctx, `SELECT
		(SELECT COUNT(*) FROM customers),
		(SELECT COUNT(*) FROM products WHERE is_active)`).Scan(&customers, &products)
	return customers, products, err
}
