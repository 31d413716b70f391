// Package metrics derives aggregates from the sale log without ever
// mutating it. Every operation reads with a single SQL statement, so
// it sees one consistent snapshot and can never observe a concurrent
// writer's partial state.
package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"sort"
	"time"

	"github.com/kahenya/duka/internal/model"
)

// Bucket is the width of a revenue series interval.
type Bucket string

const (
	BucketDay   Bucket = "day"
	BucketWeek  Bucket = "week"
	BucketMonth Bucket = "month"
)

// ParseBucket parses a bucket width name.
func ParseBucket(s string) (Bucket, error) {
	switch Bucket(s) {
	case BucketDay, BucketWeek, BucketMonth:
		return Bucket(s), nil
	}
	return "", model.Validationf("unknown bucket width %q (want day, week or month)", s)
}

// next returns the start of the bucket following the one starting at t.
func (b Bucket) next(t time.Time) time.Time {
	switch b {
	case BucketWeek:
		return t.AddDate(0, 0, 7)
	case BucketMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// RevenuePoint is one bucket of a revenue series.
type RevenuePoint struct {
	BucketStart time.Time `json:"bucket_start"`
	Revenue     float64   `json:"revenue"`
}

// RevenueSeries returns total revenue per bucket over [start, end).
// Buckets are aligned to start, the sequence is gap-free (empty
// buckets yield 0), and a sale exactly on a bucket boundary belongs
// to the bucket starting there. The snapshot is taken by the single
// query at call time; the returned sequence is lazy, finite and
// restartable over that snapshot.
func RevenueSeries(ctx context.Context, db *sql.DB, start, end time.Time, bucket Bucket) (iter.Seq[RevenuePoint], error) {
	switch bucket {
	case BucketDay, BucketWeek, BucketMonth:
	default:
		return nil, model.Validationf("unknown bucket width %q", bucket)
	}
	start, end = start.UTC(), end.UTC()

	var starts []time.Time
	for t := start; t.Before(end); t = bucket.next(t) {
		starts = append(starts, t)
	}
	sums := make([]float64, len(starts))

	rows, err := db.QueryContext(ctx,
		`SELECT occurred_at, total FROM sales WHERE occurred_at >= ? AND occurred_at < ?`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("querying revenue: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var at time.Time
		var total float64
		if err := rows.Scan(&at, &total); err != nil {
			return nil, fmt.Errorf("scanning sale: %w", err)
		}
		// Last bucket whose start is not after the sale.
		i := sort.Search(len(starts), func(i int) bool { return starts[i].After(at) }) - 1
		if i >= 0 {
			sums[i] += total
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading revenue rows: %w", err)
	}

	return func(yield func(RevenuePoint) bool) {
		for i, t := range starts {
			if !yield(RevenuePoint{BucketStart: t, Revenue: sums[i]}) {
				return
			}
		}
	}, nil
}

// ItemRevenue is revenue attributed to one SKU over a period.
type ItemRevenue struct {
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Revenue  float64 `json:"revenue"`
	Quantity int     `json:"quantity"`
}

// RevenueByItem returns per-SKU revenue over [start, end), highest
// first. Compensating sale lines net against the originals.
func RevenueByItem(ctx context.Context, db *sql.DB, start, end time.Time) ([]ItemRevenue, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT l.sku, i.name, SUM(l.quantity * l.unit_price) AS revenue, SUM(l.quantity)
		 FROM sale_lines l
		 JOIN items i ON i.sku = l.sku
		 JOIN sales s ON s.id = l.sale_id
		 WHERE s.occurred_at >= ? AND s.occurred_at < ?
		 GROUP BY l.sku, i.name
		 ORDER BY revenue DESC`,
		start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying revenue by item: %w", err)
	}
	defer rows.Close()

	var items []ItemRevenue
	for rows.Next() {
		var ir ItemRevenue
		if err := rows.Scan(&ir.SKU, &ir.Name, &ir.Revenue, &ir.Quantity); err != nil {
			return nil, fmt.Errorf("scanning item revenue: %w", err)
		}
		items = append(items, ir)
	}
	return items, rows.Err()
}
