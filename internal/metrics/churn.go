package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kahenya/duka/internal/model"
)

// DefaultChurnWindow is the inactivity window used when none is
// configured.
const DefaultChurnWindow = 90 * 24 * time.Hour

// ChurnReport classifies customers by purchase recency. Customers
// with no recorded purchase are counted separately and excluded from
// the rate's denominator.
type ChurnReport struct {
	AsOf           time.Time     `json:"as_of"`
	Window         time.Duration `json:"window"`
	Active         int           `json:"active"`
	Churned        int           `json:"churned"`
	NeverPurchased int           `json:"never_purchased"`
	Rate           float64       `json:"rate"`
}

// Churn classifies each customer as active or churned as of the given
// time: churned when asOf minus their last purchase exceeds the
// window, active otherwise (a customer exactly at the window edge is
// active).
func Churn(ctx context.Context, db *sql.DB, asOf time.Time, window time.Duration) (*ChurnReport, error) {
	if window <= 0 {
		return nil, model.Validationf("inactivity window must be positive")
	}
	asOf = asOf.UTC()
	cutoff := asOf.Add(-window)

	report := &ChurnReport{AsOf: asOf, Window: window}
	err := db.QueryRowContext(ctx,
		`SELECT
		     COALESCE(SUM(CASE WHEN last_purchase_at >= ? THEN 1 ELSE 0 END), 0),
		     COALESCE(SUM(CASE WHEN last_purchase_at < ? THEN 1 ELSE 0 END), 0),
		     COALESCE(SUM(CASE WHEN last_purchase_at IS NULL THEN 1 ELSE 0 END), 0)
		 FROM customers`,
		cutoff, cutoff,
	).Scan(&report.Active, &report.Churned, &report.NeverPurchased)
	if err != nil {
		return nil, fmt.Errorf("querying churn: %w", err)
	}

	if total := report.Active + report.Churned; total > 0 {
		report.Rate = float64(report.Churned) / float64(total)
	}
	return report, nil
}
