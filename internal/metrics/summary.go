package metrics

import (
	"context"
	"database/sql"
	"fmt"
)

// Summary is the headline KPI set for the whole sale log.
type Summary struct {
	TotalRevenue   float64 `json:"total_revenue"`
	SaleCount      int     `json:"sale_count"`
	AvgOrderValue  float64 `json:"avg_order_value"`
	TotalQuantity  int     `json:"total_quantity"`
	TotalCustomers int     `json:"total_customers"`
	GrossProfit    float64 `json:"gross_profit"`
	ProfitMargin   float64 `json:"profit_margin"`
}

// BusinessSummary computes the KPI set in one statement. Compensating
// sales net out of revenue, quantity and profit; SaleCount counts
// only original sales, so AvgOrderValue reflects real orders.
// ProfitMargin is gross profit (revenue minus cost of goods sold at
// current unit cost) as a fraction of revenue.
func BusinessSummary(ctx context.Context, db *sql.DB) (*Summary, error) {
	s := &Summary{}
	err := db.QueryRowContext(ctx,
		`SELECT
		     (SELECT COALESCE(SUM(total), 0) FROM sales),
		     (SELECT COUNT(*) FROM sales WHERE reverses IS NULL),
		     (SELECT COALESCE(SUM(quantity), 0) FROM sale_lines),
		     (SELECT COUNT(*) FROM customers),
		     (SELECT COALESCE(SUM(l.quantity * (l.unit_price - i.unit_cost)), 0)
		      FROM sale_lines l JOIN items i ON i.sku = l.sku)`,
	).Scan(&s.TotalRevenue, &s.SaleCount, &s.TotalQuantity, &s.TotalCustomers, &s.GrossProfit)
	if err != nil {
		return nil, fmt.Errorf("querying summary: %w", err)
	}

	if s.SaleCount > 0 {
		s.AvgOrderValue = s.TotalRevenue / float64(s.SaleCount)
	}
	if s.TotalRevenue != 0 {
		s.ProfitMargin = s.GrossProfit / s.TotalRevenue
	}
	return s, nil
}
