package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ItemValuation is one item's current stock level and value at cost.
type ItemValuation struct {
	SKU            string  `json:"sku"`
	Name           string  `json:"name"`
	QuantityOnHand int     `json:"quantity_on_hand"`
	UnitCost       float64 `json:"unit_cost"`
	Valuation      float64 `json:"valuation"`
}

// InventoryReport is a point-in-time snapshot of stock levels and
// total inventory value.
type InventoryReport struct {
	TakenAt    time.Time       `json:"taken_at"`
	Items      []ItemValuation `json:"items"`
	TotalUnits int             `json:"total_units"`
	TotalValue float64         `json:"total_value"`
}

// InventorySnapshot returns current quantity on hand and valuation
// (quantity times unit cost) per item, with totals.
func InventorySnapshot(ctx context.Context, db *sql.DB) (*InventoryReport, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT sku, name, quantity_on_hand, unit_cost FROM items ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying inventory: %w", err)
	}
	defer rows.Close()

	report := &InventoryReport{TakenAt: time.Now().UTC()}
	for rows.Next() {
		var iv ItemValuation
		if err := rows.Scan(&iv.SKU, &iv.Name, &iv.QuantityOnHand, &iv.UnitCost); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		iv.Valuation = float64(iv.QuantityOnHand) * iv.UnitCost
		report.Items = append(report.Items, iv)
		report.TotalUnits += iv.QuantityOnHand
		report.TotalValue += iv.Valuation
	}
	return report, rows.Err()
}
