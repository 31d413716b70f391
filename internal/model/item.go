package model

import "time"

// Item is a stocked product, keyed by SKU.
// QuantityOnHand never goes negative; every change to it corresponds
// to a recorded sale line or stock adjustment.
type Item struct {
	SKU            string    `json:"sku"`
	Name           string    `json:"name"`
	UnitCost       float64   `json:"unit_cost"`
	UnitPrice      float64   `json:"unit_price"`
	QuantityOnHand int       `json:"quantity_on_hand"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// StockAdjustment is an append-only audit record of a manual stock
// correction (restock, shrinkage, recount).
type StockAdjustment struct {
	ID         int64     `json:"id"`
	SKU        string    `json:"sku"`
	Delta      int       `json:"delta"`
	Reason     string    `json:"reason,omitempty"`
	AdjustedAt time.Time `json:"adjusted_at"`
}
