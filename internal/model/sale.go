package model

import "time"

// Sale is an immutable sale transaction. Corrections are recorded as
// new compensating sales (Reverses set, quantities negated), never as
// in-place edits.
type Sale struct {
	ID         string     `json:"id"`
	CustomerID int64      `json:"customer_id"`
	OccurredAt time.Time  `json:"occurred_at"`
	Total      float64    `json:"total"`
	Reverses   string     `json:"reverses,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	Lines      []SaleLine `json:"lines,omitempty"`

	// Joined field (not always populated).
	CustomerName string `json:"customer_name,omitempty"`
}

// SaleLine is one line of a sale: an item, a quantity and the unit
// price captured at the time of sale. Quantity is negative on
// compensating sales.
type SaleLine struct {
	LineNo    int     `json:"line_no"`
	SKU       string  `json:"sku"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}
