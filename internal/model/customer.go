package model

import "time"

// Customer is a known buyer. Customers are never hard-deleted;
// "churned" is derived from last_purchase_at, not stored.
type Customer struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone,omitempty"`
	FirstPurchaseAt *time.Time `json:"first_purchase_at,omitempty"`
	LastPurchaseAt  *time.Time `json:"last_purchase_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
