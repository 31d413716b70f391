package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kahenya/duka/internal/model"
)

// GetItem returns an item by SKU, or nil if absent.
func GetItem(ctx context.Context, q Querier, sku string) (*model.Item, error) {
	item := &model.Item{}
	err := q.QueryRowContext(ctx,
		`SELECT sku, name, unit_cost, unit_price, quantity_on_hand, created_at, updated_at
		 FROM items WHERE sku = ?`, sku,
	).Scan(&item.SKU, &item.Name, &item.UnitCost, &item.UnitPrice, &item.QuantityOnHand, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// UpsertItem creates an item or replaces its metadata and absolute
// stock level. Relative corrections go through ApplyStockDelta so
// they leave an audit trail.
func UpsertItem(ctx context.Context, q Querier, item *model.Item) error {
	if item.SKU == "" {
		return model.Validationf("item sku is required")
	}
	if item.Name == "" {
		return model.Validationf("item name is required")
	}
	if item.QuantityOnHand < 0 {
		return model.Validationf("stock for %s cannot be negative", item.SKU)
	}
	if item.UnitCost < 0 || item.UnitPrice < 0 {
		return model.Validationf("prices for %s cannot be negative", item.SKU)
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO items (sku, name, unit_cost, unit_price, quantity_on_hand) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (sku) DO UPDATE SET
		     name = excluded.name, unit_cost = excluded.unit_cost, unit_price = excluded.unit_price,
		     quantity_on_hand = excluded.quantity_on_hand, updated_at = CURRENT_TIMESTAMP`,
		item.SKU, item.Name, item.UnitCost, item.UnitPrice, item.QuantityOnHand,
	)
	if err != nil {
		return model.Storagef("upserting item", err)
	}
	return nil
}

// ApplyStockDelta atomically adjusts an item's quantity on hand and
// returns the new quantity. The guard rides on the UPDATE itself, so
// concurrent callers can never jointly drive stock negative. Returns
// InsufficientStockError on shortfall and ErrNotFound for an unknown
// SKU.
func ApplyStockDelta(ctx context.Context, q Querier, sku string, delta int) (int, error) {
	var qty int
	err := q.QueryRowContext(ctx,
		`UPDATE items
		 SET quantity_on_hand = quantity_on_hand + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE sku = ? AND quantity_on_hand + ? >= 0
		 RETURNING quantity_on_hand`,
		delta, sku, delta,
	).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		var have int
		err := q.QueryRowContext(ctx,
			`SELECT quantity_on_hand FROM items WHERE sku = ?`, sku,
		).Scan(&have)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("item %q: %w", sku, model.ErrNotFound)
		}
		if err != nil {
			return 0, model.Storagef("checking stock", err)
		}
		return 0, &model.InsufficientStockError{SKU: sku, Requested: -delta, Available: have}
	}
	if err != nil {
		return 0, model.Storagef("applying stock delta", err)
	}
	return qty, nil
}

// ListItems returns all items ordered by name.
func ListItems(ctx context.Context, q Querier) ([]model.Item, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT sku, name, unit_cost, unit_price, quantity_on_hand, created_at, updated_at
		 FROM items ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var item model.Item
		if err := rows.Scan(&item.SKU, &item.Name, &item.UnitCost, &item.UnitPrice, &item.QuantityOnHand, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListAdjustments returns the manual stock adjustment audit trail for
// a SKU, newest first. An empty SKU returns all adjustments.
func ListAdjustments(ctx context.Context, q Querier, sku string) ([]model.StockAdjustment, error) {
	query := `SELECT id, sku, delta, reason, adjusted_at FROM stock_adjustments`
	var args []any
	if sku != "" {
		query += ` WHERE sku = ?`
		args = append(args, sku)
	}
	query += ` ORDER BY adjusted_at DESC, id DESC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []model.StockAdjustment
	for rows.Next() {
		var a model.StockAdjustment
		var reason sql.NullString
		if err := rows.Scan(&a.ID, &a.SKU, &a.Delta, &reason, &a.AdjustedAt); err != nil {
			return nil, fmt.Errorf("scanning adjustment: %w", err)
		}
		a.Reason = reason.String
		adjustments = append(adjustments, a)
	}
	return adjustments, rows.Err()
}
