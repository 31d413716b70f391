// Package recorder is the event recorder: it translates business
// events (a sale, a stock correction, a reversal) into single atomic
// storage transactions. Every failure path leaves the store exactly
// as it was before the call.
package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kahenya/duka/internal/model"
	"github.com/kahenya/duka/internal/store"
)

// Line is one requested sale line. UnitPrice overrides the item's
// current price when non-zero; the effective price is captured onto
// the stored line either way.
type Line struct {
	SKU       string
	Quantity  int
	UnitPrice float64
}

// RecordSale validates and applies a sale as one transaction: stock
// decrements, customer upsert with purchase timestamps, and the
// immutable sale row with computed total. Returns the new sale's ID.
//
// The customer is matched by ID when set, otherwise upserted by
// email. A customer given only as an ID must already exist.
func RecordSale(ctx context.Context, db *sql.DB, customer *model.Customer, lines []Line, at time.Time) (string, error) {
	if customer == nil {
		return "", model.Validationf("sale requires a customer")
	}
	if len(lines) == 0 {
		return "", model.Validationf("sale requires at least one line")
	}
	for _, line := range lines {
		if line.SKU == "" {
			return "", model.Validationf("sale line is missing a sku")
		}
		if line.Quantity <= 0 {
			return "", model.Validationf("quantity for %s must be positive, got %d", line.SKU, line.Quantity)
		}
		if line.UnitPrice < 0 {
			return "", model.Validationf("unit price for %s cannot be negative", line.SKU)
		}
	}
	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", model.Storagef("beginning transaction", err)
	}
	defer tx.Rollback()

	// Decrement stock per line. The guarded update inside the same
	// transaction as the inserts means an oversell rejects the whole
	// sale with no partial state.
	var total float64
	saleLines := make([]model.SaleLine, 0, len(lines))
	for i, line := range lines {
		item, err := store.GetItem(ctx, tx, line.SKU)
		if err != nil {
			return "", err
		}
		if item == nil {
			return "", fmt.Errorf("item %q: %w", line.SKU, model.ErrNotFound)
		}

		if _, err := store.ApplyStockDelta(ctx, tx, line.SKU, -line.Quantity); err != nil {
			return "", err
		}

		price := line.UnitPrice
		if price == 0 {
			price = item.UnitPrice
		}
		total += float64(line.Quantity) * price
		saleLines = append(saleLines, model.SaleLine{
			LineNo:    i + 1,
			SKU:       line.SKU,
			Quantity:  line.Quantity,
			UnitPrice: price,
		})
	}

	customerID, err := resolveCustomer(ctx, tx, customer)
	if err != nil {
		return "", err
	}
	if err := store.TouchPurchase(ctx, tx, customerID, at); err != nil {
		return "", err
	}

	sale := &model.Sale{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		OccurredAt: at,
		Total:      total,
		Lines:      saleLines,
	}
	if err := store.InsertSale(ctx, tx, sale); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", model.Storagef("committing sale", err)
	}
	return sale.ID, nil
}

// AdjustInventory applies a manual stock correction (restock,
// shrinkage, recount delta) and appends its audit record, atomically.
// Returns the new quantity on hand.
func AdjustInventory(ctx context.Context, db *sql.DB, sku string, delta int, reason string) (int, error) {
	if sku == "" {
		return 0, model.Validationf("sku is required")
	}
	if delta == 0 {
		return 0, model.Validationf("delta must be non-zero")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, model.Storagef("beginning transaction", err)
	}
	defer tx.Rollback()

	qty, err := store.ApplyStockDelta(ctx, tx, sku, delta)
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO stock_adjustments (sku, delta, reason) VALUES (?, ?, ?)`,
		sku, delta, reason,
	); err != nil {
		return 0, model.Storagef("recording adjustment", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, model.Storagef("committing adjustment", err)
	}
	return qty, nil
}

// ReverseSale records a compensating sale that negates an earlier one
// and restocks its items. The original rows are never modified; the
// audit trail stays append-only. A sale can be reversed once, and a
// reversal cannot itself be reversed.
func ReverseSale(ctx context.Context, db *sql.DB, saleID string, at time.Time) (string, error) {
	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", model.Storagef("beginning transaction", err)
	}
	defer tx.Rollback()

	sale, err := store.GetSale(ctx, tx, saleID)
	if err != nil {
		return "", err
	}
	if sale == nil {
		return "", fmt.Errorf("sale %q: %w", saleID, model.ErrNotFound)
	}
	if sale.Reverses != "" {
		return "", model.Validationf("sale %s is itself a reversal", saleID)
	}
	if reversed, err := store.HasReversal(ctx, tx, saleID); err != nil {
		return "", err
	} else if reversed {
		return "", model.Validationf("sale %s is already reversed", saleID)
	}

	lines := make([]model.SaleLine, 0, len(sale.Lines))
	for _, line := range sale.Lines {
		if _, err := store.ApplyStockDelta(ctx, tx, line.SKU, line.Quantity); err != nil {
			return "", err
		}
		lines = append(lines, model.SaleLine{
			LineNo:    line.LineNo,
			SKU:       line.SKU,
			Quantity:  -line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	reversal := &model.Sale{
		ID:         uuid.NewString(),
		CustomerID: sale.CustomerID,
		OccurredAt: at,
		Total:      -sale.Total,
		Reverses:   sale.ID,
		Lines:      lines,
	}
	if err := store.InsertSale(ctx, tx, reversal); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", model.Storagef("committing reversal", err)
	}
	return reversal.ID, nil
}

func resolveCustomer(ctx context.Context, q store.Querier, customer *model.Customer) (int64, error) {
	// A bare ID is a reference to an existing customer, not an upsert.
	if customer.Name == "" && customer.Email == "" {
		if customer.ID == 0 {
			return 0, model.Validationf("customer needs an id or a name and email")
		}
		existing, err := store.GetCustomer(ctx, q, customer.ID)
		if err != nil {
			return 0, err
		}
		if existing == nil {
			return 0, fmt.Errorf("customer %d: %w", customer.ID, model.ErrNotFound)
		}
		return existing.ID, nil
	}

	stored, err := store.UpsertCustomer(ctx, q, customer)
	if err != nil {
		return 0, err
	}
	return stored.ID, nil
}
