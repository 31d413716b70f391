package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kahenya/duka/internal/model"
)

// InsertSale appends an immutable sale and its lines. Called by the
// event recorder inside the same transaction as the stock decrements.
func InsertSale(ctx context.Context, q Querier, sale *model.Sale) error {
	var reverses any
	if sale.Reverses != "" {
		reverses = sale.Reverses
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO sales (id, customer_id, occurred_at, total, reverses) VALUES (?, ?, ?, ?, ?)`,
		sale.ID, sale.CustomerID, sale.OccurredAt.UTC(), sale.Total, reverses,
	)
	if err != nil {
		return model.Storagef("inserting sale", err)
	}

	for _, line := range sale.Lines {
		_, err := q.ExecContext(ctx,
			`INSERT INTO sale_lines (sale_id, line_no, sku, quantity, unit_price) VALUES (?, ?, ?, ?, ?)`,
			sale.ID, line.LineNo, line.SKU, line.Quantity, line.UnitPrice,
		)
		if err != nil {
			return model.Storagef("inserting sale line", err)
		}
	}
	return nil
}

// GetSale returns a sale with its ordered lines, or nil if absent.
func GetSale(ctx context.Context, q Querier, id string) (*model.Sale, error) {
	sale := &model.Sale{}
	var reverses sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT s.id, s.customer_id, s.occurred_at, s.total, s.reverses, s.created_at, c.name
		 FROM sales s JOIN customers c ON c.id = s.customer_id
		 WHERE s.id = ?`, id,
	).Scan(&sale.ID, &sale.CustomerID, &sale.OccurredAt, &sale.Total, &reverses, &sale.CreatedAt, &sale.CustomerName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting sale: %w", err)
	}
	sale.Reverses = reverses.String

	rows, err := q.QueryContext(ctx,
		`SELECT line_no, sku, quantity, unit_price FROM sale_lines WHERE sale_id = ? ORDER BY line_no`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("getting sale lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line model.SaleLine
		if err := rows.Scan(&line.LineNo, &line.SKU, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, fmt.Errorf("scanning sale line: %w", err)
		}
		sale.Lines = append(sale.Lines, line)
	}
	return sale, rows.Err()
}

// HasReversal reports whether a compensating sale already references
// the given sale.
func HasReversal(ctx context.Context, q Querier, saleID string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sales WHERE reverses = ?`, saleID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking reversal: %w", err)
	}
	return n > 0, nil
}

// ListSales returns sales newest first, without lines.
func ListSales(ctx context.Context, q Querier) ([]model.Sale, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT s.id, s.customer_id, s.occurred_at, s.total, s.reverses, s.created_at, c.name
		 FROM sales s JOIN customers c ON c.id = s.customer_id
		 ORDER BY s.occurred_at DESC, s.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sales: %w", err)
	}
	defer rows.Close()

	var sales []model.Sale
	for rows.Next() {
		var s model.Sale
		var reverses sql.NullString
		if err := rows.Scan(&s.ID, &s.CustomerID, &s.OccurredAt, &s.Total, &reverses, &s.CreatedAt, &s.CustomerName); err != nil {
			return nil, fmt.Errorf("scanning sale: %w", err)
		}
		s.Reverses = reverses.String
		sales = append(sales, s)
	}
	return sales, rows.Err()
}
