package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kahenya/duka/internal/model"
)

// GetCustomer returns a customer by ID, or nil if absent.
func GetCustomer(ctx context.Context, q Querier, id int64) (*model.Customer, error) {
	return scanCustomer(q.QueryRowContext(ctx,
		`SELECT id, name, email, phone, first_purchase_at, last_purchase_at, created_at
		 FROM customers WHERE id = ?`, id,
	))
}

// GetCustomerByEmail returns a customer by email, or nil if absent.
func GetCustomerByEmail(ctx context.Context, q Querier, email string) (*model.Customer, error) {
	return scanCustomer(q.QueryRowContext(ctx,
		`SELECT id, name, email, phone, first_purchase_at, last_purchase_at, created_at
		 FROM customers WHERE email = ?`, email,
	))
}

// UpsertCustomer inserts or updates a customer and returns the stored
// row. Identity is the ID when set, otherwise the unique email.
// Purchase timestamps are never touched here; only the sale-recording
// path moves them, so churn derivation stays meaningful.
func UpsertCustomer(ctx context.Context, q Querier, c *model.Customer) (*model.Customer, error) {
	if c.Email == "" {
		return nil, model.Validationf("customer email is required")
	}
	if c.Name == "" {
		return nil, model.Validationf("customer name is required")
	}

	var id int64
	var err error
	if c.ID != 0 {
		err = q.QueryRowContext(ctx,
			`INSERT INTO customers (id, name, email, phone) VALUES (?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET name = excluded.name, email = excluded.email, phone = excluded.phone
			 RETURNING id`,
			c.ID, c.Name, c.Email, c.Phone,
		).Scan(&id)
	} else {
		err = q.QueryRowContext(ctx,
			`INSERT INTO customers (name, email, phone) VALUES (?, ?, ?)
			 ON CONFLICT (email) DO UPDATE SET name = excluded.name, phone = excluded.phone
			 RETURNING id`,
			c.Name, c.Email, c.Phone,
		).Scan(&id)
	}
	if err != nil {
		return nil, model.Storagef("upserting customer", err)
	}

	return GetCustomer(ctx, q, id)
}

// TouchPurchase records that a customer purchased at the given time.
// first_purchase_at keeps the earliest and last_purchase_at the
// latest seen, so historical imports can arrive out of order.
func TouchPurchase(ctx context.Context, q Querier, id int64, at time.Time) error {
	at = at.UTC()
	_, err := q.ExecContext(ctx,
		`UPDATE customers
		 SET first_purchase_at = MIN(COALESCE(first_purchase_at, ?), ?),
		     last_purchase_at  = MAX(COALESCE(last_purchase_at, ?), ?)
		 WHERE id = ?`,
		at, at, at, at, id,
	)
	if err != nil {
		return model.Storagef("recording purchase time", err)
	}
	return nil
}

// ListCustomers returns all customers ordered by name.
func ListCustomers(ctx context.Context, q Querier) ([]model.Customer, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, email, phone, first_purchase_at, last_purchase_at, created_at
		 FROM customers ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		c, err := scanCustomerRow(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

func scanCustomer(row *sql.Row) (*model.Customer, error) {
	c := &model.Customer{}
	var phone sql.NullString
	var first, last sql.NullTime
	err := row.Scan(&c.ID, &c.Name, &c.Email, &phone, &first, &last, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting customer: %w", err)
	}
	c.Phone = phone.String
	if first.Valid {
		c.FirstPurchaseAt = &first.Time
	}
	if last.Valid {
		c.LastPurchaseAt = &last.Time
	}
	return c, nil
}

func scanCustomerRow(rows *sql.Rows) (*model.Customer, error) {
	c := &model.Customer{}
	var phone sql.NullString
	var first, last sql.NullTime
	if err := rows.Scan(&c.ID, &c.Name, &c.Email, &phone, &first, &last, &c.CreatedAt); err != nil {
		return nil, fmt.Errorf("scanning customer: %w", err)
	}
	c.Phone = phone.String
	if first.Valid {
		c.FirstPurchaseAt = &first.Time
	}
	if last.Valid {
		c.LastPurchaseAt = &last.Time
	}
	return c, nil
}
