// Package store is the storage layer: durable reads and writes for
// customers, items and sales, with the stock and referential
// invariants enforced at write time.
package store

import (
	"context"
	"database/sql"
)

// Querier is the subset of *sql.DB and *sql.Tx that store functions
// use, so the same code runs standalone or inside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
