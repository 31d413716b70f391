package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS customers (
    id                INTEGER PRIMARY KEY,
    name              TEXT NOT NULL,
    email             TEXT NOT NULL UNIQUE,
    phone             TEXT,
    first_purchase_at DATETIME,
    last_purchase_at  DATETIME,
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS items (
    sku              TEXT PRIMARY KEY,
    name             TEXT NOT NULL,
    unit_cost        REAL NOT NULL DEFAULT 0,
    unit_price       REAL NOT NULL DEFAULT 0,
    quantity_on_hand INTEGER NOT NULL DEFAULT 0 CHECK (quantity_on_hand >= 0),
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sales (
    id          TEXT PRIMARY KEY,
    customer_id INTEGER NOT NULL REFERENCES customers(id),
    occurred_at DATETIME NOT NULL,
    total       REAL NOT NULL,
    reverses    TEXT UNIQUE REFERENCES sales(id),
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sales_occurred_at ON sales(occurred_at);

CREATE TABLE IF NOT EXISTS sale_lines (
    sale_id    TEXT NOT NULL REFERENCES sales(id),
    line_no    INTEGER NOT NULL,
    sku        TEXT NOT NULL REFERENCES items(sku),
    quantity   INTEGER NOT NULL CHECK (quantity <> 0),
    unit_price REAL NOT NULL,
    PRIMARY KEY (sale_id, line_no)
);

CREATE TABLE IF NOT EXISTS stock_adjustments (
    id          INTEGER PRIMARY KEY,
    sku         TEXT NOT NULL REFERENCES items(sku),
    delta       INTEGER NOT NULL,
    reason      TEXT,
    adjusted_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
// Safe to run on every startup.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
