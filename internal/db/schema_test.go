package db

import (
	"path/filepath"
	"testing"
)

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "test.sqlite3"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	if err := EnsureSchema(database); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	// Existing data must survive a re-run.
	_, err = database.Exec(`INSERT INTO items (sku, name, quantity_on_hand) VALUES ('A1', 'Widget', 5)`)
	if err != nil {
		t.Fatalf("inserting item: %v", err)
	}

	if err := EnsureSchema(database); err != nil {
		t.Fatalf("EnsureSchema second run: %v", err)
	}

	var qty int
	if err := database.QueryRow(`SELECT quantity_on_hand FROM items WHERE sku = 'A1'`).Scan(&qty); err != nil {
		t.Fatalf("reading item back: %v", err)
	}
	if qty != 5 {
		t.Errorf("expected quantity 5, got %d", qty)
	}

	// No duplicate tables either.
	var n int
	err = database.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'items'`).Scan(&n)
	if err != nil {
		t.Fatalf("counting tables: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 items table, got %d", n)
	}
}

func TestSchemaRejectsNegativeStock(t *testing.T) {
	database := NewTestDB(t)

	_, err := database.Exec(`INSERT INTO items (sku, name, quantity_on_hand) VALUES ('A1', 'Widget', -1)`)
	if err == nil {
		t.Error("expected CHECK violation for negative stock")
	}
}
