package csvimport

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kahenya/duka/internal/db"
	"github.com/kahenya/duka/internal/model"
	"github.com/kahenya/duka/internal/store"
)

func TestImportItems(t *testing.T) {
	database := db.NewTestDB(t)

	csv := "sku,name,unit_cost,unit_price,stock\n" +
		"A1,Widget,3,5,10\n" +
		"B2,Gadget,7,12,4\n"

	result, err := Items(context.Background(), database, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if result.Imported != 2 || len(result.Errors) != 0 {
		t.Fatalf("expected 2 imported with no errors, got %+v", result)
	}

	item, _ := store.GetItem(context.Background(), database, "B2")
	if item == nil || item.QuantityOnHand != 4 || item.UnitPrice != 12 {
		t.Errorf("unexpected imported item: %+v", item)
	}
}

func TestImportItemsCollectsRowErrors(t *testing.T) {
	database := db.NewTestDB(t)

	csv := "A1,Widget,3,5,10\n" +
		"B2,Gadget,seven,12,4\n" + // bad cost
		"C3,Doohickey,1,2\n" + // short row
		"D4,Gizmo,2,4,6\n"

	result, err := Items(context.Background(), database, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if result.Imported != 2 {
		t.Errorf("expected 2 imported, got %d", result.Imported)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 row errors, got %v", result.Errors)
	}
	if result.Errors[0].Line != 2 || result.Errors[1].Line != 3 {
		t.Errorf("unexpected error lines: %v", result.Errors)
	}
}

func TestImportCustomersAndSales(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := Items(ctx, database, strings.NewReader("A1,Widget,3,5,10\n")); err != nil {
		t.Fatalf("Items: %v", err)
	}
	result, err := Customers(ctx, database, strings.NewReader("name,email,phone\nAlice,alice@example.com,0700\n"))
	if err != nil {
		t.Fatalf("Customers: %v", err)
	}
	if result.Imported != 1 {
		t.Fatalf("expected 1 customer imported, got %+v", result)
	}
	customer, _ := store.GetCustomerByEmail(ctx, database, "alice@example.com")
	if customer == nil {
		t.Fatal("expected imported customer")
	}

	sales := "sku,quantity,unit_price,customer_id\n" +
		"A1,3,0,1,2026-04-02\n" + // item price applies
		"A1,99,0,1\n" // oversell, collected not fatal

	salesResult, err := Sales(ctx, database, strings.NewReader(sales))
	if err != nil {
		t.Fatalf("Sales: %v", err)
	}
	if salesResult.Imported != 1 || len(salesResult.Errors) != 1 {
		t.Fatalf("expected 1 imported and 1 error, got %+v", salesResult)
	}

	item, _ := store.GetItem(ctx, database, "A1")
	if item.QuantityOnHand != 7 {
		t.Errorf("expected stock 7 after import, got %d", item.QuantityOnHand)
	}

	// The oversell row surfaced the typed error.
	var stockErr *model.InsufficientStockError
	if !errors.As(salesResult.Errors[0].Err, &stockErr) {
		t.Errorf("expected InsufficientStockError, got %v", salesResult.Errors[0].Err)
	}
}
