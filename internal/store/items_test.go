package store

import (
	"context"
	"errors"
	"testing"

	"github.com/kahenya/duka/internal/db"
	"github.com/kahenya/duka/internal/model"
)

func TestGetItemMissingReturnsNil(t *testing.T) {
	database := db.NewTestDB(t)

	item, err := GetItem(context.Background(), database, "NOPE")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if item != nil {
		t.Errorf("expected nil for missing item, got %+v", item)
	}
}

func TestUpsertItemCreatesAndReplaces(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	err := UpsertItem(ctx, database, &model.Item{SKU: "A1", Name: "Widget", UnitCost: 3, UnitPrice: 5, QuantityOnHand: 10})
	if err != nil {
		t.Fatalf("UpsertItem: %v", err)
	}

	err = UpsertItem(ctx, database, &model.Item{SKU: "A1", Name: "Widget v2", UnitCost: 4, UnitPrice: 6, QuantityOnHand: 8})
	if err != nil {
		t.Fatalf("UpsertItem update: %v", err)
	}

	item, _ := GetItem(ctx, database, "A1")
	if item == nil {
		t.Fatal("expected item")
	}
	if item.Name != "Widget v2" || item.UnitPrice != 6 || item.QuantityOnHand != 8 {
		t.Errorf("unexpected item after upsert: %+v", item)
	}
}

func TestUpsertItemValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	cases := []model.Item{
		{SKU: "", Name: "Widget"},
		{SKU: "A1", Name: ""},
		{SKU: "A1", Name: "Widget", QuantityOnHand: -1},
		{SKU: "A1", Name: "Widget", UnitCost: -2},
	}
	for _, item := range cases {
		err := UpsertItem(ctx, database, &item)
		var verr *model.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("item %+v: expected ValidationError, got %v", item, err)
		}
	}
}

func TestApplyStockDelta(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	UpsertItem(ctx, database, &model.Item{SKU: "A1", Name: "Widget", QuantityOnHand: 10})

	qty, err := ApplyStockDelta(ctx, database, "A1", -3)
	if err != nil {
		t.Fatalf("ApplyStockDelta: %v", err)
	}
	if qty != 7 {
		t.Errorf("expected 7 on hand, got %d", qty)
	}

	qty, err = ApplyStockDelta(ctx, database, "A1", 5)
	if err != nil {
		t.Fatalf("ApplyStockDelta restock: %v", err)
	}
	if qty != 12 {
		t.Errorf("expected 12 on hand, got %d", qty)
	}
}

func TestApplyStockDeltaShortfall(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	UpsertItem(ctx, database, &model.Item{SKU: "A1", Name: "Widget", QuantityOnHand: 4})

	_, err := ApplyStockDelta(ctx, database, "A1", -5)
	var stockErr *model.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.Available != 4 || stockErr.Requested != 5 {
		t.Errorf("unexpected error context: %+v", stockErr)
	}

	// Stock unchanged after the rejected delta.
	item, _ := GetItem(ctx, database, "A1")
	if item.QuantityOnHand != 4 {
		t.Errorf("expected stock 4, got %d", item.QuantityOnHand)
	}
}

func TestApplyStockDeltaUnknownSKU(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := ApplyStockDelta(context.Background(), database, "NOPE", -1)
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
