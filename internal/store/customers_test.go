package store

import (
	"context"
	"testing"
	"time"

	"github.com/kahenya/duka/internal/db"
	"github.com/kahenya/duka/internal/model"
)

func TestUpsertCustomerByEmail(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c, err := UpsertCustomer(ctx, database, &model.Customer{Name: "Alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("UpsertCustomer: %v", err)
	}
	if c.ID == 0 {
		t.Fatal("expected assigned ID")
	}

	// Same email updates in place, no second row.
	c2, err := UpsertCustomer(ctx, database, &model.Customer{Name: "Alice W", Email: "alice@example.com", Phone: "0700"})
	if err != nil {
		t.Fatalf("UpsertCustomer update: %v", err)
	}
	if c2.ID != c.ID {
		t.Errorf("expected same ID %d, got %d", c.ID, c2.ID)
	}
	if c2.Name != "Alice W" || c2.Phone != "0700" {
		t.Errorf("unexpected customer after update: %+v", c2)
	}

	customers, _ := ListCustomers(ctx, database)
	if len(customers) != 1 {
		t.Errorf("expected 1 customer, got %d", len(customers))
	}
}

func TestUpsertCustomerNeverTouchesPurchaseTimes(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c, _ := UpsertCustomer(ctx, database, &model.Customer{Name: "Alice", Email: "alice@example.com"})
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := TouchPurchase(ctx, database, c.ID, at); err != nil {
		t.Fatalf("TouchPurchase: %v", err)
	}

	// An arbitrary edit must not move last_purchase_at.
	UpsertCustomer(ctx, database, &model.Customer{ID: c.ID, Name: "Alice W", Email: "alice@example.com"})

	got, _ := GetCustomer(ctx, database, c.ID)
	if got.LastPurchaseAt == nil || !got.LastPurchaseAt.Equal(at) {
		t.Errorf("expected last_purchase_at %v, got %v", at, got.LastPurchaseAt)
	}
}

func TestTouchPurchaseKeepsEarliestAndLatest(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c, _ := UpsertCustomer(ctx, database, &model.Customer{Name: "Alice", Email: "alice@example.com"})

	mid := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	early := mid.AddDate(0, -1, 0)
	late := mid.AddDate(0, 1, 0)

	// Out-of-order historical imports.
	for _, at := range []time.Time{mid, late, early} {
		if err := TouchPurchase(ctx, database, c.ID, at); err != nil {
			t.Fatalf("TouchPurchase(%v): %v", at, err)
		}
	}

	got, _ := GetCustomer(ctx, database, c.ID)
	if got.FirstPurchaseAt == nil || !got.FirstPurchaseAt.Equal(early) {
		t.Errorf("expected first purchase %v, got %v", early, got.FirstPurchaseAt)
	}
	if got.LastPurchaseAt == nil || !got.LastPurchaseAt.Equal(late) {
		t.Errorf("expected last purchase %v, got %v", late, got.LastPurchaseAt)
	}
}

func TestGetCustomerMissingReturnsNil(t *testing.T) {
	database := db.NewTestDB(t)

	c, err := GetCustomer(context.Background(), database, 42)
	if err != nil {
		t.Fatalf("GetCustomer: %v", err)
	}
	if c != nil {
		t.Errorf("expected nil for missing customer, got %+v", c)
	}
}
