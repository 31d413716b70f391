package report

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kahenya/duka/internal/db"
	"github.com/kahenya/duka/internal/metrics"
	"github.com/kahenya/duka/internal/model"
	"github.com/kahenya/duka/internal/recorder"
	"github.com/kahenya/duka/internal/store"
)

func TestWriteWorkbook(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	err := store.UpsertItem(ctx, database, &model.Item{SKU: "A1", Name: "Widget", UnitCost: 3, UnitPrice: 5, QuantityOnHand: 10})
	if err != nil {
		t.Fatalf("seeding item: %v", err)
	}
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	_, err = recorder.RecordSale(ctx, database,
		&model.Customer{Name: "Alice", Email: "alice@example.com"},
		[]recorder.Line{{SKU: "A1", Quantity: 3}}, at)
	if err != nil {
		t.Fatalf("recording sale: %v", err)
	}

	path := filepath.Join(t.TempDir(), "report.xlsx")
	err = WriteWorkbook(ctx, database, path, Params{
		Start:       at.AddDate(0, 0, -1),
		End:         at.AddDate(0, 0, 6),
		Bucket:      metrics.BucketWeek,
		ChurnAsOf:   at.AddDate(0, 0, 7),
		ChurnWindow: metrics.DefaultChurnWindow,
	})
	if err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopening workbook: %v", err)
	}
	defer f.Close()

	for _, sheet := range []string{"Summary", "Revenue", "Revenue by item", "Inventory", "Churn"} {
		if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
			t.Errorf("missing sheet %s", sheet)
		}
	}

	revenue, err := f.GetCellValue("Summary", "B1")
	if err != nil {
		t.Fatalf("reading summary cell: %v", err)
	}
	if revenue != "15" {
		t.Errorf("expected total revenue 15 in Summary!B1, got %q", revenue)
	}

	rows, err := f.GetRows("Inventory")
	if err != nil {
		t.Fatalf("reading inventory sheet: %v", err)
	}
	// Header, one item, totals row.
	if len(rows) != 3 {
		t.Errorf("expected 3 inventory rows, got %d", len(rows))
	}
}
