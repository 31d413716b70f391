// Package report renders metrics engine output into an XLSX workbook
// for offline analysis. It is a presentation consumer of the metrics
// engine and never writes to the store.
package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kahenya/duka/internal/metrics"
)

// Params select what the workbook covers.
type Params struct {
	Start       time.Time
	End         time.Time
	Bucket      metrics.Bucket
	ChurnAsOf   time.Time
	ChurnWindow time.Duration
}

// WriteWorkbook builds a workbook with Summary, Revenue, Inventory
// and Churn sheets and saves it to path.
func WriteWorkbook(ctx context.Context, db *sql.DB, path string, p Params) error {
	summary, err := metrics.BusinessSummary(ctx, db)
	if err != nil {
		return err
	}
	series, err := metrics.RevenueSeries(ctx, db, p.Start, p.End, p.Bucket)
	if err != nil {
		return err
	}
	byItem, err := metrics.RevenueByItem(ctx, db, p.Start, p.End)
	if err != nil {
		return err
	}
	inventory, err := metrics.InventorySnapshot(ctx, db)
	if err != nil {
		return err
	}
	churn, err := metrics.Churn(ctx, db, p.ChurnAsOf, p.ChurnWindow)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	// Summary sheet replaces the default one.
	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	summaryRows := [][]any{
		{"Total revenue", summary.TotalRevenue},
		{"Sales", summary.SaleCount},
		{"Average order value", summary.AvgOrderValue},
		{"Units sold", summary.TotalQuantity},
		{"Customers", summary.TotalCustomers},
		{"Gross profit", summary.GrossProfit},
		{"Profit margin", summary.ProfitMargin},
	}
	for i, row := range summaryRows {
		if err := f.SetSheetRow("Summary", fmt.Sprintf("A%d", i+1), &row); err != nil {
			return fmt.Errorf("writing summary row: %w", err)
		}
	}

	if err := addSheet(f, "Revenue", []any{"Bucket start", "Revenue"}, func(add func([]any) error) error {
		for point := range series {
			if err := add([]any{point.BucketStart.Format("2006-01-02"), point.Revenue}); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if err := addSheet(f, "Revenue by item", []any{"SKU", "Name", "Revenue", "Units"}, func(add func([]any) error) error {
		for _, ir := range byItem {
			if err := add([]any{ir.SKU, ir.Name, ir.Revenue, ir.Quantity}); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if err := addSheet(f, "Inventory", []any{"SKU", "Name", "On hand", "Unit cost", "Valuation"}, func(add func([]any) error) error {
		for _, iv := range inventory.Items {
			if err := add([]any{iv.SKU, iv.Name, iv.QuantityOnHand, iv.UnitCost, iv.Valuation}); err != nil {
				return err
			}
		}
		return add([]any{"", "Total", inventory.TotalUnits, "", inventory.TotalValue})
	}); err != nil {
		return err
	}

	if err := addSheet(f, "Churn", []any{"As of", "Window days", "Active", "Churned", "Never purchased", "Churn rate"}, func(add func([]any) error) error {
		return add([]any{
			churn.AsOf.Format("2006-01-02"),
			int(churn.Window.Hours() / 24),
			churn.Active, churn.Churned, churn.NeverPurchased, churn.Rate,
		})
	}); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

// addSheet creates a sheet with a header row and streams data rows
// into it.
func addSheet(f *excelize.File, name string, header []any, fill func(add func([]any) error) error) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("creating sheet %s: %w", name, err)
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("writing %s header: %w", name, err)
	}

	row := 1
	return fill(func(values []any) error {
		row++
		if err := f.SetSheetRow(name, fmt.Sprintf("A%d", row), &values); err != nil {
			return fmt.Errorf("writing %s row %d: %w", name, row, err)
		}
		return nil
	})
}
