// Package csvimport loads customers, items and sales from CSV files.
// Every row goes through the regular storage and recorder paths, so
// imported data obeys the same invariants as interactive writes.
// Row failures are collected, not fatal: one bad row never blocks the
// rest of the file.
package csvimport

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kahenya/duka/internal/model"
	"github.com/kahenya/duka/internal/recorder"
	"github.com/kahenya/duka/internal/store"
)

// RowError is a failed CSV row with its 1-based line number.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Line, e.Err) }

// Result summarizes one import run.
type Result struct {
	Imported int
	Errors   []RowError
}

// Customers imports rows of the form: name,email,phone.
func Customers(ctx context.Context, db *sql.DB, r io.Reader) (*Result, error) {
	return importRows(r, 2, func(line int, record []string) error {
		c := &model.Customer{Name: record[0], Email: record[1]}
		if len(record) > 2 {
			c.Phone = record[2]
		}
		_, err := store.UpsertCustomer(ctx, db, c)
		return err
	})
}

// Items imports rows of the form: sku,name,unit_cost,unit_price,stock.
func Items(ctx context.Context, db *sql.DB, r io.Reader) (*Result, error) {
	return importRows(r, 5, func(line int, record []string) error {
		cost, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return model.Validationf("bad unit_cost %q", record[2])
		}
		price, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return model.Validationf("bad unit_price %q", record[3])
		}
		stock, err := strconv.Atoi(record[4])
		if err != nil {
			return model.Validationf("bad stock %q", record[4])
		}
		return store.UpsertItem(ctx, db, &model.Item{
			SKU:            record[0],
			Name:           record[1],
			UnitCost:       cost,
			UnitPrice:      price,
			QuantityOnHand: stock,
		})
	})
}

// Sales imports rows of the form: sku,quantity,unit_price,customer_id
// with an optional fifth occurred_at column (2006-01-02 or RFC 3339).
// A zero unit_price takes the item's current price.
func Sales(ctx context.Context, db *sql.DB, r io.Reader) (*Result, error) {
	return importRows(r, 4, func(line int, record []string) error {
		qty, err := strconv.Atoi(record[1])
		if err != nil {
			return model.Validationf("bad quantity %q", record[1])
		}
		price, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return model.Validationf("bad unit_price %q", record[2])
		}
		customerID, err := strconv.ParseInt(record[3], 10, 64)
		if err != nil {
			return model.Validationf("bad customer_id %q", record[3])
		}

		var at time.Time
		if len(record) > 4 && record[4] != "" {
			at, err = parseTime(record[4])
			if err != nil {
				return err
			}
		}

		_, err = recorder.RecordSale(ctx, db, &model.Customer{ID: customerID},
			[]recorder.Line{{SKU: record[0], Quantity: qty, UnitPrice: price}}, at)
		return err
	})
}

func importRows(r io.Reader, minFields int, apply func(line int, record []string) error) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	result := &Result{}
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return result, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		line++

		// Skip the header row.
		if line == 1 && looksLikeHeader(record) {
			continue
		}
		if len(record) < minFields {
			result.Errors = append(result.Errors, RowError{Line: line, Err: model.Validationf("want at least %d fields, got %d", minFields, len(record))})
			continue
		}

		if err := apply(line, record); err != nil {
			result.Errors = append(result.Errors, RowError{Line: line, Err: err})
			continue
		}
		result.Imported++
	}
}

func looksLikeHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(record[0])) {
	case "sku", "name", "product":
		return true
	}
	return false
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, model.Validationf("bad timestamp %q", s)
}
