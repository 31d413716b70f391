package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kahenya/duka/internal/csvimport"
	"github.com/kahenya/duka/internal/db"
	"github.com/kahenya/duka/internal/metrics"
	"github.com/kahenya/duka/internal/model"
	"github.com/kahenya/duka/internal/recorder"
	"github.com/kahenya/duka/internal/report"
	"github.com/kahenya/duka/internal/store"
)

const usage = "Usage: duka <init|item|customer|sale|adjust|reverse|report|export|import|seed>"

func main() {
	_ = godotenv.Load()
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	cmds := map[string]func([]string){
		"init":     cmdInit,
		"item":     cmdItem,
		"customer": cmdCustomer,
		"sale":     cmdSale,
		"adjust":   cmdAdjust,
		"reverse":  cmdReverse,
		"report":   cmdReport,
		"export":   cmdExport,
		"import":   cmdImport,
		"seed":     cmdSeed,
	}
	cmd, ok := cmds[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n%s\n", os.Args[1], usage)
		os.Exit(1)
	}
	cmd(os.Args[2:])
}

func defaultDBPath() string {
	if path := os.Getenv("DUKA_DB"); path != "" {
		return path
	}
	return "duka.sqlite3"
}

func defaultChurnWindow() time.Duration {
	if v := os.Getenv("DUKA_CHURN_WINDOW_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			return time.Duration(days) * 24 * time.Hour
		}
		log.Warn().Str("value", v).Msg("ignoring bad DUKA_CHURN_WINDOW_DAYS")
	}
	return metrics.DefaultChurnWindow
}

// openDB opens the database and applies the schema. Schema creation
// is idempotent, so every command can run it on startup.
func openDB(path string) *sql.DB {
	database, err := db.Open(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("opening database")
	}
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		log.Fatal().Err(err).Msg("creating schema")
	}
	return database
}

func dbFlag(fs *flag.FlagSet) *string {
	return fs.String("db", defaultDBPath(), "path to SQLite database file")
}

func cmdInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	dbPath := dbFlag(fs)
	fs.Parse(args)

	database := openDB(*dbPath)
	defer database.Close()
	log.Info().Str("path", *dbPath).Msg("database ready")
}

func cmdItem(args []string) {
	fs := flag.NewFlagSet("item", flag.ExitOnError)
	dbPath := dbFlag(fs)
	sku := fs.String("sku", "", "item SKU")
	name := fs.String("name", "", "item name")
	cost := fs.Float64("cost", 0, "unit cost")
	price := fs.Float64("price", 0, "unit price")
	stock := fs.Int("stock", 0, "quantity on hand")
	fs.Parse(args)

	database := openDB(*dbPath)
	defer database.Close()

	err := store.UpsertItem(context.Background(), database, &model.Item{
		SKU: *sku, Name: *name, UnitCost: *cost, UnitPrice: *price, QuantityOnHand: *stock,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("upserting item")
	}
	log.Info().Str("sku", *sku).Int("stock", *stock).Msg("item stored")
}

func cmdCustomer(args []string) {
	fs := flag.NewFlagSet("customer", flag.ExitOnError)
	dbPath := dbFlag(fs)
	id := fs.Int64("id", 0, "customer ID (0 to match by email)")
	name := fs.String("name", "", "customer name")
	email := fs.String("email", "", "customer email")
	phone := fs.String("phone", "", "customer phone")
	fs.Parse(args)

	database := openDB(*dbPath)
	defer database.Close()

	c, err := store.UpsertCustomer(context.Background(), database, &model.Customer{
		ID: *id, Name: *name, Email: *email, Phone: *phone,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("upserting customer")
	}
	log.Info().Int64("id", c.ID).Str("email", c.Email).Msg("customer stored")
}

func cmdSale(args []string) {
	fs := flag.NewFlagSet("sale", flag.ExitOnError)
	dbPath := dbFlag(fs)
	customerID := fs.Int64("customer", 0, "existing customer ID")
	name := fs.String("name", "", "customer name (upserted by email)")
	email := fs.String("email", "", "customer email")
	lines := fs.String("lines", "", "sale lines, e.g. A1:3 or A1:3:1500,B2:1")
	at := fs.String("at", "", "sale timestamp (2006-01-02 or RFC 3339, default now)")
	fs.Parse(args)

	saleLines, err := parseLines(*lines)
	if err != nil {
		log.Fatal().Err(err).Msg("parsing lines")
	}
	when, err := parseTimeFlag(*at)
	if err != nil {
		log.Fatal().Err(err).Msg("parsing timestamp")
	}

	database := openDB(*dbPath)
	defer database.Close()

	id, err := recorder.RecordSale(context.Background(), database,
		&model.Customer{ID: *customerID, Name: *name, Email: *email}, saleLines, when)
	if err != nil {
		log.Fatal().Err(err).Msg("recording sale")
	}
	log.Info().Str("sale", id).Msg("sale recorded")
}

func cmdAdjust(args []string) {
	fs := flag.NewFlagSet("adjust", flag.ExitOnError)
	dbPath := dbFlag(fs)
	sku := fs.String("sku", "", "item SKU")
	delta := fs.Int("delta", 0, "signed stock delta")
	reason := fs.String("reason", "", "adjustment reason")
	fs.Parse(args)

	database := openDB(*dbPath)
	defer database.Close()

	qty, err := recorder.AdjustInventory(context.Background(), database, *sku, *delta, *reason)
	if err != nil {
		log.Fatal().Err(err).Msg("adjusting inventory")
	}
	log.Info().Str("sku", *sku).Int("delta", *delta).Int("on_hand", qty).Msg("stock adjusted")
}

func cmdReverse(args []string) {
	fs := flag.NewFlagSet("reverse", flag.ExitOnError)
	dbPath := dbFlag(fs)
	saleID := fs.String("sale", "", "sale ID to reverse")
	fs.Parse(args)

	database := openDB(*dbPath)
	defer database.Close()

	id, err := recorder.ReverseSale(context.Background(), database, *saleID, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("reversing sale")
	}
	log.Info().Str("sale", *saleID).Str("reversal", id).Msg("sale reversed")
}

func cmdReport(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	dbPath := dbFlag(fs)
	kind := fs.String("kind", "summary", "report kind: summary, revenue, items, inventory or churn")
	start := fs.String("start", "", "period start (2006-01-02, default 90 days ago)")
	end := fs.String("end", "", "period end, exclusive (default now)")
	bucket := fs.String("bucket", "week", "revenue bucket width: day, week or month")
	window := fs.Int("window", 0, "churn inactivity window in days (default from env or 90)")
	fs.Parse(args)

	startAt, endAt, err := parsePeriod(*start, *end)
	if err != nil {
		log.Fatal().Err(err).Msg("parsing period")
	}
	churnWindow := defaultChurnWindow()
	if *window > 0 {
		churnWindow = time.Duration(*window) * 24 * time.Hour
	}

	database := openDB(*dbPath)
	defer database.Close()
	ctx := context.Background()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	switch *kind {
	case "summary":
		s, err := metrics.BusinessSummary(ctx, database)
		if err != nil {
			log.Fatal().Err(err).Msg("computing summary")
		}
		fmt.Fprintf(w, "Total revenue\t%.2f\n", s.TotalRevenue)
		fmt.Fprintf(w, "Sales\t%d\n", s.SaleCount)
		fmt.Fprintf(w, "Average order value\t%.2f\n", s.AvgOrderValue)
		fmt.Fprintf(w, "Units sold\t%d\n", s.TotalQuantity)
		fmt.Fprintf(w, "Customers\t%d\n", s.TotalCustomers)
		fmt.Fprintf(w, "Gross profit\t%.2f\n", s.GrossProfit)
		fmt.Fprintf(w, "Profit margin\t%.1f%%\n", s.ProfitMargin*100)

	case "revenue":
		b, err := metrics.ParseBucket(*bucket)
		if err != nil {
			log.Fatal().Err(err).Msg("parsing bucket")
		}
		series, err := metrics.RevenueSeries(ctx, database, startAt, endAt, b)
		if err != nil {
			log.Fatal().Err(err).Msg("computing revenue series")
		}
		fmt.Fprintf(w, "BUCKET\tREVENUE\n")
		for point := range series {
			fmt.Fprintf(w, "%s\t%.2f\n", point.BucketStart.Format("2006-01-02"), point.Revenue)
		}

	case "items":
		items, err := metrics.RevenueByItem(ctx, database, startAt, endAt)
		if err != nil {
			log.Fatal().Err(err).Msg("computing revenue by item")
		}
		fmt.Fprintf(w, "SKU\tNAME\tREVENUE\tUNITS\n")
		for _, ir := range items {
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%d\n", ir.SKU, ir.Name, ir.Revenue, ir.Quantity)
		}

	case "inventory":
		snap, err := metrics.InventorySnapshot(ctx, database)
		if err != nil {
			log.Fatal().Err(err).Msg("computing inventory snapshot")
		}
		fmt.Fprintf(w, "SKU\tNAME\tON HAND\tVALUATION\n")
		for _, iv := range snap.Items {
			fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\n", iv.SKU, iv.Name, iv.QuantityOnHand, iv.Valuation)
		}
		fmt.Fprintf(w, "\tTOTAL\t%d\t%.2f\n", snap.TotalUnits, snap.TotalValue)

	case "churn":
		c, err := metrics.Churn(ctx, database, time.Now(), churnWindow)
		if err != nil {
			log.Fatal().Err(err).Msg("computing churn")
		}
		fmt.Fprintf(w, "Window\t%d days\n", int(c.Window.Hours()/24))
		fmt.Fprintf(w, "Active\t%d\n", c.Active)
		fmt.Fprintf(w, "Churned\t%d\n", c.Churned)
		fmt.Fprintf(w, "Never purchased\t%d\n", c.NeverPurchased)
		fmt.Fprintf(w, "Churn rate\t%.1f%%\n", c.Rate*100)

	default:
		log.Fatal().Str("kind", *kind).Msg("unknown report kind")
	}
}

func cmdExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	dbPath := dbFlag(fs)
	out := fs.String("out", "duka-report.xlsx", "output workbook path")
	start := fs.String("start", "", "period start (2006-01-02, default 90 days ago)")
	end := fs.String("end", "", "period end, exclusive (default now)")
	bucket := fs.String("bucket", "week", "revenue bucket width: day, week or month")
	fs.Parse(args)

	startAt, endAt, err := parsePeriod(*start, *end)
	if err != nil {
		log.Fatal().Err(err).Msg("parsing period")
	}
	b, err := metrics.ParseBucket(*bucket)
	if err != nil {
		log.Fatal().Err(err).Msg("parsing bucket")
	}

	database := openDB(*dbPath)
	defer database.Close()

	err = report.WriteWorkbook(context.Background(), database, *out, report.Params{
		Start:       startAt,
		End:         endAt,
		Bucket:      b,
		ChurnAsOf:   time.Now(),
		ChurnWindow: defaultChurnWindow(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("exporting workbook")
	}
	log.Info().Str("path", *out).Msg("workbook written")
}

func cmdImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	dbPath := dbFlag(fs)
	kind := fs.String("kind", "", "csv kind: customers, items or sales")
	file := fs.String("file", "", "csv file path")
	fs.Parse(args)

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("opening csv")
	}
	defer f.Close()

	database := openDB(*dbPath)
	defer database.Close()
	ctx := context.Background()

	var result *csvimport.Result
	switch *kind {
	case "customers":
		result, err = csvimport.Customers(ctx, database, f)
	case "items":
		result, err = csvimport.Items(ctx, database, f)
	case "sales":
		result, err = csvimport.Sales(ctx, database, f)
	default:
		log.Fatal().Str("kind", *kind).Msg("unknown import kind")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("importing csv")
	}

	for _, rowErr := range result.Errors {
		log.Warn().Int("row", rowErr.Line).Err(rowErr.Err).Msg("row skipped")
	}
	log.Info().Int("imported", result.Imported).Int("skipped", len(result.Errors)).Msg("import finished")
}

// cmdSeed loads a small random data set for demos: four stocked
// items, ten customers and twelve weeks of sales.
func cmdSeed(args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	dbPath := dbFlag(fs)
	sales := fs.Int("sales", 120, "number of sales to generate")
	fs.Parse(args)

	database := openDB(*dbPath)
	defer database.Close()
	ctx := context.Background()

	items := []model.Item{
		{SKU: "PHN-1", Name: "Phone", UnitCost: 18000, UnitPrice: 26000, QuantityOnHand: 200},
		{SKU: "TAB-1", Name: "Tablet", UnitCost: 22000, UnitPrice: 31000, QuantityOnHand: 150},
		{SKU: "TV-1", Name: "TV", UnitCost: 30000, UnitPrice: 45000, QuantityOnHand: 100},
		{SKU: "APP-1", Name: "Appliance", UnitCost: 8000, UnitPrice: 12500, QuantityOnHand: 300},
	}
	for i := range items {
		if err := store.UpsertItem(ctx, database, &items[i]); err != nil {
			log.Fatal().Err(err).Str("sku", items[i].SKU).Msg("seeding item")
		}
	}

	customerIDs := make([]int64, 0, 10)
	for i := 1; i <= 10; i++ {
		c, err := store.UpsertCustomer(ctx, database, &model.Customer{
			Name:  fmt.Sprintf("Customer %d", i),
			Email: fmt.Sprintf("customer%d@example.com", i),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("seeding customer")
		}
		customerIDs = append(customerIDs, c.ID)
	}

	now := time.Now()
	recorded := 0
	for i := 0; i < *sales; i++ {
		item := items[rand.IntN(len(items))]
		lines := []recorder.Line{{SKU: item.SKU, Quantity: 1 + rand.IntN(5)}}
		at := now.Add(-time.Duration(rand.IntN(12*7*24)) * time.Hour)
		customer := &model.Customer{ID: customerIDs[rand.IntN(len(customerIDs))]}

		if _, err := recorder.RecordSale(ctx, database, customer, lines, at); err != nil {
			log.Warn().Err(err).Str("sku", item.SKU).Msg("seed sale skipped")
			continue
		}
		recorded++
	}
	log.Info().Int("sales", recorded).Msg("seed data loaded")
}

// parseLines parses "SKU:QTY[:PRICE]" entries separated by commas.
func parseLines(s string) ([]recorder.Line, error) {
	if strings.TrimSpace(s) == "" {
		return nil, model.Validationf("at least one -lines entry is required")
	}

	var lines []recorder.Line
	for _, entry := range strings.Split(s, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, model.Validationf("bad line %q, want SKU:QTY or SKU:QTY:PRICE", entry)
		}
		qty, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, model.Validationf("bad quantity in %q", entry)
		}
		line := recorder.Line{SKU: parts[0], Quantity: qty}
		if len(parts) == 3 {
			price, err := strconv.ParseFloat(parts[2], 64)
			if err != nil {
				return nil, model.Validationf("bad price in %q", entry)
			}
			line.UnitPrice = price
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func parseTimeFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, model.Validationf("bad timestamp %q", s)
}

func parsePeriod(start, end string) (time.Time, time.Time, error) {
	endAt := time.Now()
	if end != "" {
		t, err := parseTimeFlag(end)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		endAt = t
	}
	startAt := endAt.AddDate(0, 0, -90)
	if start != "" {
		t, err := parseTimeFlag(start)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		startAt = t
	}
	if !startAt.Before(endAt) {
		return time.Time{}, time.Time{}, model.Validationf("period start must be before end")
	}
	return startAt, endAt, nil
}
