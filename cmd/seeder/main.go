package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/tindahan-be/internal/core/domain"
	"github.com/ammerola/tindahan-be/internal/handlers/middleware"
	"github.com/ammerola/tindahan-be/internal/pkg/config"
	"github.com/ammerola/tindahan-be/internal/pkg/logger"
)

// SeedProduct is one catalog row to insert, with an optional opening batch.
type SeedProduct struct {
	Barcode           string
	Name              string
	Description       string
	Category          domain.ProductCategory
	UnitPrice         decimal.Decimal
	WholesalePrice    *decimal.Decimal
	StockQuantity     int
	LowStockThreshold int
	ShelfLifeDays     int // 0 means non-perishable, no expiry on the batch
}

// CategoryClassifier assigns a category from product name keywords when the
// catalog file leaves the category column blank.
type CategoryClassifier struct {
	keywords map[domain.ProductCategory][]string
}

func NewCategoryClassifier() *CategoryClassifier {
	return &CategoryClassifier{
		keywords: map[domain.ProductCategory][]string{
			domain.CategoryBeverages: {"cola", "soda", "juice", "c2", "coke", "pepsi", "sting",
				"kopiko", "coffee", "milo", "water", "gulaman", "zest-o", "chuckie"},
			domain.CategoryCanned: {"sardines", "corned beef", "tuna", "meat loaf", "spam",
				"ligo", "argentina", "555", "century", "canned"},
			domain.CategoryCondiments: {"soy sauce", "toyo", "vinegar", "suka", "patis",
				"fish sauce", "bagoong", "ketchup", "magic sarap", "seasoning", "ajinomoto"},
			domain.CategoryDairy: {"milk", "gatas", "cheese", "keso", "yogurt", "bear brand",
				"alaska", "condensada", "evaporada"},
			domain.CategoryFrozen: {"ice", "frozen", "hotdog", "tocino", "longganisa"},
			domain.CategoryHousehold: {"detergent", "sabon", "bleach", "zonrox", "dishwashing",
				"surf", "tide", "ariel", "downy", "mosquito", "katol", "candle", "lighter"},
			domain.CategoryInstant: {"pancit canton", "noodles", "lucky me", "payless",
				"mami", "instant", "cup noodles", "nissin"},
			domain.CategoryPersonal: {"shampoo", "toothpaste", "colgate", "safeguard",
				"soap", "deodorant", "rexona", "lotion", "sanitary", "diaper", "tissue"},
			domain.CategoryRice:   {"rice", "bigas", "sinandomeng", "dinorado", "grains", "mais"},
			domain.CategorySnacks: {"chips", "chichirya", "piattos", "nova", "skyflakes",
				"biscuit", "cracker", "candy", "chocolate", "mani", "cornick", "boy bawang"},
			domain.CategoryTobacco: {"cigarette", "yosi", "marlboro", "fortune", "mighty", "winston"},
			domain.CategoryLoad:    {"load", "globe", "smart", "tnt", "tm", "dito", "e-load"},
		},
	}
}

func (c *CategoryClassifier) Classify(text string) domain.ProductCategory {
	textLower := strings.ToLower(text)

	best := domain.CategoryOther
	maxScore := 0
	for category, words := range c.keywords {
		score := 0
		for _, kw := range words {
			if strings.Contains(textLower, kw) {
				score++
			}
		}
		if score > maxScore {
			best = category
			maxScore = score
		}
	}
	return best
}

// demoCatalog is the built-in sari-sari starter catalog used when no
// catalog file is supplied.
func demoCatalog() []SeedProduct {
	php := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }
	wholesale := func(s string) *decimal.Decimal {
		d := php(s)
		return &d
	}

	return []SeedProduct{
		{Barcode: "4800016644931", Name: "Lucky Me Pancit Canton Original 60g", Category: domain.CategoryInstant,
			UnitPrice: php("15.00"), WholesalePrice: wholesale("13.50"), StockQuantity: 120, LowStockThreshold: 24, ShelfLifeDays: 240},
		{Barcode: "4800016051688", Name: "Lucky Me Beef Mami 55g", Category: domain.CategoryInstant,
			UnitPrice: php("14.00"), WholesalePrice: wholesale("12.50"), StockQuantity: 80, LowStockThreshold: 20, ShelfLifeDays: 240},
		{Barcode: "4800361413480", Name: "C2 Apple Green Tea 355ml", Category: domain.CategoryBeverages,
			UnitPrice: php("25.00"), WholesalePrice: wholesale("22.00"), StockQuantity: 60, LowStockThreshold: 12, ShelfLifeDays: 365},
		{Barcode: "4800092551154", Name: "Kopiko Blanca Twin Pack 50g", Category: domain.CategoryBeverages,
			UnitPrice: php("12.00"), StockQuantity: 150, LowStockThreshold: 30, ShelfLifeDays: 540},
		{Barcode: "4800194116710", Name: "Skyflakes Crackers 25g", Category: domain.CategorySnacks,
			UnitPrice: php("8.00"), WholesalePrice: wholesale("7.00"), StockQuantity: 200, LowStockThreshold: 40, ShelfLifeDays: 180},
		{Barcode: "4800361334013", Name: "Piattos Cheese 85g", Category: domain.CategorySnacks,
			UnitPrice: php("42.00"), StockQuantity: 35, LowStockThreshold: 10, ShelfLifeDays: 150},
		{Barcode: "4902430583848", Name: "Safeguard Pure White 85g", Category: domain.CategoryPersonal,
			UnitPrice: php("38.00"), WholesalePrice: wholesale("34.00"), StockQuantity: 48, LowStockThreshold: 12},
		{Barcode: "4800888136663", Name: "Surf Powder Detergent Kalamansi 65g", Category: domain.CategoryHousehold,
			UnitPrice: php("9.00"), StockQuantity: 180, LowStockThreshold: 36},
		{Barcode: "4800024574305", Name: "Ligo Sardines in Tomato Sauce 155g", Category: domain.CategoryCanned,
			UnitPrice: php("26.00"), WholesalePrice: wholesale("23.50"), StockQuantity: 72, LowStockThreshold: 18, ShelfLifeDays: 720},
		{Barcode: "4800024568014", Name: "Argentina Corned Beef 150g", Category: domain.CategoryCanned,
			UnitPrice: php("44.00"), StockQuantity: 40, LowStockThreshold: 10, ShelfLifeDays: 720},
		{Barcode: "4800010521016", Name: "Datu Puti Soy Sauce 200ml", Category: domain.CategoryCondiments,
			UnitPrice: php("16.00"), StockQuantity: 50, LowStockThreshold: 10, ShelfLifeDays: 540},
		{Barcode: "4800010111016", Name: "Datu Puti Vinegar 200ml", Category: domain.CategoryCondiments,
			UnitPrice: php("15.00"), StockQuantity: 50, LowStockThreshold: 10, ShelfLifeDays: 540},
		{Barcode: "4800361054041", Name: "Bear Brand Fortified Powdered Milk 33g", Category: domain.CategoryDairy,
			UnitPrice: php("13.00"), WholesalePrice: wholesale("11.75"), StockQuantity: 90, LowStockThreshold: 20, ShelfLifeDays: 365},
		{Barcode: "4800361009843", Name: "Alaska Evaporada 370ml", Category: domain.CategoryDairy,
			UnitPrice: php("39.00"), StockQuantity: 24, LowStockThreshold: 6, ShelfLifeDays: 365},
		{Barcode: "", Name: "Sinandomeng Rice per kilo", Category: domain.CategoryRice,
			UnitPrice: php("52.00"), StockQuantity: 100, LowStockThreshold: 25},
		{Barcode: "", Name: "Globe Regular Load 20", Category: domain.CategoryLoad,
			UnitPrice: php("21.00"), StockQuantity: 500, LowStockThreshold: 50},
		{Barcode: "", Name: "Smart Regular Load 20", Category: domain.CategoryLoad,
			UnitPrice: php("21.00"), StockQuantity: 500, LowStockThreshold: 50},
		{Barcode: "4800092220017", Name: "Boy Bawang Cornick Garlic 100g", Category: domain.CategorySnacks,
			UnitPrice: php("28.00"), StockQuantity: 45, LowStockThreshold: 12, ShelfLifeDays: 180},
		{Barcode: "4800047862013", Name: "Zonrox Original 250ml", Category: domain.CategoryHousehold,
			UnitPrice: php("18.00"), StockQuantity: 30, LowStockThreshold: 8},
		{Barcode: "8998866200578", Name: "Milo Activ-Go Sachet 24g", Category: domain.CategoryBeverages,
			UnitPrice: php("12.00"), WholesalePrice: wholesale("10.80"), StockQuantity: 160, LowStockThreshold: 32, ShelfLifeDays: 365},
	}
}

// loadCatalogFile reads products from an Excel catalog. Expected columns:
// barcode, name, description, category, unit_price, wholesale_price,
// stock_quantity, low_stock_threshold, shelf_life_days. Blank categories
// are classified from the name.
func loadCatalogFile(path string, classifier *CategoryClassifier, slogger *slog.Logger) ([]SeedProduct, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	if len(file.Sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in catalog file")
	}
	sheet := file.Sheets[0]

	var products []SeedProduct
	rowIdx := 0
	err = sheet.ForEachRow(func(r *xlsx.Row) error {
		// Skip header
		if rowIdx == 0 {
			rowIdx++
			return nil
		}
		rowIdx++

		get := func(i int) string {
			c := r.GetCell(i)
			if c == nil {
				return ""
			}
			if s, err := c.FormattedValue(); err == nil {
				return strings.TrimSpace(s)
			}
			return strings.TrimSpace(c.String())
		}

		name := get(1)
		if name == "" {
			return nil
		}

		price, err := decimal.NewFromString(get(4))
		if err != nil {
			slogger.Warn("skipping row with invalid unit price",
				slog.Int("row", rowIdx),
				slog.String("name", name))
			return nil
		}

		category := domain.ProductCategory(get(3))
		if category == "" {
			category = classifier.Classify(name)
		}

		var wholesale *decimal.Decimal
		if w, err := decimal.NewFromString(get(5)); err == nil {
			wholesale = &w
		}

		stock, _ := strconv.Atoi(get(6))
		threshold, _ := strconv.Atoi(get(7))
		if threshold <= 0 {
			threshold = 10
		}
		shelfLife, _ := strconv.Atoi(get(8))

		products = append(products, SeedProduct{
			Barcode:           get(0),
			Name:              name,
			Description:       get(2),
			Category:          category,
			UnitPrice:         price,
			WholesalePrice:    wholesale,
			StockQuantity:     stock,
			LowStockThreshold: threshold,
			ShelfLifeDays:     shelfLife,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	slogger.Info("loaded catalog file",
		slog.String("file", path),
		slog.Int("products", len(products)))
	return products, nil
}

// Seeder writes products and opening inventory batches.
type Seeder struct {
	db      *pgxpool.Pool
	storeID uuid.UUID
	logger  *slog.Logger
}

func NewSeeder(db *pgxpool.Pool, storeID uuid.UUID, slogger *slog.Logger) *Seeder {
	return &Seeder{db: db, storeID: storeID, logger: slogger}
}

// existingBarcodes returns the set of seed barcodes already in the catalog,
// so reruns do not duplicate products.
func (s *Seeder) existingBarcodes(ctx context.Context, products []SeedProduct) (map[string]bool, error) {
	barcodes := make([]string, 0, len(products))
	for _, p := range products {
		if p.Barcode != "" {
			barcodes = append(barcodes, p.Barcode)
		}
	}

	existing := make(map[string]bool)
	if len(barcodes) == 0 {
		return existing, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT barcode FROM products WHERE barcode = ANY($1) AND deleted_at IS NULL`, barcodes)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing barcodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("failed to scan barcode: %w", err)
		}
		existing[b] = true
	}
	return existing, rows.Err()
}

// SeedProducts inserts the catalog and one opening batch per product that
// has stock. Products whose barcode already exists are skipped.
func (s *Seeder) SeedProducts(ctx context.Context, products []SeedProduct, withBatches bool) (int, int, error) {
	existing, err := s.existingBarcodes(ctx, products)
	if err != nil {
		return 0, 0, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	inserted := 0
	batchRows := 0
	now := time.Now()

	for _, p := range products {
		if p.Barcode != "" && existing[p.Barcode] {
			s.logger.Debug("skipping existing product",
				slog.String("barcode", p.Barcode),
				slog.String("name", p.Name))
			continue
		}

		productID := uuid.New()
		var barcode *string
		if p.Barcode != "" {
			barcode = &p.Barcode
		}

		batch.Queue(`
			INSERT INTO products (
				id, barcode, name, description, category,
				unit_price, wholesale_price, stock_quantity, low_stock_threshold, store_id
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO NOTHING`,
			productID, barcode, p.Name, p.Description, p.Category,
			p.UnitPrice, p.WholesalePrice, p.StockQuantity, p.LowStockThreshold, s.storeID,
		)
		inserted++

		if withBatches && p.StockQuantity > 0 {
			var expiry *time.Time
			if p.ShelfLifeDays > 0 {
				e := now.AddDate(0, 0, p.ShelfLifeDays)
				expiry = &e
			}
			batchNumber := fmt.Sprintf("SEED-%s", now.Format("20060102"))

			batch.Queue(`
				INSERT INTO inventory_batches (
					id, product_id, quantity, batch_number, expiry_date, location, store_id
				) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				uuid.New(), productID, p.StockQuantity, batchNumber, expiry, "main shelf", s.storeID,
			)
			batchRows++
		}
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, 0, fmt.Errorf("failed to insert row: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return 0, 0, fmt.Errorf("failed to close batch results: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("seeded catalog",
		slog.Int("products", inserted),
		slog.Int("batches", batchRows))
	return inserted, batchRows, nil
}

func main() {
	var (
		catalogFile = flag.String("catalog", "", "Excel catalog to load instead of the built-in demo catalog")
		storeIDFlag = flag.String("store", "", "Store UUID to scope seeded rows to (random if empty)")
		dryRun      = flag.Bool("dry-run", false, "Preview the catalog without modifying the database")
		noBatches   = flag.Bool("no-batches", false, "Skip creating opening inventory batches")
		printToken  = flag.Bool("token", true, "Print a development owner JWT for the seeded store")
	)
	flag.Parse()

	slogger := logger.SetupLogger("info", "json")

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)

	storeID := uuid.New()
	if *storeIDFlag != "" {
		storeID, err = uuid.Parse(*storeIDFlag)
		if err != nil {
			slogger.Error("invalid store id", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	classifier := NewCategoryClassifier()

	var products []SeedProduct
	if *catalogFile != "" {
		products, err = loadCatalogFile(*catalogFile, classifier, slogger)
		if err != nil {
			slogger.Error("failed to load catalog", slog.String("error", err.Error()))
			os.Exit(1)
		}
	} else {
		products = demoCatalog()
		slogger.Info("using built-in demo catalog", slog.Int("products", len(products)))
	}

	if len(products) == 0 {
		slogger.Warn("catalog is empty, nothing to seed")
		return
	}

	if *dryRun {
		fmt.Println(strings.Repeat("=", 60))
		fmt.Printf("DRY RUN: %d products for store %s\n", len(products), storeID)
		fmt.Println(strings.Repeat("=", 60))
		for _, p := range products {
			fmt.Printf("  %-14s %-45s %-16s PHP %s x %d\n",
				p.Barcode, p.Name, p.Category, p.UnitPrice.StringFixed(2), p.StockQuantity)
		}
		fmt.Println("\n[DRY RUN] No changes were made to the database")
		return
	}

	ctx := context.Background()

	dbURL := fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User, cfg.Database.Password,
		cfg.Database.Host, cfg.Database.Port,
		cfg.Database.Name, cfg.Database.SSLMode,
	)

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		slogger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	seeder := NewSeeder(pool, storeID, slogger)
	inserted, batches, err := seeder.SeedProducts(ctx, products, !*noBatches)
	if err != nil {
		slogger.Error("seed operation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("SEEDING SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Store ID:          %s\n", storeID)
	fmt.Printf("Products Inserted: %d\n", inserted)
	fmt.Printf("Opening Batches:   %d\n", batches)

	if *printToken {
		token, err := middleware.IssueToken(
			cfg.Security.JWTSecret, uuid.New(), middleware.RoleOwner, &storeID, 24*time.Hour)
		if err != nil {
			slogger.Warn("failed to issue development token", slog.String("error", err.Error()))
		} else {
			fmt.Printf("\nDevelopment owner token (valid 24h):\n%s\n", token)
		}
	}

	slogger.Info("seed operation completed",
		slog.String("store_id", storeID.String()),
		slog.Int("products", inserted),
		slog.Int("batches", batches))
}
