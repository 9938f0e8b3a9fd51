// test/helpers/helpers.go
package helpers

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/tindahan-be/internal/adapters/db"
	"github.com/ammerola/tindahan-be/internal/core/domain"
	"github.com/ammerola/tindahan-be/internal/pkg/config"
)

// TestDB represents a test database instance
type TestDB struct {
	PgxPool  *pgxpool.Pool
	Database *db.Database
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestRedis represents a test Redis instance
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	if testing.Verbose() {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// SetupTestDB creates a PostgreSQL container for integration tests
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not connect to Docker")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test_tindahan",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start PostgreSQL container")

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Could not purge resource: %s", err)
		}
	})

	dbConfig := &db.Config{
		Host:               "localhost",
		Port:               resource.GetPort("5432/tcp"),
		User:               "test",
		Password:           "test",
		Database:           "test_tindahan",
		SSLMode:            "disable",
		MaxConnections:     5,
		MinConnections:     1,
		MaxConnLifetime:    time.Hour,
		MaxConnIdleTime:    time.Minute * 30,
		HealthCheckPeriod:  time.Minute,
		ConnectTimeout:     time.Second * 10,
		StatementCacheMode: "describe",
		EnableQueryLogging: testing.Verbose(),
	}

	// Wait for database to be ready
	var database *db.Database
	err = pool.Retry(func() error {
		ctx := context.Background()
		var err error
		database, err = db.NewDatabase(ctx, dbConfig, TestLogger())
		if err != nil {
			return err
		}
		return database.Ping(ctx)
	})
	require.NoError(t, err, "Could not connect to PostgreSQL")

	ctx := context.Background()
	migrationConfig := &db.MigrationConfig{
		DatabaseURL: fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
			dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port,
			dbConfig.Database, dbConfig.SSLMode),
		TableName:  "schema_migrations",
		SchemaName: "public",
	}

	err = db.RunMigrationsWithRetry(ctx, migrationConfig, TestLogger(), 3)
	require.NoError(t, err, "Could not run migrations")

	return &TestDB{
		PgxPool:  database.Pool(),
		Database: database,
		Resource: resource,
		Pool:     pool,
		Config:   dbConfig,
	}
}

// SetupTestRedis creates a mock Redis instance for testing
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return &TestRedis{
		Client: client,
		Server: mr,
	}
}

// SetupMockDB creates a mock database for unit testing
func SetupMockDB(t *testing.T) (sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create mock DB")

	t.Cleanup(func() {
		db.Close()
	})

	return mock, db
}

// LoadTestConfig returns a test configuration
func LoadTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "test-api",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
			Debug:       true,
		},
		Database: config.DatabaseConfig{
			Host:               "localhost",
			Port:               "5432",
			User:               "test",
			Password:           "test",
			Name:               "test_tindahan",
			SSLMode:            "disable",
			MaxConnections:     10,
			MinConnections:     2,
			EnableQueryLogging: true,
		},
		Redis: config.RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			DB:       0,
			TTL:      time.Hour,
			PoolSize: 10,
		},
		POS: config.POSConfig{
			TaxRate:           "0.12",
			ScanRetentionDays: 90,
			DefaultPageSize:   20,
			MaxPageSize:       100,
		},
		Export: config.ExportConfig{
			Dir:          os.TempDir(),
			Timeout:      5 * time.Minute,
			StatusKeyTTL: time.Hour,
		},
		Security: config.SecurityConfig{
			JWTSecret:         "test-secret",
			JWTExpiration:     24 * time.Hour,
			RateLimitRequests: 100,
			RateLimitDuration: time.Minute,
			AllowedOrigins:    []string{"*"},
		},
		Server: config.ServerConfig{
			Host:         "localhost",
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
	}
}

// CreateTestProduct creates a test catalog product
func CreateTestProduct(overrides ...func(*domain.Product)) *domain.Product {
	product := &domain.Product{
		ID:                uuid.New(),
		Barcode:           fmt.Sprintf("4800%09d", time.Now().UnixNano()%1_000_000_000),
		Name:              "Test Pancit Canton 60g",
		Description:       "Instant noodles, original flavor",
		Category:          domain.CategoryInstant,
		UnitPrice:         decimal.NewFromFloat(15.00),
		StockQuantity:     50,
		LowStockThreshold: 10,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}

	for _, override := range overrides {
		override(product)
	}

	return product
}

// CreateTestBatch creates a test inventory batch for a product
func CreateTestBatch(productID uuid.UUID, overrides ...func(*domain.InventoryBatch)) *domain.InventoryBatch {
	expiry := time.Now().AddDate(0, 6, 0)
	batch := &domain.InventoryBatch{
		ID:          uuid.New(),
		ProductID:   productID,
		Quantity:    50,
		BatchNumber: fmt.Sprintf("BATCH-%d", time.Now().UnixNano()%100000),
		ExpiryDate:  &expiry,
		Location:    "main shelf",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	for _, override := range overrides {
		override(batch)
	}

	return batch
}

// CreateTestSale creates a completed test sale with one line item
func CreateTestSale(overrides ...func(*domain.Sale)) *domain.Sale {
	saleID := uuid.New()
	productID := uuid.New()
	now := time.Now()

	sale := &domain.Sale{
		ID:                saleID,
		TransactionNumber: fmt.Sprintf("TXN-%s-%05d", now.Format("20060102"), now.UnixNano()%10000),
		CashierID:         uuid.New(),
		Subtotal:          decimal.NewFromFloat(45.00),
		Discount:          decimal.Zero,
		Tax:               decimal.NewFromFloat(5.40),
		TotalAmount:       decimal.NewFromFloat(50.40),
		PaymentMethod:     domain.PaymentCash,
		PaymentReceived:   decimal.NewFromFloat(100.00),
		ChangeGiven:       decimal.NewFromFloat(49.60),
		Status:            domain.SaleCompleted,
		Items: []domain.SaleItem{
			{
				ID:          uuid.New(),
				SaleID:      saleID,
				ProductID:   productID,
				ProductName: "Test Pancit Canton 60g",
				Quantity:    3,
				UnitPrice:   decimal.NewFromFloat(15.00),
				TotalPrice:  decimal.NewFromFloat(45.00),
				Discount:    decimal.Zero,
				CreatedAt:   now,
			},
		},
		CreatedAt: now,
	}

	for _, override := range overrides {
		override(sale)
	}

	return sale
}

// CreateTestCart builds a single-line cart for the given product
func CreateTestCart(productID uuid.UUID, quantity int) []domain.CartLine {
	return []domain.CartLine{
		{ProductID: productID, Quantity: quantity},
	}
}

// TruncateAllTables truncates all tables in the test database
func TruncateAllTables(t *testing.T, db *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()
	tables := []string{
		"product_scans",
		"sale_items",
		"sales",
		"sale_counters",
		"inventory_batches",
		"products",
	}

	for _, table := range tables {
		_, err := db.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, "Failed to truncate table: %s", table)
	}
}

// SeedTestProducts inserts products directly, bypassing the service layer
func SeedTestProducts(t *testing.T, db *pgxpool.Pool, products []*domain.Product) {
	t.Helper()

	ctx := context.Background()

	for _, p := range products {
		query := `
			INSERT INTO products (
				id, barcode, name, description, category,
				unit_price, wholesale_price, stock_quantity, low_stock_threshold,
				store_id, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`

		var barcode *string
		if p.Barcode != "" {
			barcode = &p.Barcode
		}

		_, err := db.Exec(ctx, query,
			p.ID, barcode, p.Name, p.Description, p.Category,
			p.UnitPrice, p.WholesalePrice, p.StockQuantity, p.LowStockThreshold,
			p.StoreID, p.CreatedAt, p.UpdatedAt,
		)
		require.NoError(t, err, "Failed to seed test product")
	}
}

// SeedTestBatches inserts inventory batches directly
func SeedTestBatches(t *testing.T, db *pgxpool.Pool, batches []*domain.InventoryBatch) {
	t.Helper()

	ctx := context.Background()

	for _, b := range batches {
		query := `
			INSERT INTO inventory_batches (
				id, product_id, quantity, batch_number, expiry_date,
				location, store_id, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`

		_, err := db.Exec(ctx, query,
			b.ID, b.ProductID, b.Quantity, b.BatchNumber, b.ExpiryDate,
			b.Location, b.StoreID, b.CreatedAt, b.UpdatedAt,
		)
		require.NoError(t, err, "Failed to seed test batch")
	}
}

// GetStockQuantity reads the current stock counter for a product
func GetStockQuantity(t *testing.T, db *pgxpool.Pool, productID uuid.UUID) int {
	t.Helper()

	var stock int
	err := db.QueryRow(context.Background(),
		`SELECT stock_quantity FROM products WHERE id = $1`, productID).Scan(&stock)
	require.NoError(t, err, "Failed to read stock quantity")
	return stock
}

// AssertEventuallyWithTimeout asserts that a condition is met within a timeout
func AssertEventuallyWithTimeout(t *testing.T, condition func() bool, timeout time.Duration, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Errorf("Condition not met within %v: %s", timeout, msg)
}
