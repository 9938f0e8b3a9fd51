// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/ammerola/tindahan-be/internal/adapters/db"
	redis_a "github.com/ammerola/tindahan-be/internal/adapters/redis_adapter"
	"github.com/ammerola/tindahan-be/internal/core/ports"
	"github.com/ammerola/tindahan-be/internal/core/services"
	"github.com/ammerola/tindahan-be/internal/handlers"
	"github.com/ammerola/tindahan-be/internal/handlers/middleware"
	"github.com/ammerola/tindahan-be/internal/pkg/config"
	"github.com/ammerola/tindahan-be/internal/pkg/logger"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	slogger := logger.SetupLogger("debug", "json")

	slogger.Info("starting tindahan point of sale backend",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
	)

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
	)

	ctx := context.Background()

	if err := runMigrations(ctx, cfg, slogger); err != nil {
		slogger.Error("failed to run migrations", slog.String("error", err.Error()))
		if cfg.IsProduction() {
			os.Exit(1)
		}
	}

	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	server := setupHTTPServer(cfg, deps, slogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server",
			slog.String("address", cfg.GetServerAddress()))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds all application dependencies
type dependencies struct {
	database       *db.Database
	redisClient    *redis.Client
	redisCache     ports.CacheRepository
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector

	productHandler   *handlers.ProductHandler
	salesHandler     *handlers.SalesHandler
	inventoryHandler *handlers.InventoryHandler
	scannerHandler   *handlers.ScannerHandler
	dashboardHandler *handlers.DashboardHandler
	exportHandler    *handlers.ExportHandler
	healthHandler    *handlers.HealthHandler
}

func (d *dependencies) cleanup() {
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.database != nil {
		d.database.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, slogger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	slogger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		StatementCacheMode: cfg.Database.StatementCacheMode,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}, slogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.database = database

	slogger.Info("connecting to Redis",
		slog.String("host", cfg.Redis.Host),
		slog.String("port", cfg.Redis.Port),
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:            fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		MaxRetries:      cfg.Redis.MaxRetries,
		MinRetryBackoff: cfg.Redis.MinRetryBackoff,
		MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		DialTimeout:     cfg.Redis.DialTimeout,
		ReadTimeout:     cfg.Redis.ReadTimeout,
		WriteTimeout:    cfg.Redis.WriteTimeout,
		PoolSize:        cfg.Redis.PoolSize,
		MinIdleConns:    cfg.Redis.MinIdleConns,
		PoolTimeout:     cfg.Redis.PoolTimeout,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	deps.redisClient = redisClient

	deps.redisCache = redis_a.NewCache(redisClient, cfg.Redis.TTL, slogger)

	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}
	deps.asynqClient = asynq.NewClient(asynqRedisOpt)
	deps.asynqInspector = asynq.NewInspector(asynqRedisOpt)

	// Repositories
	productRepo := db.NewProductRepository(database, slogger)
	saleRepo := db.NewSaleRepository(database, slogger)
	batchRepo := db.NewBatchRepository(database, slogger)
	scanRepo := db.NewScanRepository(database, slogger)

	// Services
	taxRate, err := decimal.NewFromString(cfg.POS.TaxRate)
	if err != nil {
		return nil, fmt.Errorf("invalid tax rate %q: %w", cfg.POS.TaxRate, err)
	}

	catalogService := services.NewCatalogService(productRepo, slogger)
	salesService := services.NewSalesService(database, productRepo, saleRepo,
		deps.redisCache, deps.asynqClient, taxRate, slogger)
	inventoryService := services.NewInventoryService(database, productRepo, batchRepo, slogger)
	scannerService := services.NewScannerService(catalogService, salesService, scanRepo, slogger)

	// Handlers
	deps.productHandler = handlers.NewProductHandler(catalogService, deps.redisCache, slogger)
	deps.salesHandler = handlers.NewSalesHandler(salesService, slogger)
	deps.inventoryHandler = handlers.NewInventoryHandler(inventoryService, slogger)
	deps.scannerHandler = handlers.NewScannerHandler(scannerService, slogger)
	deps.dashboardHandler = handlers.NewDashboardHandler(database, deps.redisCache, slogger)
	deps.exportHandler = handlers.NewExportHandler(database, deps.redisCache, deps.asynqClient, cfg, slogger)
	deps.healthHandler = handlers.NewHealthHandler(database, redisClient, deps.asynqInspector, cfg, slogger)

	slogger.Info("all dependencies initialized successfully")
	return deps, nil
}

func setupHTTPServer(cfg *config.Config, deps *dependencies, slogger *slog.Logger) *http.Server {
	mux := http.NewServeMux()

	registerRoutes(mux, deps, cfg)

	// Middleware chain, applied in reverse order (innermost first)
	var handler http.Handler = mux

	if cfg.App.Environment != "test" {
		handler = middleware.Logger(logger.GetDefault())(handler)
		handler = middleware.RequestID(handler)
		handler = middleware.Recovery(slogger)(handler)
	}

	if cfg.Security.RateLimitRequests > 0 {
		handler = middleware.RateLimit(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration)(handler)
	}

	if len(cfg.Security.AllowedOrigins) > 0 {
		handler = middleware.CORS(cfg.Security.AllowedOrigins)(handler)
	}

	handler = middleware.SecureHeaders(handler)

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(slogger.Handler(), slog.LevelError),
	}
}

func registerRoutes(mux *http.ServeMux, deps *dependencies, cfg *config.Config) {
	apiV1 := "/api/v1"

	if cfg.Server.EnableHealthCheck {
		mux.HandleFunc("GET /health", deps.healthHandler.Health)
		mux.HandleFunc("GET /ready", deps.healthHandler.Readiness)
		mux.HandleFunc("GET "+apiV1+"/health", deps.healthHandler.Health)
	}

	auth := middleware.Authenticate(cfg.Security.JWTSecret)
	ownerOnly := middleware.RequireRole(middleware.RoleOwner)

	protect := func(h http.HandlerFunc) http.Handler {
		return auth(h)
	}
	protectOwner := func(h http.HandlerFunc) http.Handler {
		return auth(ownerOnly(h))
	}

	// Product catalog
	mux.Handle("GET "+apiV1+"/products", protect(deps.productHandler.ListProducts))
	mux.Handle("POST "+apiV1+"/products", protectOwner(deps.productHandler.CreateProduct))
	mux.Handle("GET "+apiV1+"/products/low-stock", protect(deps.productHandler.LowStock))
	mux.Handle("GET "+apiV1+"/products/barcode/{barcode}", protect(deps.productHandler.GetProductByBarcode))
	mux.Handle("GET "+apiV1+"/products/{id}", protect(deps.productHandler.GetProduct))
	mux.Handle("PUT "+apiV1+"/products/{id}", protectOwner(deps.productHandler.UpdateProduct))
	mux.Handle("DELETE "+apiV1+"/products/{id}", protectOwner(deps.productHandler.DeleteProduct))

	// Sales
	mux.Handle("POST "+apiV1+"/sales", protect(deps.salesHandler.CreateSale))
	mux.Handle("GET "+apiV1+"/sales", protect(deps.salesHandler.ListSales))
	mux.Handle("GET "+apiV1+"/sales/summary", protect(deps.salesHandler.DailySummary))
	mux.Handle("GET "+apiV1+"/sales/{id}", protect(deps.salesHandler.GetSale))
	mux.Handle("POST "+apiV1+"/sales/{id}/cancel", protect(deps.salesHandler.CancelSale))

	// Inventory movements
	mux.Handle("POST "+apiV1+"/inventory/stock", protect(deps.inventoryHandler.AddStock))
	mux.Handle("POST "+apiV1+"/inventory/stock/remove", protect(deps.inventoryHandler.RemoveStock))
	mux.Handle("GET "+apiV1+"/inventory/batches/{productID}", protect(deps.inventoryHandler.ListBatches))

	// Scanner
	mux.Handle("POST "+apiV1+"/scanner/resolve", protect(deps.scannerHandler.Resolve))
	mux.Handle("POST "+apiV1+"/scanner/quick-sale", protect(deps.scannerHandler.QuickSale))
	mux.Handle("GET "+apiV1+"/scanner/history", protect(deps.scannerHandler.History))

	// Dashboard
	mux.Handle("GET "+apiV1+"/dashboard", protectOwner(deps.dashboardHandler.GetDashboard))

	// Exports
	mux.Handle("GET "+apiV1+"/export/sales", protectOwner(deps.exportHandler.ExportSalesExcel))
	mux.Handle("POST "+apiV1+"/export/sales/async", protectOwner(deps.exportHandler.EnqueueSalesExport))
	mux.Handle("GET "+apiV1+"/export/status/{jobID}", protectOwner(deps.exportHandler.ExportStatus))

	// pprof endpoints (development only)
	if cfg.Server.EnablePprof && cfg.IsDevelopment() {
		mux.HandleFunc("GET /debug/pprof/", http.HandlerFunc(http.DefaultServeMux.ServeHTTP))
	}
}

func runMigrations(ctx context.Context, cfg *config.Config, slogger *slog.Logger) error {
	slogger.Info("running database migrations")

	migrationConfig := &db.MigrationConfig{
		DatabaseURL: cfg.GetDatabaseURL(),
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}

	return db.RunMigrationsWithRetry(ctx, migrationConfig, slogger, 3)
}
