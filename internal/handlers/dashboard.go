// internal/handlers/dashboard.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ammerola/tindahan-be/internal/adapters/db"
	redis_a "github.com/ammerola/tindahan-be/internal/adapters/redis_adapter"
	"github.com/ammerola/tindahan-be/internal/core/ports"
)

// DashboardHandler aggregates store-level figures for the owner's overview
type DashboardHandler struct {
	db     *db.Database
	cache  ports.CacheRepository
	logger *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(database *db.Database, cache ports.CacheRepository, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		db:     database,
		cache:  cache,
		logger: logger.With(slog.String("handler", "dashboard")),
	}
}

// GetDashboard handles GET /api/v1/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cacheKey := redis_a.BuildKey(redis_a.PrefixDashboard, "main")
	var dashboard DashboardData

	err := h.cache.GetOrSet(ctx, cacheKey, &dashboard, func() (interface{}, error) {
		return h.loadDashboardData(ctx)
	}, 5*time.Minute)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load dashboard", logAttrError(err))
		respondError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	respondJSON(w, http.StatusOK, dashboard)
}

func (h *DashboardHandler) loadDashboardData(ctx context.Context) (*DashboardData, error) {
	dashboard := &DashboardData{
		Timestamp: time.Now(),
	}

	dayStart := time.Now().Truncate(24 * time.Hour)

	todayQuery := `
		SELECT
			COUNT(*) AS sale_count,
			COALESCE(SUM(total_amount), 0) AS revenue,
			COALESCE(SUM(tax), 0) AS tax_collected
		FROM sales
		WHERE status = 'completed'
		  AND created_at >= $1 AND created_at < $2
	`

	err := h.db.QueryRow(ctx, todayQuery, dayStart, dayStart.Add(24*time.Hour)).Scan(
		&dashboard.Today.SaleCount,
		&dashboard.Today.Revenue,
		&dashboard.Today.TaxCollected,
	)
	if err != nil {
		return nil, err
	}

	lowStockQuery := `
		SELECT COUNT(*)
		FROM products
		WHERE deleted_at IS NULL
		  AND stock_quantity <= low_stock_threshold
	`
	if err := h.db.QueryRow(ctx, lowStockQuery).Scan(&dashboard.LowStockCount); err != nil {
		return nil, err
	}

	topQuery := `
		SELECT p.id::text, p.name, SUM(si.quantity) AS units, SUM(si.total_price) AS revenue
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		JOIN products p ON p.id = si.product_id
		WHERE s.status = 'completed'
		  AND s.created_at >= $1
		GROUP BY p.id, p.name
		ORDER BY units DESC
		LIMIT 10
	`

	rows, err := h.db.Query(ctx, topQuery, dayStart.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var top TopProduct
		if err := rows.Scan(&top.ProductID, &top.Name, &top.UnitsSold, &top.Revenue); err != nil {
			continue
		}
		dashboard.TopProducts = append(dashboard.TopProducts, top)
	}

	recentQuery := `
		SELECT id::text, transaction_number, total_amount, payment_method, status, created_at
		FROM sales
		ORDER BY created_at DESC
		LIMIT 10
	`

	saleRows, err := h.db.Query(ctx, recentQuery)
	if err == nil {
		defer saleRows.Close()
		for saleRows.Next() {
			var sale RecentSale
			if err := saleRows.Scan(&sale.SaleID, &sale.TransactionNumber, &sale.Total,
				&sale.PaymentMethod, &sale.Status, &sale.CreatedAt); err == nil {
				dashboard.RecentSales = append(dashboard.RecentSales, sale)
			}
		}
	}

	return dashboard, nil
}

// Type definitions

type DashboardData struct {
	Today         TodaySummary `json:"today"`
	LowStockCount int64        `json:"low_stock_count"`
	TopProducts   []TopProduct `json:"top_products"`
	RecentSales   []RecentSale `json:"recent_sales"`
	Timestamp     time.Time    `json:"timestamp"`
}

type TodaySummary struct {
	SaleCount    int64           `json:"sale_count"`
	Revenue      decimal.Decimal `json:"revenue"`
	TaxCollected decimal.Decimal `json:"tax_collected"`
}

type TopProduct struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitsSold int64           `json:"units_sold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type RecentSale struct {
	SaleID            string          `json:"sale_id"`
	TransactionNumber string          `json:"transaction_number"`
	Total             decimal.Decimal `json:"total"`
	PaymentMethod     string          `json:"payment_method"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
}
