// internal/workers/low_stock_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	redis_a "github.com/ammerola/tindahan-be/internal/adapters/redis_adapter"
	"github.com/ammerola/tindahan-be/internal/core/ports"
	"github.com/ammerola/tindahan-be/internal/core/services"
)

// LowStockProcessor re-checks stock levels for products touched by recent
// sales and surfaces reorder alerts.
type LowStockProcessor struct {
	products ports.ProductRepository
	cache    ports.CacheRepository
	logger   *slog.Logger
}

// NewLowStockProcessor creates a new low stock processor
func NewLowStockProcessor(products ports.ProductRepository, cache ports.CacheRepository, logger *slog.Logger) *LowStockProcessor {
	return &LowStockProcessor{
		products: products,
		cache:    cache,
		logger:   logger.With(slog.String("processor", "low_stock")),
	}
}

// ProcessLowStockCheck handles the low stock check task enqueued after each
// completed sale.
func (p *LowStockProcessor) ProcessLowStockCheck(ctx context.Context, t *asynq.Task) error {
	var payload services.LowStockCheckPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	alerts := 0
	for _, productID := range payload.ProductIDs {
		product, err := p.products.FindByID(ctx, productID)
		if err != nil {
			return fmt.Errorf("failed to load product %s: %w", productID, err)
		}
		if product == nil {
			continue
		}

		if product.IsLowStock() {
			alerts++
			p.logger.WarnContext(ctx, "low stock alert",
				slog.String("product_id", product.ID.String()),
				slog.String("name", product.Name),
				slog.Int("stock_quantity", product.StockQuantity),
				slog.Int("threshold", product.LowStockThreshold))
		}
	}

	if alerts > 0 {
		// The dashboard shows the low stock count; drop its cache so the
		// next view reflects the new alerts.
		if err := p.cache.DeletePattern(ctx, redis_a.BuildKey(redis_a.PrefixDashboard, "*")); err != nil {
			p.logger.WarnContext(ctx, "failed to invalidate dashboard cache",
				slog.String("error", err.Error()))
		}
	}

	p.logger.InfoContext(ctx, "low stock check completed",
		slog.Int("products_checked", len(payload.ProductIDs)),
		slog.Int("alerts", alerts))

	return nil
}
