// internal/core/ports/inventory_service.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/tindahan-be/internal/core/domain"
)

// InventoryService defines the application service port for batch-level stock
// movements outside of sales (restock, waste, manual removal).
type InventoryService interface {
	AddStock(ctx context.Context, input AddStockInput) (*domain.InventoryBatch, error)
	RemoveStock(ctx context.Context, productID uuid.UUID, quantity int, reason string) (*domain.StockRemoval, error)
	ListBatches(ctx context.Context, productID uuid.UUID) ([]domain.InventoryBatch, error)
}

// AddStockInput carries a restock request
type AddStockInput struct {
	ProductID   uuid.UUID  `json:"product_id"`
	Quantity    int        `json:"quantity"`
	BatchNumber string     `json:"batch_number,omitempty"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	Location    string     `json:"location,omitempty"`
	StoreID     *uuid.UUID `json:"store_id,omitempty"`
}
