// internal/core/domain/batch.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InventoryBatch is a physical lot of stock for a product. Batches form the
// FIFO/expiry accounting ledger; the aggregate counter lives on the product.
type InventoryBatch struct {
	ID          uuid.UUID  `json:"id"`
	ProductID   uuid.UUID  `json:"product_id"`
	Quantity    int        `json:"quantity"`
	BatchNumber string     `json:"batch_number,omitempty"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	Location    string     `json:"location,omitempty"`
	StoreID     *uuid.UUID `json:"store_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Validate performs domain validation on the batch
func (b *InventoryBatch) Validate() error {
	if b.ProductID == uuid.Nil {
		return fmt.Errorf("product_id is required")
	}
	if b.Quantity < 0 {
		return fmt.Errorf("quantity cannot be negative")
	}
	return nil
}

// PrepareForStorage prepares the batch for database storage
func (b *InventoryBatch) PrepareForStorage() {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}

	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// BatchAllocation records how much of a removal was taken from one batch.
type BatchAllocation struct {
	BatchID       uuid.UUID `json:"batch_id"`
	BatchNumber   string    `json:"batch_number,omitempty"`
	QuantityTaken int       `json:"quantity_taken"`
}

// StockRemoval is the outcome of a batch-aware stock removal.
type StockRemoval struct {
	ProductID       uuid.UUID         `json:"product_id"`
	QuantityRemoved int               `json:"quantity_removed"`
	Reason          string            `json:"reason,omitempty"`
	BatchesAffected []BatchAllocation `json:"batches_affected"`
}
