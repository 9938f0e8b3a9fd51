// internal/core/services/inventory.go
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/tindahan-be/internal/core/domain"
	"github.com/ammerola/tindahan-be/internal/core/ports"
)

// InventoryService handles batch-level stock movements outside of sales:
// restock into a new batch, and expiry-ordered removal (waste, damage, manual
// adjustment). Sales decrement the product counter directly; both paths keep
// the product counter authoritative and mutate batches in the same
// transaction, so the two ledgers cannot drift.
type InventoryService struct {
	db       TxRunner
	products ports.ProductRepository
	batches  ports.BatchRepository
	logger   *slog.Logger
}

// Statically assert that *InventoryService implements the InventoryService interface.
var _ ports.InventoryService = (*InventoryService)(nil)

// NewInventoryService creates a new inventory service
func NewInventoryService(db TxRunner, products ports.ProductRepository, batches ports.BatchRepository, logger *slog.Logger) *InventoryService {
	return &InventoryService{
		db:       db,
		products: products,
		batches:  batches,
		logger:   logger.With(slog.String("service", "inventory")),
	}
}

// AddStock creates a new inventory batch and bumps the product's stock
// counter in the same transaction.
func (s *InventoryService) AddStock(ctx context.Context, input ports.AddStockInput) (*domain.InventoryBatch, error) {
	if input.Quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1")
	}

	batch := &domain.InventoryBatch{
		ProductID:   input.ProductID,
		Quantity:    input.Quantity,
		BatchNumber: input.BatchNumber,
		ExpiryDate:  input.ExpiryDate,
		Location:    input.Location,
		StoreID:     input.StoreID,
	}
	if err := batch.Validate(); err != nil {
		return nil, err
	}
	batch.PrepareForStorage()

	err := s.db.Transaction(ctx, func(tx pgx.Tx) error {
		exists, err := s.products.Exists(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if !exists {
			return &domain.ProductNotFoundError{ProductID: input.ProductID}
		}
		if err := s.batches.Insert(ctx, tx, batch); err != nil {
			return err
		}
		return s.products.IncrementStock(ctx, tx, input.ProductID, input.Quantity)
	})
	if err != nil {
		return nil, normalizeError("add stock", err)
	}

	s.logger.InfoContext(ctx, "stock added",
		slog.String("product_id", input.ProductID.String()),
		slog.String("batch_id", batch.ID.String()),
		slog.Int("quantity", input.Quantity))

	return batch, nil
}

// RemoveStock depletes batches in expiry order (soonest first, no-expiry
// last, ties broken by creation time) and decrements the product counter,
// all in one transaction. If the batches cannot cover the requested quantity
// nothing is mutated.
func (s *InventoryService) RemoveStock(ctx context.Context, productID uuid.UUID, quantity int, reason string) (*domain.StockRemoval, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1")
	}

	var removal *domain.StockRemoval

	err := s.db.Transaction(ctx, func(tx pgx.Tx) error {
		// Product lock first: same lock order as the sale path, so
		// removals serialize with concurrent sales on this product.
		products, err := s.products.LockForSale(ctx, tx, []uuid.UUID{productID})
		if err != nil {
			return err
		}
		product, ok := products[productID]
		if !ok {
			return &domain.ProductNotFoundError{ProductID: productID}
		}

		batches, err := s.batches.FindByProductForUpdate(ctx, tx, productID)
		if err != nil {
			return err
		}

		allocations, err := planAllocation(product, batches, quantity)
		if err != nil {
			return err
		}

		for _, alloc := range allocations {
			if err := s.batches.Deplete(ctx, tx, alloc.BatchID, alloc.QuantityTaken); err != nil {
				return err
			}
		}

		if err := s.products.DecrementStock(ctx, tx, productID, quantity); err != nil {
			return err
		}

		removal = &domain.StockRemoval{
			ProductID:       productID,
			QuantityRemoved: quantity,
			Reason:          reason,
			BatchesAffected: allocations,
		}
		return nil
	})
	if err != nil {
		return nil, normalizeError("remove stock", err)
	}

	s.logger.InfoContext(ctx, "stock removed",
		slog.String("product_id", productID.String()),
		slog.Int("quantity", quantity),
		slog.Int("batches_affected", len(removal.BatchesAffected)),
		slog.String("reason", reason))

	return removal, nil
}

// ListBatches returns all batch records for a product, newest first.
func (s *InventoryService) ListBatches(ctx context.Context, productID uuid.UUID) ([]domain.InventoryBatch, error) {
	batches, err := s.batches.ListByProduct(ctx, productID)
	if err != nil {
		return nil, normalizeError("list batches", err)
	}
	return batches, nil
}

// planAllocation greedily consumes batches in the given depletion order until
// the requested quantity is satisfied. Availability is computed before any
// allocation is emitted: a shortfall returns InsufficientStockError and no
// allocations, so the caller writes nothing.
func planAllocation(product *domain.Product, batches []domain.InventoryBatch, quantity int) ([]domain.BatchAllocation, error) {
	available := 0
	for _, b := range batches {
		available += b.Quantity
	}
	if available < quantity {
		return nil, &domain.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   quantity,
			Available:   available,
		}
	}

	remaining := quantity
	allocations := make([]domain.BatchAllocation, 0, len(batches))
	for _, b := range batches {
		if remaining == 0 {
			break
		}
		if b.Quantity < 1 {
			continue
		}
		take := remaining
		if take > b.Quantity {
			take = b.Quantity
		}
		allocations = append(allocations, domain.BatchAllocation{
			BatchID:       b.ID,
			BatchNumber:   b.BatchNumber,
			QuantityTaken: take,
		})
		remaining -= take
	}

	return allocations, nil
}
