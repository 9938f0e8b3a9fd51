// internal/core/ports/batch_repository.go
package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/tindahan-be/internal/core/domain"
)

// BatchRepository defines the persistence port for the inventory batch ledger.
type BatchRepository interface {
	Insert(ctx context.Context, tx pgx.Tx, batch *domain.InventoryBatch) error

	// FindByProductForUpdate returns the product's batches with remaining
	// quantity, row-locked, in depletion order: expiry ascending with
	// no-expiry batches last, ties broken by creation time.
	FindByProductForUpdate(ctx context.Context, tx pgx.Tx, productID uuid.UUID) ([]domain.InventoryBatch, error)

	// Deplete subtracts quantity from a batch iff the result stays
	// non-negative.
	Deplete(ctx context.Context, tx pgx.Tx, batchID uuid.UUID, quantity int) error

	ListByProduct(ctx context.Context, productID uuid.UUID) ([]domain.InventoryBatch, error)
}
