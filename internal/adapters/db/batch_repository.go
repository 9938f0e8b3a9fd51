// internal/adapters/db/batch_repository.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/tindahan-be/internal/core/domain"
	"github.com/ammerola/tindahan-be/internal/core/ports"
)

const batchColumns = `
	id, product_id, quantity, batch_number, expiry_date,
	location, store_id, created_at, updated_at`

// batchRepository implements ports.BatchRepository
type batchRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(db *Database, logger *slog.Logger) ports.BatchRepository {
	return &batchRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "batches")),
	}
}

// Insert persists a new batch inside tx
func (r *batchRepository) Insert(ctx context.Context, tx pgx.Tx, batch *domain.InventoryBatch) error {
	query := `
		INSERT INTO inventory_batches (
			id, product_id, quantity, batch_number, expiry_date,
			location, store_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		batch.ID, batch.ProductID, batch.Quantity, nullString(batch.BatchNumber), batch.ExpiryDate,
		nullString(batch.Location), batch.StoreID, batch.CreatedAt, batch.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}

	r.logger.DebugContext(ctx, "batch inserted",
		slog.String("id", batch.ID.String()),
		slog.String("product_id", batch.ProductID.String()),
		slog.Int("quantity", batch.Quantity))

	return nil
}

// FindByProductForUpdate returns the product's non-empty batches, row-locked,
// in depletion order: soonest expiry first, no-expiry batches last, ties
// broken by insertion time.
func (r *batchRepository) FindByProductForUpdate(ctx context.Context, tx pgx.Tx, productID uuid.UUID) ([]domain.InventoryBatch, error) {
	query := `SELECT ` + batchColumns + `
		FROM inventory_batches
		WHERE product_id = $1 AND quantity > 0
		ORDER BY expiry_date ASC NULLS LAST, created_at ASC
		FOR UPDATE`

	rows, err := tx.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock batches: %w", err)
	}
	defer rows.Close()

	return collectBatches(rows)
}

// Deplete subtracts quantity from a batch. Like the product stock statements,
// the guard in the WHERE clause keeps the ledger non-negative under
// concurrency.
func (r *batchRepository) Deplete(ctx context.Context, tx pgx.Tx, batchID uuid.UUID, quantity int) error {
	query := `
		UPDATE inventory_batches
		SET quantity = quantity - $2, updated_at = NOW()
		WHERE id = $1 AND quantity >= $2`

	tag, err := tx.Exec(ctx, query, batchID, quantity)
	if err != nil {
		return fmt.Errorf("failed to deplete batch: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("batch %s cannot cover depletion of %d", batchID, quantity)
	}

	return nil
}

// ListByProduct returns the product's batches in depletion order, including
// exhausted ones for audit visibility.
func (r *batchRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]domain.InventoryBatch, error) {
	query := `SELECT ` + batchColumns + `
		FROM inventory_batches
		WHERE product_id = $1
		ORDER BY expiry_date ASC NULLS LAST, created_at ASC`

	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	return collectBatches(rows)
}

func collectBatches(rows pgx.Rows) ([]domain.InventoryBatch, error) {
	var batches []domain.InventoryBatch
	for rows.Next() {
		var batch domain.InventoryBatch
		var batchNumber, location sql.NullString
		var expiryDate sql.NullTime
		var storeID uuid.NullUUID

		err := rows.Scan(
			&batch.ID, &batch.ProductID, &batch.Quantity, &batchNumber, &expiryDate,
			&location, &storeID, &batch.CreatedAt, &batch.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}

		batch.BatchNumber = batchNumber.String
		batch.Location = location.String
		if expiryDate.Valid {
			t := expiryDate.Time
			batch.ExpiryDate = &t
		}
		if storeID.Valid {
			batch.StoreID = &storeID.UUID
		}

		batches = append(batches, batch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return batches, nil
}
