// internal/core/ports/sale_repository.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ammerola/tindahan-be/internal/core/domain"
)

// SaleRepository defines the persistence port for sales and their line items.
// Writes that belong to one logical sale run inside a caller-owned transaction.
type SaleRepository interface {
	// NextTransactionNumber atomically advances the daily sequence and
	// returns its new value. Safe under concurrent callers.
	NextTransactionNumber(ctx context.Context, tx pgx.Tx, day time.Time) (int, error)

	// Insert persists the sale header and all its line items.
	Insert(ctx context.Context, tx pgx.Tx, sale *domain.Sale) error

	FindByID(ctx context.Context, id uuid.UUID, storeID *uuid.UUID) (*domain.Sale, error)

	// FindByIDForUpdate resolves and row-locks a sale inside tx. Returns
	// nil (no error) when the sale does not exist in scope.
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID, storeID *uuid.UUID) (*domain.Sale, error)

	// MarkCancelled flips the sale to cancelled and appends the reason to
	// its notes.
	MarkCancelled(ctx context.Context, tx pgx.Tx, id uuid.UUID, reason string) error

	List(ctx context.Context, params SaleListParams) ([]*domain.Sale, int64, error)
	DailySummary(ctx context.Context, storeID *uuid.UUID, day time.Time) (*DailySummary, error)
}

// SaleListParams holds filters for listing sales
type SaleListParams struct {
	StartDate *time.Time
	EndDate   *time.Time
	Status    string
	CashierID *uuid.UUID
	StoreID   *uuid.UUID
	Page      int
	PageSize  int
}

// DailySummary aggregates completed sales for one day
type DailySummary struct {
	Date         string          `json:"date"`
	SaleCount    int64           `json:"sale_count"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}
