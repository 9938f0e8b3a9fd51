// internal/core/ports/product_repository.go
package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/tindahan-be/internal/core/domain"
)

// ProductRepository defines the persistence port for the product catalog and
// the stock accessor. Stock mutations are conditional single-statement updates
// so two concurrent decrements can never jointly drive stock negative; the
// tx-scoped variants participate in a caller-owned transaction.
type ProductRepository interface {
	Save(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
	FindAll(ctx context.Context, params ProductListParams) ([]*domain.Product, int64, error)
	FindLowStock(ctx context.Context, storeID *uuid.UUID) ([]*domain.Product, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// CheckAvailability returns the current stock counter without mutating it.
	CheckAvailability(ctx context.Context, id uuid.UUID) (int, error)

	// LockForSale resolves and row-locks the given products inside tx,
	// serializing concurrent check-and-decrement sequences.
	LockForSale(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error)

	// DecrementStock subtracts quantity from the product's stock counter iff
	// the result stays non-negative; it returns InsufficientStockError
	// otherwise and performs no partial mutation.
	DecrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) error

	// IncrementStock adds quantity (>= 0) to the product's stock counter.
	IncrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) error
}

// ProductListParams holds filters for listing products
type ProductListParams struct {
	Search    string
	Category  string
	Barcode   string
	LowStock  bool
	StoreID   *uuid.UUID
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}
