// internal/core/ports/catalog_service.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ammerola/tindahan-be/internal/core/domain"
)

// CatalogService defines the application service port for the product catalog.
type CatalogService interface {
	CreateProduct(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, product *domain.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params ProductListParams) (*ProductListResult, error)
	LowStock(ctx context.Context, storeID *uuid.UUID) ([]*domain.Product, error)
}

// ProductListResult holds the result of listing products
type ProductListResult struct {
	Products   []*domain.Product `json:"products"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalCount int64             `json:"total_count"`
	TotalPages int               `json:"total_pages"`
}
