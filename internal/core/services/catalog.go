// internal/core/services/catalog.go
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ammerola/tindahan-be/internal/core/domain"
	"github.com/ammerola/tindahan-be/internal/core/ports"
)

// CatalogService handles product catalog business logic
type CatalogService struct {
	repo   ports.ProductRepository
	logger *slog.Logger
}

// Statically assert that *CatalogService implements the CatalogService interface.
var _ ports.CatalogService = (*CatalogService)(nil)

// NewCatalogService creates a new catalog service
func NewCatalogService(repo ports.ProductRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:   repo,
		logger: logger.With(slog.String("service", "catalog")),
	}
}

// CreateProduct validates and persists a new catalog product
func (s *CatalogService) CreateProduct(ctx context.Context, product *domain.Product) error {
	if err := product.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	product.PrepareForStorage()

	if product.Barcode != "" {
		existing, err := s.repo.FindByBarcode(ctx, product.Barcode)
		if err != nil {
			return fmt.Errorf("failed to check barcode: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("barcode already in use: %s", product.Barcode)
		}
	}

	if err := s.repo.Save(ctx, product); err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID.String()),
		slog.String("name", product.Name))

	return nil
}

// GetByID retrieves a product by ID
func (s *CatalogService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, &domain.ProductNotFoundError{ProductID: id}
	}
	return product, nil
}

// GetByBarcode retrieves a product by its barcode
func (s *CatalogService) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	product, err := s.repo.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, fmt.Errorf("failed to get product by barcode: %w", err)
	}
	if product == nil {
		return nil, &domain.ProductNotFoundError{Barcode: barcode}
	}
	return product, nil
}

// UpdateProduct updates catalog attributes of an existing product. The stock
// counter is not updated here; stock moves only through the stock accessor.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, product *domain.Product) error {
	product.ID = id

	if err := product.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", id.String()))

	return nil
}

// DeleteProduct soft deletes a product; historical sales keep referencing it.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check product existence: %w", err)
	}
	if !exists {
		return &domain.ProductNotFoundError{ProductID: id}
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.InfoContext(ctx, "product deleted",
		slog.String("product_id", id.String()))

	return nil
}

// List retrieves products with filtering and pagination
func (s *CatalogService) List(ctx context.Context, params ports.ProductListParams) (*ports.ProductListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = 20
	}

	products, totalCount, err := s.repo.FindAll(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	totalPages := int(totalCount) / params.PageSize
	if int(totalCount)%params.PageSize > 0 {
		totalPages++
	}

	return &ports.ProductListResult{
		Products:   products,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}, nil
}

// LowStock lists products at or below their reorder threshold
func (s *CatalogService) LowStock(ctx context.Context, storeID *uuid.UUID) ([]*domain.Product, error) {
	products, err := s.repo.FindLowStock(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}
	return products, nil
}
