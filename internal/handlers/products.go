// internal/handlers/products.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	redis_a "github.com/ammerola/tindahan-be/internal/adapters/redis_adapter"
	"github.com/ammerola/tindahan-be/internal/core/domain"
	"github.com/ammerola/tindahan-be/internal/core/ports"
)

// ProductHandler handles product catalog HTTP requests
type ProductHandler struct {
	catalog ports.CatalogService
	cache   ports.CacheRepository
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(catalog ports.CatalogService, cache ports.CacheRepository, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		cache:   cache,
		logger:  logger.With(slog.String("handler", "products")),
	}
}

// CreateProduct handles POST /api/v1/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	product := req.ToDomain()

	if err := h.catalog.CreateProduct(ctx, product); err != nil {
		h.logger.ErrorContext(ctx, "failed to create product", logAttrError(err))
		if respondDomainError(w, err) {
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.invalidateProductCache(ctx)

	respondJSON(w, http.StatusCreated, product)
}

// GetProduct handles GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	cacheKey := redis_a.BuildKey(redis_a.PrefixProduct, "id", idStr)
	var product domain.Product

	err = h.cache.GetOrSet(ctx, cacheKey, &product, func() (interface{}, error) {
		return h.catalog.GetByID(ctx, id)
	}, 5*time.Minute)
	if err != nil {
		if respondDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(ctx, "failed to get product",
			slog.String("product_id", idStr), logAttrError(err))
		respondError(w, http.StatusInternalServerError, "Failed to retrieve product")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// GetProductByBarcode handles GET /api/v1/products/barcode/{barcode}
func (h *ProductHandler) GetProductByBarcode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	barcode := r.PathValue("barcode")

	if barcode == "" {
		respondError(w, http.StatusBadRequest, "Barcode is required")
		return
	}

	product, err := h.catalog.GetByBarcode(ctx, barcode)
	if err != nil {
		if respondDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(ctx, "failed to get product by barcode",
			slog.String("barcode", barcode), logAttrError(err))
		respondError(w, http.StatusInternalServerError, "Failed to retrieve product")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// UpdateProduct handles PUT /api/v1/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	product := req.ToDomain()

	if err := h.catalog.UpdateProduct(ctx, id, product); err != nil {
		if respondDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(ctx, "failed to update product",
			slog.String("product_id", idStr), logAttrError(err))
		respondError(w, http.StatusInternalServerError, "Failed to update product")
		return
	}

	h.invalidateProductCache(ctx)

	updated, err := h.catalog.GetByID(ctx, id)
	if err != nil {
		respondJSON(w, http.StatusOK, map[string]string{"message": "Product updated successfully"})
		return
	}

	h.logger.InfoContext(ctx, "product updated", slog.String("product_id", idStr))

	respondJSON(w, http.StatusOK, updated)
}

// DeleteProduct handles DELETE /api/v1/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	if err := h.catalog.DeleteProduct(ctx, id); err != nil {
		if respondDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete product",
			slog.String("product_id", idStr), logAttrError(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	h.invalidateProductCache(ctx)

	respondJSON(w, http.StatusOK, map[string]string{
		"message":    "Product deleted successfully",
		"product_id": idStr,
	})
}

// ListProducts handles GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := h.parseListParams(r)

	result, err := h.catalog.List(ctx, params)
	if err != nil {
		if respondDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(ctx, "failed to list products", logAttrError(err))
		respondError(w, http.StatusInternalServerError, "Failed to list products")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// LowStock handles GET /api/v1/products/low-stock
func (h *ProductHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var storeID *uuid.UUID
	if s := r.URL.Query().Get("store_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid store ID format")
			return
		}
		storeID = &id
	}

	products, err := h.catalog.LowStock(ctx, storeID)
	if err != nil {
		if respondDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(ctx, "failed to list low stock products", logAttrError(err))
		respondError(w, http.StatusInternalServerError, "Failed to list low stock products")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"count":    len(products),
	})
}

// parseListParams parses query parameters for listing products
func (h *ProductHandler) parseListParams(r *http.Request) ports.ProductListParams {
	params := ports.ProductListParams{
		Page:      1,
		PageSize:  20,
		SortBy:    "created_at",
		SortOrder: "desc",
	}

	if page := r.URL.Query().Get("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			params.Page = p
		}
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil && l > 0 {
			if l > 100 {
				params.PageSize = 100
			} else {
				params.PageSize = l
			}
		}
	}

	params.Search = r.URL.Query().Get("search")
	params.Category = r.URL.Query().Get("category")
	params.Barcode = r.URL.Query().Get("barcode")
	params.LowStock = r.URL.Query().Get("low_stock") == "true"

	if s := r.URL.Query().Get("store_id"); s != "" {
		if id, err := uuid.Parse(s); err == nil {
			params.StoreID = &id
		}
	}

	if sortBy := r.URL.Query().Get("sort"); sortBy != "" {
		params.SortBy = sortBy
	}
	if order := r.URL.Query().Get("order"); order == "asc" || order == "desc" {
		params.SortOrder = order
	}

	return params
}

// Catalog writes are rare next to reads, so the whole product cache prefix is
// dropped instead of tracking individual keys.
func (h *ProductHandler) invalidateProductCache(ctx context.Context) {
	if err := h.cache.DeletePattern(ctx, redis_a.BuildKey(redis_a.PrefixProduct, "*")); err != nil {
		h.logger.WarnContext(ctx, "failed to invalidate product cache", logAttrError(err))
	}
}

// Request/Response DTOs

// CreateProductRequest represents the request body for creating a product
type CreateProductRequest struct {
	Barcode           string           `json:"barcode,omitempty"`
	Name              string           `json:"name"`
	Description       string           `json:"description,omitempty"`
	Category          string           `json:"category,omitempty"`
	UnitPrice         decimal.Decimal  `json:"unit_price"`
	WholesalePrice    *decimal.Decimal `json:"wholesale_price,omitempty"`
	StockQuantity     int              `json:"stock_quantity"`
	LowStockThreshold int              `json:"low_stock_threshold"`
	SupplierID        *uuid.UUID       `json:"supplier_id,omitempty"`
	StoreID           *uuid.UUID       `json:"store_id,omitempty"`
}

// Validate validates the create product request
func (r *CreateProductRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.UnitPrice.IsNegative() {
		return fmt.Errorf("unit_price cannot be negative")
	}
	if r.StockQuantity < 0 {
		return fmt.Errorf("stock_quantity cannot be negative")
	}
	if r.LowStockThreshold < 0 {
		return fmt.Errorf("low_stock_threshold cannot be negative")
	}
	return nil
}

// ToDomain converts the request to a domain model
func (r *CreateProductRequest) ToDomain() *domain.Product {
	product := &domain.Product{
		ID:                uuid.New(),
		Barcode:           r.Barcode,
		Name:              r.Name,
		Description:       r.Description,
		Category:          domain.ProductCategory(r.Category),
		UnitPrice:         r.UnitPrice,
		WholesalePrice:    r.WholesalePrice,
		StockQuantity:     r.StockQuantity,
		LowStockThreshold: r.LowStockThreshold,
		SupplierID:        r.SupplierID,
		StoreID:           r.StoreID,
	}

	if product.Category == "" {
		product.Category = domain.CategoryOther
	}

	return product
}

// UpdateProductRequest represents the request body for updating a product
type UpdateProductRequest struct {
	Barcode           string           `json:"barcode,omitempty"`
	Name              string           `json:"name"`
	Description       string           `json:"description,omitempty"`
	Category          string           `json:"category,omitempty"`
	UnitPrice         decimal.Decimal  `json:"unit_price"`
	WholesalePrice    *decimal.Decimal `json:"wholesale_price,omitempty"`
	LowStockThreshold int              `json:"low_stock_threshold"`
	SupplierID        *uuid.UUID       `json:"supplier_id,omitempty"`
	StoreID           *uuid.UUID       `json:"store_id,omitempty"`
}

// Validate validates the update product request
func (r *UpdateProductRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.UnitPrice.IsNegative() {
		return fmt.Errorf("unit_price cannot be negative")
	}
	if r.LowStockThreshold < 0 {
		return fmt.Errorf("low_stock_threshold cannot be negative")
	}
	return nil
}

// ToDomain converts the request to a domain model. Stock is intentionally
// absent: the counter moves only through sales and inventory movements.
func (r *UpdateProductRequest) ToDomain() *domain.Product {
	product := &domain.Product{
		Barcode:           r.Barcode,
		Name:              r.Name,
		Description:       r.Description,
		Category:          domain.ProductCategory(r.Category),
		UnitPrice:         r.UnitPrice,
		WholesalePrice:    r.WholesalePrice,
		LowStockThreshold: r.LowStockThreshold,
		SupplierID:        r.SupplierID,
		StoreID:           r.StoreID,
	}

	if product.Category == "" {
		product.Category = domain.CategoryOther
	}

	return product
}
