// internal/core/domain/product.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductCategory represents product categories carried by a store
type ProductCategory string

// Category constants
const (
	CategoryBeverages  ProductCategory = "beverages"
	CategoryCanned     ProductCategory = "canned_goods"
	CategoryCondiments ProductCategory = "condiments"
	CategoryDairy      ProductCategory = "dairy"
	CategoryFrozen     ProductCategory = "frozen"
	CategoryHousehold  ProductCategory = "household"
	CategoryInstant    ProductCategory = "instant_noodles"
	CategoryPersonal   ProductCategory = "personal_care"
	CategoryRice       ProductCategory = "rice_grains"
	CategorySnacks     ProductCategory = "snacks"
	CategoryTobacco    ProductCategory = "tobacco"
	CategoryLoad       ProductCategory = "prepaid_load"
	CategoryOther      ProductCategory = "other"
)

// Product is a sellable catalog item. StockQuantity is the authoritative
// stock counter; inventory batches are an auxiliary ledger for expiry-aware
// depletion and must never be read as the source of truth.
type Product struct {
	ID                uuid.UUID        `json:"id"`
	Barcode           string           `json:"barcode,omitempty"`
	Name              string           `json:"name"`
	Description       string           `json:"description,omitempty"`
	Category          ProductCategory  `json:"category"`
	UnitPrice         decimal.Decimal  `json:"unit_price"`
	WholesalePrice    *decimal.Decimal `json:"wholesale_price,omitempty"`
	StockQuantity     int              `json:"stock_quantity"`
	LowStockThreshold int              `json:"low_stock_threshold"`
	SupplierID        *uuid.UUID       `json:"supplier_id,omitempty"`
	StoreID           *uuid.UUID       `json:"store_id,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
	DeletedAt         *time.Time       `json:"deleted_at,omitempty"`
}

// Validate performs domain validation on the product
func (p *Product) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.UnitPrice.IsNegative() {
		return fmt.Errorf("unit_price cannot be negative")
	}
	if p.WholesalePrice != nil && p.WholesalePrice.IsNegative() {
		return fmt.Errorf("wholesale_price cannot be negative")
	}
	if p.StockQuantity < 0 {
		return fmt.Errorf("stock_quantity cannot be negative")
	}
	if p.LowStockThreshold < 0 {
		return fmt.Errorf("low_stock_threshold cannot be negative")
	}
	if p.Category == "" {
		p.Category = CategoryOther
	}
	return nil
}

// IsLowStock reports whether stock has fallen to or below the reorder threshold.
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.LowStockThreshold
}

// PrepareForStorage prepares the product for database storage
func (p *Product) PrepareForStorage() {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}
