// internal/core/ports/sales_service.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/tindahan-be/internal/core/domain"
)

// SalesService defines the application service port for the sale transaction
// and cancellation managers. This interface is implemented by the application
// service.
type SalesService interface {
	CreateSale(ctx context.Context, input CreateSaleInput) (*domain.Sale, error)
	CancelSale(ctx context.Context, saleID uuid.UUID, reason string, storeID *uuid.UUID) (*domain.Sale, error)

	// GetSaleByID returns nil (no error) when the sale does not exist in scope.
	GetSaleByID(ctx context.Context, saleID uuid.UUID, storeID *uuid.UUID) (*domain.Sale, error)

	List(ctx context.Context, params SaleListParams) (*SaleListResult, error)
	DailySummary(ctx context.Context, storeID *uuid.UUID, day time.Time) (*DailySummary, error)
}

// CreateSaleInput carries one sale attempt from the HTTP layer into the core.
type CreateSaleInput struct {
	Cart            []domain.CartLine    `json:"items"`
	PaymentMethod   domain.PaymentMethod `json:"payment_method"`
	AmountPaid      *decimal.Decimal     `json:"amount_paid,omitempty"`
	DiscountPercent decimal.Decimal      `json:"discount_percent"`
	CustomerID      *uuid.UUID           `json:"customer_id,omitempty"`
	Notes           string               `json:"notes,omitempty"`
	CashierID       uuid.UUID            `json:"cashier_id"`
	StoreID         *uuid.UUID           `json:"store_id,omitempty"`
}

// SaleListResult holds the result of listing sales
type SaleListResult struct {
	Sales      []*domain.Sale `json:"sales"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalCount int64          `json:"total_count"`
	TotalPages int            `json:"total_pages"`
}
