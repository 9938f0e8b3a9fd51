// internal/core/domain/sale.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod represents accepted tender types
type PaymentMethod string

// Payment method constants
const (
	PaymentCash    PaymentMethod = "cash"
	PaymentCard    PaymentMethod = "card"
	PaymentGCash   PaymentMethod = "gcash"
	PaymentPayMaya PaymentMethod = "paymaya"
	PaymentCredit  PaymentMethod = "credit"
)

// IsValid reports whether the payment method is one of the accepted tenders.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentGCash, PaymentPayMaya, PaymentCredit:
		return true
	}
	return false
}

// SaleStatus represents the lifecycle state of a sale
type SaleStatus string

const (
	SaleCompleted SaleStatus = "completed"
	SaleCancelled SaleStatus = "cancelled"
)

// Sale is a checkout transaction. Once completed it is append-only: the single
// permitted mutation is the completed -> cancelled transition, which keeps the
// original rows for audit.
type Sale struct {
	ID                uuid.UUID       `json:"id"`
	TransactionNumber string          `json:"transaction_number"`
	CustomerID        *uuid.UUID      `json:"customer_id,omitempty"`
	CashierID         uuid.UUID       `json:"cashier_id"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	Discount          decimal.Decimal `json:"discount"`
	Tax               decimal.Decimal `json:"tax"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	PaymentMethod     PaymentMethod   `json:"payment_method"`
	PaymentReceived   decimal.Decimal `json:"payment_received"`
	ChangeGiven       decimal.Decimal `json:"change_given"`
	Status            SaleStatus      `json:"status"`
	Notes             string          `json:"notes,omitempty"`
	StoreID           *uuid.UUID      `json:"store_id,omitempty"`
	Items             []SaleItem      `json:"items"`
	CreatedAt         time.Time       `json:"created_at"`
}

// SaleItem is one cart line within a sale. UnitPrice is snapshotted at sale
// time so historical sales are immune to later catalog price changes.
type SaleItem struct {
	ID          uuid.UUID       `json:"id"`
	SaleID      uuid.UUID       `json:"sale_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Discount    decimal.Decimal `json:"discount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CartLine is one requested line of an incoming cart. UnitPriceOverride, when
// set, replaces the catalog price for this line only.
type CartLine struct {
	ProductID         uuid.UUID        `json:"product_id"`
	Quantity          int              `json:"quantity"`
	UnitPriceOverride *decimal.Decimal `json:"unit_price,omitempty"`
}

// ValidateCart checks the structural invariants of a cart before any pricing
// or stock work happens.
func ValidateCart(lines []CartLine) error {
	if len(lines) == 0 {
		return &InvalidCartError{Reason: "cart is empty"}
	}
	for i, line := range lines {
		if line.ProductID == uuid.Nil {
			return &InvalidCartError{Reason: fmt.Sprintf("line %d: product_id is required", i)}
		}
		if line.Quantity < 1 {
			return &InvalidCartError{Reason: fmt.Sprintf("line %d: quantity must be at least 1", i)}
		}
		if line.UnitPriceOverride != nil && line.UnitPriceOverride.IsNegative() {
			return &InvalidCartError{Reason: fmt.Sprintf("line %d: unit price cannot be negative", i)}
		}
	}
	return nil
}
