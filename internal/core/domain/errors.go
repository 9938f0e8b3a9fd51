// internal/core/domain/errors.go
package domain

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// The sale core surfaces failures as typed errors so callers can branch on the
// kind and read the structured detail (offending product, shortfall) without
// parsing messages. The HTTP layer maps these to status codes; the core never
// sees status codes.

// InvalidCartError indicates the caller supplied a malformed or empty cart.
type InvalidCartError struct {
	Reason string
}

func (e *InvalidCartError) Error() string {
	return fmt.Sprintf("invalid cart: %s", e.Reason)
}

// ProductNotFoundError indicates a referenced product does not exist.
type ProductNotFoundError struct {
	ProductID uuid.UUID
	Barcode   string
}

func (e *ProductNotFoundError) Error() string {
	if e.Barcode != "" {
		return fmt.Sprintf("product not found: barcode %s", e.Barcode)
	}
	return fmt.Sprintf("product not found: %s", e.ProductID)
}

// InsufficientStockError indicates a requested quantity exceeds availability.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID.String()
	}
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		name, e.Requested, e.Available)
}

// InsufficientPaymentError indicates the amount paid does not cover the total.
type InsufficientPaymentError struct {
	Total decimal.Decimal
	Paid  decimal.Decimal
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("insufficient payment: total %s, paid %s",
		e.Total.StringFixed(2), e.Paid.StringFixed(2))
}

// Shortfall returns how much more payment is required.
func (e *InsufficientPaymentError) Shortfall() decimal.Decimal {
	return e.Total.Sub(e.Paid)
}

// SaleNotFoundError indicates the referenced sale does not exist in scope.
type SaleNotFoundError struct {
	SaleID uuid.UUID
}

func (e *SaleNotFoundError) Error() string {
	return fmt.Sprintf("sale not found: %s", e.SaleID)
}

// AlreadyCancelledError indicates a double-cancel. Cancellation is not
// idempotent: the second attempt is a caller error, not a no-op.
type AlreadyCancelledError struct {
	SaleID uuid.UUID
}

func (e *AlreadyCancelledError) Error() string {
	return fmt.Sprintf("sale is already cancelled: %s", e.SaleID)
}

// StorageUnavailableError indicates a transient storage failure. The attempted
// transaction had no partial effect, so retrying from scratch is safe; the
// core itself never retries.
type StorageUnavailableError struct {
	Op  string
	Err error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("storage unavailable during %s: %v", e.Op, e.Err)
}

func (e *StorageUnavailableError) Unwrap() error {
	return e.Err
}
