// internal/core/services/pricing.go
package services

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/tindahan-be/internal/core/domain"
)

// DefaultTaxRate is the standard 12% VAT. Injected rather than read inside the
// calculator so tests and non-VAT deployments can override it.
var DefaultTaxRate = decimal.NewFromFloat(0.12)

var oneHundred = decimal.NewFromInt(100)

// PriceLine is one cart line with its resolved unit price. Callers resolve
// prices (catalog or per-line override) before pricing; the calculator itself
// performs no I/O.
type PriceLine struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// PricingResult holds the computed totals for a sale, each rounded to two
// decimal places using round-half-up.
type PricingResult struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
}

// ComputePricing calculates subtotal, discount, tax and total for a cart.
// Pure and deterministic: identical input yields identical output. The
// discount is applied before tax, and the rounded discount and tax are used
// for the downstream amounts so that Total == Subtotal - Discount + Tax holds
// exactly at two decimal places.
func ComputePricing(lines []PriceLine, discountPercent, taxRate decimal.Decimal) (*PricingResult, error) {
	if len(lines) == 0 {
		return nil, &domain.InvalidCartError{Reason: "cart is empty"}
	}
	if discountPercent.IsNegative() || discountPercent.GreaterThan(oneHundred) {
		return nil, &domain.InvalidCartError{Reason: "discount percent must be between 0 and 100"}
	}
	if taxRate.IsNegative() {
		return nil, &domain.InvalidCartError{Reason: "tax rate cannot be negative"}
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, &domain.InvalidCartError{Reason: "quantity must be at least 1"}
		}
		if line.UnitPrice.IsNegative() {
			return nil, &domain.InvalidCartError{Reason: "unit price cannot be negative"}
		}
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	subtotal = subtotal.Round(2)
	discountAmount := subtotal.Mul(discountPercent).Div(oneHundred).Round(2)
	taxableAmount := subtotal.Sub(discountAmount)
	taxAmount := taxableAmount.Mul(taxRate).Round(2)
	total := taxableAmount.Add(taxAmount)

	return &PricingResult{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		TaxAmount:      taxAmount,
		Total:          total,
	}, nil
}
