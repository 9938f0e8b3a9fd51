// test/benchmarks/helpers.go
package benchmarks

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/tindahan-be/internal/core/domain"
	"github.com/ammerola/tindahan-be/internal/core/services"
)

// makePriceLines builds a resolved cart of n distinct lines for the pricing
// calculator, with prices spread across the typical sari-sari range.
func makePriceLines(n int) []services.PriceLine {
	lines := make([]services.PriceLine, n)
	for i := range lines {
		lines[i] = services.PriceLine{
			ProductID: uuid.New(),
			Quantity:  1 + i%5,
			UnitPrice: decimal.NewFromFloat(5.0 + float64(i%40)*2.5),
		}
	}
	return lines
}

// makeCart builds an unresolved cart of n lines as it arrives from the POS.
func makeCart(n int) []domain.CartLine {
	cart := make([]domain.CartLine, n)
	for i := range cart {
		cart[i] = domain.CartLine{
			ProductID: uuid.New(),
			Quantity:  1 + i%3,
		}
	}
	return cart
}

// benchProduct builds a product like the seeder does, with a unique barcode.
func benchProduct(i int) *domain.Product {
	return &domain.Product{
		ID:                uuid.New(),
		Barcode:           fmt.Sprintf("4800%09d", i),
		Name:              fmt.Sprintf("Benchmark Product %d", i),
		Category:          domain.CategorySnacks,
		UnitPrice:         decimal.NewFromFloat(15.00),
		StockQuantity:     1000,
		LowStockThreshold: 10,
	}
}
