package benchmarks

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/tindahan-be/internal/adapters/db"
	"github.com/ammerola/tindahan-be/internal/core/domain"
	"github.com/ammerola/tindahan-be/internal/core/ports"
	"github.com/ammerola/tindahan-be/internal/core/services"
	"github.com/ammerola/tindahan-be/test/helpers"
)

func BenchmarkProductOperations(b *testing.B) {
	testDB := helpers.SetupTestDB(&testing.T{})
	defer testDB.Database.Close()

	repo := db.NewProductRepository(testDB.Database, helpers.TestLogger())
	ctx := context.Background()

	b.Run("Save", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = repo.Save(ctx, benchProduct(i))
		}
	})

	// Pre-create products for read benchmarks
	var productIDs []uuid.UUID
	for i := 1000000; i < 1000100; i++ {
		p := benchProduct(i)
		_ = repo.Save(ctx, p)
		productIDs = append(productIDs, p.ID)
	}

	b.Run("FindByID", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			id := productIDs[i%len(productIDs)]
			_, _ = repo.FindByID(ctx, id)
		}
	})

	b.Run("List", func(b *testing.B) {
		params := ports.ProductListParams{
			Page:     1,
			PageSize: 50,
		}

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _, _ = repo.FindAll(ctx, params)
		}
	})

	b.Run("Search", func(b *testing.B) {
		params := ports.ProductListParams{
			Search:   "benchmark",
			Page:     1,
			PageSize: 50,
		}

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _, _ = repo.FindAll(ctx, params)
		}
	})
}

func BenchmarkCheckout(b *testing.B) {
	testDB := helpers.SetupTestDB(&testing.T{})
	defer testDB.Database.Close()

	logger := helpers.TestLogger()
	productRepo := db.NewProductRepository(testDB.Database, logger)
	saleRepo := db.NewSaleRepository(testDB.Database, logger)
	sales := services.NewSalesService(testDB.Database, productRepo, saleRepo, nil, nil,
		services.DefaultTaxRate, logger)
	ctx := context.Background()

	product := benchProduct(2000000)
	product.StockQuantity = 1_000_000_000
	if err := productRepo.Save(ctx, product); err != nil {
		b.Fatalf("seed product: %v", err)
	}

	paid := decimal.NewFromInt(1000)
	input := ports.CreateSaleInput{
		Cart: []domain.CartLine{
			{ProductID: product.ID, Quantity: 1},
		},
		PaymentMethod: domain.PaymentCash,
		AmountPaid:    &paid,
		CashierID:     uuid.New(),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := sales.CreateSale(ctx, input); err != nil {
			b.Fatalf("checkout: %v", err)
		}
	}
}

func BenchmarkComputePricing(b *testing.B) {
	taxRate := services.DefaultTaxRate
	discount := decimal.NewFromInt(5)

	for _, size := range []int{1, 10, 50} {
		lines := makePriceLines(size)
		b.Run(fmt.Sprintf("lines_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = services.ComputePricing(lines, discount, taxRate)
			}
		})
	}
}

func BenchmarkValidateCart(b *testing.B) {
	cart := makeCart(20)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = domain.ValidateCart(cart)
	}
}

// Memory allocation benchmarks
func BenchmarkMemoryAllocation(b *testing.B) {
	b.Run("Sale", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = &domain.Sale{
				ID:                uuid.New(),
				TransactionNumber: "20260829-0001",
				CashierID:         uuid.New(),
				Subtotal:          decimal.NewFromFloat(45.00),
				Tax:               decimal.NewFromFloat(5.40),
				TotalAmount:       decimal.NewFromFloat(50.40),
				PaymentMethod:     domain.PaymentCash,
				Status:            domain.SaleCompleted,
			}
		}
	})

	b.Run("ProductListResult", func(b *testing.B) {
		products := make([]*domain.Product, 100)
		for i := range products {
			products[i] = helpers.CreateTestProduct()
		}

		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = &ports.ProductListResult{
				Products:   products,
				Page:       1,
				PageSize:   50,
				TotalCount: 100,
				TotalPages: 2,
			}
		}
	})
}
