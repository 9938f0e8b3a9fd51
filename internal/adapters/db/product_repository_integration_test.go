//go:build integration
// +build integration

package db_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/ammerola/tindahan-be/internal/adapters/db"
	"github.com/ammerola/tindahan-be/internal/core/domain"
	"github.com/ammerola/tindahan-be/internal/core/ports"
	"github.com/ammerola/tindahan-be/test/helpers"
)

type ProductRepositorySuite struct {
	suite.Suite
	testDB *helpers.TestDB
	repo   ports.ProductRepository
	ctx    context.Context
}

func (s *ProductRepositorySuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.repo = db.NewProductRepository(s.testDB.Database, helpers.TestLogger())
	s.ctx = context.Background()
}

func (s *ProductRepositorySuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
}

func (s *ProductRepositorySuite) TestSave() {
	product := helpers.CreateTestProduct()

	err := s.repo.Save(s.ctx, product)
	s.NoError(err)

	saved, err := s.repo.FindByID(s.ctx, product.ID)
	s.NoError(err)
	s.Require().NotNil(saved)
	s.Equal(product.Name, saved.Name)
	s.Equal(product.Barcode, saved.Barcode)
	s.True(product.UnitPrice.Equal(saved.UnitPrice))
	s.Equal(product.StockQuantity, saved.StockQuantity)
}

func (s *ProductRepositorySuite) TestSave_DuplicateBarcode() {
	product := helpers.CreateTestProduct()
	s.NoError(s.repo.Save(s.ctx, product))

	dup := helpers.CreateTestProduct(func(p *domain.Product) {
		p.Barcode = product.Barcode
	})
	err := s.repo.Save(s.ctx, dup)
	s.Error(err)
}

func (s *ProductRepositorySuite) TestSave_BarcodeReusableAfterSoftDelete() {
	product := helpers.CreateTestProduct()
	s.NoError(s.repo.Save(s.ctx, product))
	s.NoError(s.repo.SoftDelete(s.ctx, product.ID))

	// The unique index only covers live rows, so the barcode frees up.
	reused := helpers.CreateTestProduct(func(p *domain.Product) {
		p.Barcode = product.Barcode
	})
	s.NoError(s.repo.Save(s.ctx, reused))
}

func (s *ProductRepositorySuite) TestFindByID() {
	s.Run("existing_product", func() {
		product := helpers.CreateTestProduct()
		s.NoError(s.repo.Save(s.ctx, product))

		found, err := s.repo.FindByID(s.ctx, product.ID)
		s.NoError(err)
		s.Require().NotNil(found)
		s.Equal(product.ID, found.ID)
	})

	s.Run("non_existent_product", func() {
		found, err := s.repo.FindByID(s.ctx, uuid.New())
		s.NoError(err)
		s.Nil(found)
	})

	s.Run("soft_deleted_product", func() {
		product := helpers.CreateTestProduct()
		s.NoError(s.repo.Save(s.ctx, product))
		s.NoError(s.repo.SoftDelete(s.ctx, product.ID))

		found, err := s.repo.FindByID(s.ctx, product.ID)
		s.NoError(err)
		s.Nil(found)
	})
}

func (s *ProductRepositorySuite) TestFindByBarcode() {
	product := helpers.CreateTestProduct()
	s.NoError(s.repo.Save(s.ctx, product))

	found, err := s.repo.FindByBarcode(s.ctx, product.Barcode)
	s.NoError(err)
	s.Require().NotNil(found)
	s.Equal(product.ID, found.ID)

	missing, err := s.repo.FindByBarcode(s.ctx, "0000000000000")
	s.NoError(err)
	s.Nil(missing)
}

func (s *ProductRepositorySuite) TestUpdate_DoesNotTouchStock() {
	product := helpers.CreateTestProduct(func(p *domain.Product) {
		p.StockQuantity = 42
	})
	s.NoError(s.repo.Save(s.ctx, product))

	product.Name = "Renamed Item"
	product.UnitPrice = decimal.NewFromFloat(18.50)
	product.StockQuantity = 9999 // must be ignored by Update

	s.NoError(s.repo.Update(s.ctx, product))

	updated, err := s.repo.FindByID(s.ctx, product.ID)
	s.NoError(err)
	s.Equal("Renamed Item", updated.Name)
	s.True(decimal.NewFromFloat(18.50).Equal(updated.UnitPrice))
	s.Equal(42, updated.StockQuantity)
}

func (s *ProductRepositorySuite) TestDecrementStock() {
	s.Run("decrements_within_available", func() {
		product := helpers.CreateTestProduct(func(p *domain.Product) {
			p.StockQuantity = 10
		})
		s.NoError(s.repo.Save(s.ctx, product))

		err := s.testDB.Database.Transaction(s.ctx, func(tx pgx.Tx) error {
			return s.repo.DecrementStock(s.ctx, tx, product.ID, 4)
		})
		s.NoError(err)
		s.Equal(6, helpers.GetStockQuantity(s.T(), s.testDB.PgxPool, product.ID))
	})

	s.Run("refuses_to_go_negative", func() {
		product := helpers.CreateTestProduct(func(p *domain.Product) {
			p.StockQuantity = 3
		})
		s.NoError(s.repo.Save(s.ctx, product))

		err := s.testDB.Database.Transaction(s.ctx, func(tx pgx.Tx) error {
			return s.repo.DecrementStock(s.ctx, tx, product.ID, 5)
		})

		var stockErr *domain.InsufficientStockError
		s.Require().ErrorAs(err, &stockErr)
		s.Equal(5, stockErr.Requested)
		s.Equal(3, stockErr.Available)
		s.Equal(3, helpers.GetStockQuantity(s.T(), s.testDB.PgxPool, product.ID))
	})

	s.Run("unknown_product", func() {
		err := s.testDB.Database.Transaction(s.ctx, func(tx pgx.Tx) error {
			return s.repo.DecrementStock(s.ctx, tx, uuid.New(), 1)
		})

		var notFound *domain.ProductNotFoundError
		s.ErrorAs(err, &notFound)
	})
}

// Twenty concurrent single-unit decrements against a stock of ten: exactly ten
// succeed and the counter lands on zero, never below.
func (s *ProductRepositorySuite) TestDecrementStock_ConcurrentFloor() {
	product := helpers.CreateTestProduct(func(p *domain.Product) {
		p.StockQuantity = 10
	})
	s.NoError(s.repo.Save(s.ctx, product))

	const attempts = 20
	var wg sync.WaitGroup
	errs := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.testDB.Database.Transaction(context.Background(), func(tx pgx.Tx) error {
				return s.repo.DecrementStock(context.Background(), tx, product.ID, 1)
			})
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			var stockErr *domain.InsufficientStockError
			s.ErrorAs(err, &stockErr)
		}
	}

	s.Equal(10, succeeded)
	s.Equal(0, helpers.GetStockQuantity(s.T(), s.testDB.PgxPool, product.ID))
}

func (s *ProductRepositorySuite) TestIncrementStock() {
	product := helpers.CreateTestProduct(func(p *domain.Product) {
		p.StockQuantity = 5
	})
	s.NoError(s.repo.Save(s.ctx, product))

	err := s.testDB.Database.Transaction(s.ctx, func(tx pgx.Tx) error {
		return s.repo.IncrementStock(s.ctx, tx, product.ID, 7)
	})
	s.NoError(err)
	s.Equal(12, helpers.GetStockQuantity(s.T(), s.testDB.PgxPool, product.ID))
}

func (s *ProductRepositorySuite) TestLockForSale() {
	first := helpers.CreateTestProduct()
	second := helpers.CreateTestProduct(func(p *domain.Product) {
		p.Barcode = "4800361413480"
		p.Name = "Second Item"
	})
	s.NoError(s.repo.Save(s.ctx, first))
	s.NoError(s.repo.Save(s.ctx, second))

	err := s.testDB.Database.Transaction(s.ctx, func(tx pgx.Tx) error {
		locked, err := s.repo.LockForSale(s.ctx, tx, []uuid.UUID{first.ID, second.ID, uuid.New()})
		s.NoError(err)
		s.Len(locked, 2)
		s.Contains(locked, first.ID)
		s.Contains(locked, second.ID)
		return nil
	})
	s.NoError(err)
}

func (s *ProductRepositorySuite) TestFindAll_PaginationAndFilters() {
	for i := 0; i < 25; i++ {
		product := helpers.CreateTestProduct(func(p *domain.Product) {
			p.Barcode = fmt.Sprintf("48000000000%02d", i)
			p.Name = fmt.Sprintf("Item %02d", i)
		})
		s.NoError(s.repo.Save(s.ctx, product))
	}

	products, total, err := s.repo.FindAll(s.ctx, ports.ProductListParams{
		Page:     1,
		PageSize: 10,
	})
	s.NoError(err)
	s.Len(products, 10)
	s.Equal(int64(25), total)
	s.Equal("Item 00", products[0].Name)

	products, total, err = s.repo.FindAll(s.ctx, ports.ProductListParams{
		Page:     3,
		PageSize: 10,
	})
	s.NoError(err)
	s.Len(products, 5)
	s.Equal(int64(25), total)

	products, total, err = s.repo.FindAll(s.ctx, ports.ProductListParams{
		Page:     1,
		PageSize: 10,
		Search:   "Item 07",
	})
	s.NoError(err)
	s.Len(products, 1)
	s.Equal(int64(1), total)
}

func (s *ProductRepositorySuite) TestFindLowStock() {
	low := helpers.CreateTestProduct(func(p *domain.Product) {
		p.Name = "Running Low"
		p.StockQuantity = 2
		p.LowStockThreshold = 10
	})
	healthy := helpers.CreateTestProduct(func(p *domain.Product) {
		p.Barcode = "4800361413480"
		p.Name = "Well Stocked"
		p.StockQuantity = 100
		p.LowStockThreshold = 10
	})
	s.NoError(s.repo.Save(s.ctx, low))
	s.NoError(s.repo.Save(s.ctx, healthy))

	products, err := s.repo.FindLowStock(s.ctx, nil)
	s.NoError(err)
	s.Require().Len(products, 1)
	s.Equal("Running Low", products[0].Name)
}

func TestProductRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(ProductRepositorySuite))
}
