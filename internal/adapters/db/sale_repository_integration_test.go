//go:build integration
// +build integration

package db_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/ammerola/tindahan-be/internal/adapters/db"
	"github.com/ammerola/tindahan-be/internal/core/domain"
	"github.com/ammerola/tindahan-be/internal/core/ports"
	"github.com/ammerola/tindahan-be/test/helpers"
)

type SaleRepositorySuite struct {
	suite.Suite
	testDB *helpers.TestDB
	repo   ports.SaleRepository
	ctx    context.Context
}

func (s *SaleRepositorySuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.repo = db.NewSaleRepository(s.testDB.Database, helpers.TestLogger())
	s.ctx = context.Background()
}

func (s *SaleRepositorySuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
}

// seedSale seeds a backing product and inserts a completed sale against it.
func (s *SaleRepositorySuite) seedSale(overrides ...func(*domain.Sale)) *domain.Sale {
	product := helpers.CreateTestProduct()
	helpers.SeedTestProducts(s.T(), s.testDB.PgxPool, []*domain.Product{product})

	sale := helpers.CreateTestSale(func(sale *domain.Sale) {
		sale.Items[0].ProductID = product.ID
	})
	for _, override := range overrides {
		override(sale)
	}

	err := s.testDB.Database.Transaction(s.ctx, func(tx pgx.Tx) error {
		return s.repo.Insert(s.ctx, tx, sale)
	})
	s.Require().NoError(err)
	return sale
}

func (s *SaleRepositorySuite) TestNextTransactionNumber() {
	day := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	s.Run("starts_at_one_and_increments", func() {
		for want := 1; want <= 3; want++ {
			var got int
			err := s.testDB.Database.Transaction(s.ctx, func(tx pgx.Tx) error {
				var err error
				got, err = s.repo.NextTransactionNumber(s.ctx, tx, day)
				return err
			})
			s.NoError(err)
			s.Equal(want, got)
		}
	})

	s.Run("separate_days_have_separate_counters", func() {
		nextDay := day.AddDate(0, 0, 1)
		var got int
		err := s.testDB.Database.Transaction(s.ctx, func(tx pgx.Tx) error {
			var err error
			got, err = s.repo.NextTransactionNumber(s.ctx, tx, nextDay)
			return err
		})
		s.NoError(err)
		s.Equal(1, got)
	})

	s.Run("aborted_transaction_rolls_the_counter_back", func() {
		rollback := fmt.Errorf("forced rollback")
		err := s.testDB.Database.Transaction(s.ctx, func(tx pgx.Tx) error {
			if _, err := s.repo.NextTransactionNumber(s.ctx, tx, day); err != nil {
				return err
			}
			return rollback
		})
		s.ErrorIs(err, rollback)

		var got int
		err = s.testDB.Database.Transaction(s.ctx, func(tx pgx.Tx) error {
			var err error
			got, err = s.repo.NextTransactionNumber(s.ctx, tx, day)
			return err
		})
		s.NoError(err)
		s.Equal(4, got)
	})
}

func (s *SaleRepositorySuite) TestInsertAndFindByID() {
	sale := s.seedSale()

	found, err := s.repo.FindByID(s.ctx, sale.ID, nil)
	s.NoError(err)
	s.Require().NotNil(found)
	s.Equal(sale.TransactionNumber, found.TransactionNumber)
	s.Equal(domain.SaleCompleted, found.Status)
	s.True(sale.TotalAmount.Equal(found.TotalAmount))
	s.Require().Len(found.Items, 1)
	s.Equal(sale.Items[0].ProductID, found.Items[0].ProductID)
	s.Equal(3, found.Items[0].Quantity)
	s.True(decimal.NewFromFloat(15.00).Equal(found.Items[0].UnitPrice))
}

func (s *SaleRepositorySuite) TestFindByID_StoreScope() {
	storeID := uuid.New()
	otherStore := uuid.New()
	sale := s.seedSale(func(sale *domain.Sale) {
		sale.StoreID = &storeID
	})

	found, err := s.repo.FindByID(s.ctx, sale.ID, &storeID)
	s.NoError(err)
	s.NotNil(found)

	found, err = s.repo.FindByID(s.ctx, sale.ID, &otherStore)
	s.NoError(err)
	s.Nil(found)
}

func (s *SaleRepositorySuite) TestFindByID_Absent() {
	found, err := s.repo.FindByID(s.ctx, uuid.New(), nil)
	s.NoError(err)
	s.Nil(found)
}

func (s *SaleRepositorySuite) TestMarkCancelled() {
	sale := s.seedSale(func(sale *domain.Sale) {
		sale.Notes = "regular checkout"
	})

	err := s.testDB.Database.Transaction(s.ctx, func(tx pgx.Tx) error {
		return s.repo.MarkCancelled(s.ctx, tx, sale.ID, "customer returned items")
	})
	s.NoError(err)

	cancelled, err := s.repo.FindByID(s.ctx, sale.ID, nil)
	s.NoError(err)
	s.Require().NotNil(cancelled)
	s.Equal(domain.SaleCancelled, cancelled.Status)
	s.Contains(cancelled.Notes, "regular checkout")
	s.Contains(cancelled.Notes, "Cancelled: customer returned items")

	// The line items survive the cancellation for audit.
	s.Len(cancelled.Items, 1)
}

func (s *SaleRepositorySuite) TestMarkCancelled_OnlyCompletedSales() {
	sale := s.seedSale()

	err := s.testDB.Database.Transaction(s.ctx, func(tx pgx.Tx) error {
		return s.repo.MarkCancelled(s.ctx, tx, sale.ID, "first")
	})
	s.NoError(err)

	// A second cancel matches zero rows.
	err = s.testDB.Database.Transaction(s.ctx, func(tx pgx.Tx) error {
		return s.repo.MarkCancelled(s.ctx, tx, sale.ID, "second")
	})
	var notFound *domain.SaleNotFoundError
	s.ErrorAs(err, &notFound)
}

func (s *SaleRepositorySuite) TestFindByIDForUpdate() {
	sale := s.seedSale()

	err := s.testDB.Database.Transaction(s.ctx, func(tx pgx.Tx) error {
		locked, err := s.repo.FindByIDForUpdate(s.ctx, tx, sale.ID, nil)
		s.NoError(err)
		s.Require().NotNil(locked)
		s.Equal(sale.ID, locked.ID)
		s.Require().Len(locked.Items, 1)
		s.NotEmpty(locked.Items[0].ProductName)
		return nil
	})
	s.NoError(err)
}

func (s *SaleRepositorySuite) TestList() {
	product := helpers.CreateTestProduct()
	helpers.SeedTestProducts(s.T(), s.testDB.PgxPool, []*domain.Product{product})

	for i := 0; i < 5; i++ {
		sale := helpers.CreateTestSale(func(sale *domain.Sale) {
			sale.TransactionNumber = fmt.Sprintf("TXN-20260829-%05d", i+1)
			sale.Items[0].ProductID = product.ID
			sale.CreatedAt = time.Now().Add(time.Duration(i) * time.Minute)
		})
		err := s.testDB.Database.Transaction(s.ctx, func(tx pgx.Tx) error {
			return s.repo.Insert(s.ctx, tx, sale)
		})
		s.Require().NoError(err)
	}

	sales, total, err := s.repo.List(s.ctx, ports.SaleListParams{
		Page:     1,
		PageSize: 3,
	})
	s.NoError(err)
	s.Len(sales, 3)
	s.Equal(int64(5), total)

	sales, total, err = s.repo.List(s.ctx, ports.SaleListParams{
		Page:     1,
		PageSize: 10,
		Status:   string(domain.SaleCancelled),
	})
	s.NoError(err)
	s.Empty(sales)
	s.Equal(int64(0), total)
}

func (s *SaleRepositorySuite) TestDailySummary() {
	product := helpers.CreateTestProduct()
	helpers.SeedTestProducts(s.T(), s.testDB.PgxPool, []*domain.Product{product})

	today := time.Now()
	for i := 0; i < 2; i++ {
		sale := helpers.CreateTestSale(func(sale *domain.Sale) {
			sale.TransactionNumber = fmt.Sprintf("TXN-%s-%05d", today.Format("20060102"), i+1)
			sale.Items[0].ProductID = product.ID
		})
		err := s.testDB.Database.Transaction(s.ctx, func(tx pgx.Tx) error {
			return s.repo.Insert(s.ctx, tx, sale)
		})
		s.Require().NoError(err)
	}

	summary, err := s.repo.DailySummary(s.ctx, nil, today)
	s.NoError(err)
	s.Require().NotNil(summary)
	s.Equal(int64(2), summary.SaleCount)
	s.True(decimal.NewFromFloat(100.80).Equal(summary.TotalRevenue))
}

func TestSaleRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(SaleRepositorySuite))
}
