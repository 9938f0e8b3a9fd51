// internal/core/services/inventory_service_test.go
package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/tindahan-be/internal/core/domain"
	"github.com/ammerola/tindahan-be/internal/core/ports"
	"github.com/ammerola/tindahan-be/internal/core/services"
	"github.com/ammerola/tindahan-be/test/helpers"
	"github.com/ammerola/tindahan-be/test/mocks"
)

func newInventoryService(t *testing.T) (*services.InventoryService, *mocks.MockTxRunner, *mocks.MockProductRepository, *mocks.MockBatchRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)

	mockTx := mocks.NewMockTxRunner(ctrl)
	mockProducts := mocks.NewMockProductRepository(ctrl)
	mockBatches := mocks.NewMockBatchRepository(ctrl)

	service := services.NewInventoryService(mockTx, mockProducts, mockBatches, helpers.TestLogger())
	return service, mockTx, mockProducts, mockBatches
}

func TestInventoryService_AddStock(t *testing.T) {
	productID := uuid.New()

	t.Run("creates_batch_and_bumps_counter", func(t *testing.T) {
		service, mockTx, mockProducts, mockBatches := newInventoryService(t)
		passthroughTx(mockTx)

		expiry := time.Now().AddDate(0, 3, 0)

		mockProducts.EXPECT().
			Exists(gomock.Any(), productID).
			Return(true, nil)
		mockBatches.EXPECT().
			Insert(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, tx pgx.Tx, batch *domain.InventoryBatch) error {
				assert.Equal(t, productID, batch.ProductID)
				assert.Equal(t, 24, batch.Quantity)
				assert.NotEqual(t, uuid.Nil, batch.ID)
				return nil
			})
		mockProducts.EXPECT().
			IncrementStock(gomock.Any(), gomock.Any(), productID, 24).
			Return(nil)

		batch, err := service.AddStock(context.Background(), ports.AddStockInput{
			ProductID:   productID,
			Quantity:    24,
			BatchNumber: "DEL-20260829",
			ExpiryDate:  &expiry,
			Location:    "back room",
		})

		require.NoError(t, err)
		require.NotNil(t, batch)
		assert.Equal(t, "DEL-20260829", batch.BatchNumber)
	})

	t.Run("rejects_unknown_product", func(t *testing.T) {
		service, mockTx, mockProducts, _ := newInventoryService(t)
		passthroughTx(mockTx)

		mockProducts.EXPECT().
			Exists(gomock.Any(), productID).
			Return(false, nil)

		_, err := service.AddStock(context.Background(), ports.AddStockInput{
			ProductID: productID,
			Quantity:  10,
		})

		var notFound *domain.ProductNotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("rejects_non_positive_quantity", func(t *testing.T) {
		service, _, _, _ := newInventoryService(t)

		_, err := service.AddStock(context.Background(), ports.AddStockInput{
			ProductID: productID,
			Quantity:  0,
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "quantity must be at least 1")
	})
}

func TestInventoryService_RemoveStock(t *testing.T) {
	product := helpers.CreateTestProduct(func(p *domain.Product) {
		p.StockQuantity = 30
	})

	// Batches arrive from the repository already in depletion order:
	// soonest expiry first, no-expiry last.
	soonExpiry := time.Now().AddDate(0, 0, 7)
	laterExpiry := time.Now().AddDate(0, 2, 0)

	makeBatches := func() []domain.InventoryBatch {
		return []domain.InventoryBatch{
			{ID: uuid.New(), ProductID: product.ID, Quantity: 5, BatchNumber: "B1", ExpiryDate: &soonExpiry},
			{ID: uuid.New(), ProductID: product.ID, Quantity: 10, BatchNumber: "B2", ExpiryDate: &laterExpiry},
			{ID: uuid.New(), ProductID: product.ID, Quantity: 15, BatchNumber: "B3"},
		}
	}

	t.Run("depletes_in_expiry_order_across_batches", func(t *testing.T) {
		service, mockTx, mockProducts, mockBatches := newInventoryService(t)
		passthroughTx(mockTx)

		batches := makeBatches()

		mockProducts.EXPECT().
			LockForSale(gomock.Any(), gomock.Any(), []uuid.UUID{product.ID}).
			Return(map[uuid.UUID]*domain.Product{product.ID: product}, nil)
		mockBatches.EXPECT().
			FindByProductForUpdate(gomock.Any(), gomock.Any(), product.ID).
			Return(batches, nil)
		gomock.InOrder(
			mockBatches.EXPECT().
				Deplete(gomock.Any(), gomock.Any(), batches[0].ID, 5).
				Return(nil),
			mockBatches.EXPECT().
				Deplete(gomock.Any(), gomock.Any(), batches[1].ID, 7).
				Return(nil),
		)
		mockProducts.EXPECT().
			DecrementStock(gomock.Any(), gomock.Any(), product.ID, 12).
			Return(nil)

		removal, err := service.RemoveStock(context.Background(), product.ID, 12, "expired")

		require.NoError(t, err)
		require.NotNil(t, removal)
		assert.Equal(t, 12, removal.QuantityRemoved)
		require.Len(t, removal.BatchesAffected, 2)
		assert.Equal(t, "B1", removal.BatchesAffected[0].BatchNumber)
		assert.Equal(t, 5, removal.BatchesAffected[0].QuantityTaken)
		assert.Equal(t, "B2", removal.BatchesAffected[1].BatchNumber)
		assert.Equal(t, 7, removal.BatchesAffected[1].QuantityTaken)
	})

	t.Run("exact_single_batch_leaves_others_untouched", func(t *testing.T) {
		service, mockTx, mockProducts, mockBatches := newInventoryService(t)
		passthroughTx(mockTx)

		batches := makeBatches()

		mockProducts.EXPECT().
			LockForSale(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(map[uuid.UUID]*domain.Product{product.ID: product}, nil)
		mockBatches.EXPECT().
			FindByProductForUpdate(gomock.Any(), gomock.Any(), product.ID).
			Return(batches, nil)
		mockBatches.EXPECT().
			Deplete(gomock.Any(), gomock.Any(), batches[0].ID, 5).
			Return(nil)
		mockProducts.EXPECT().
			DecrementStock(gomock.Any(), gomock.Any(), product.ID, 5).
			Return(nil)

		removal, err := service.RemoveStock(context.Background(), product.ID, 5, "damaged")

		require.NoError(t, err)
		require.Len(t, removal.BatchesAffected, 1)
		assert.Equal(t, "B1", removal.BatchesAffected[0].BatchNumber)
	})

	t.Run("shortfall_mutates_nothing", func(t *testing.T) {
		service, mockTx, mockProducts, mockBatches := newInventoryService(t)
		passthroughTx(mockTx)

		batches := makeBatches() // 30 total available

		mockProducts.EXPECT().
			LockForSale(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(map[uuid.UUID]*domain.Product{product.ID: product}, nil)
		mockBatches.EXPECT().
			FindByProductForUpdate(gomock.Any(), gomock.Any(), product.ID).
			Return(batches, nil)
		// No Deplete and no DecrementStock calls.

		_, err := service.RemoveStock(context.Background(), product.ID, 31, "waste")

		var stockErr *domain.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, 31, stockErr.Requested)
		assert.Equal(t, 30, stockErr.Available)
	})

	t.Run("skips_empty_batches", func(t *testing.T) {
		service, mockTx, mockProducts, mockBatches := newInventoryService(t)
		passthroughTx(mockTx)

		empty := domain.InventoryBatch{ID: uuid.New(), ProductID: product.ID, Quantity: 0, BatchNumber: "E0", ExpiryDate: &soonExpiry}
		full := domain.InventoryBatch{ID: uuid.New(), ProductID: product.ID, Quantity: 10, BatchNumber: "F1", ExpiryDate: &laterExpiry}

		mockProducts.EXPECT().
			LockForSale(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(map[uuid.UUID]*domain.Product{product.ID: product}, nil)
		mockBatches.EXPECT().
			FindByProductForUpdate(gomock.Any(), gomock.Any(), product.ID).
			Return([]domain.InventoryBatch{empty, full}, nil)
		mockBatches.EXPECT().
			Deplete(gomock.Any(), gomock.Any(), full.ID, 4).
			Return(nil)
		mockProducts.EXPECT().
			DecrementStock(gomock.Any(), gomock.Any(), product.ID, 4).
			Return(nil)

		removal, err := service.RemoveStock(context.Background(), product.ID, 4, "adjustment")

		require.NoError(t, err)
		require.Len(t, removal.BatchesAffected, 1)
		assert.Equal(t, "F1", removal.BatchesAffected[0].BatchNumber)
	})

	t.Run("rejects_unknown_product", func(t *testing.T) {
		service, mockTx, mockProducts, _ := newInventoryService(t)
		passthroughTx(mockTx)

		missing := uuid.New()
		mockProducts.EXPECT().
			LockForSale(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(map[uuid.UUID]*domain.Product{}, nil)

		_, err := service.RemoveStock(context.Background(), missing, 1, "waste")

		var notFound *domain.ProductNotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("wraps_storage_failure", func(t *testing.T) {
		service, mockTx, _, _ := newInventoryService(t)

		mockTx.EXPECT().
			Transaction(gomock.Any(), gomock.Any()).
			Return(errors.New("connection reset"))

		_, err := service.RemoveStock(context.Background(), product.ID, 1, "waste")

		var storageErr *domain.StorageUnavailableError
		require.ErrorAs(t, err, &storageErr)
	})
}

func TestInventoryService_ListBatches(t *testing.T) {
	service, _, _, mockBatches := newInventoryService(t)

	productID := uuid.New()
	expected := []domain.InventoryBatch{
		*helpers.CreateTestBatch(productID),
		*helpers.CreateTestBatch(productID),
	}

	mockBatches.EXPECT().
		ListByProduct(gomock.Any(), productID).
		Return(expected, nil)

	batches, err := service.ListBatches(context.Background(), productID)
	require.NoError(t, err)
	assert.Len(t, batches, 2)
}
