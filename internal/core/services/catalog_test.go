// internal/core/services/catalog_test.go
package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/tindahan-be/internal/core/domain"
	"github.com/ammerola/tindahan-be/internal/core/ports"
	"github.com/ammerola/tindahan-be/internal/core/services"
	"github.com/ammerola/tindahan-be/test/helpers"
	"github.com/ammerola/tindahan-be/test/mocks"
)

func newCatalogService(t *testing.T) (*services.CatalogService, *mocks.MockProductRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockRepo := mocks.NewMockProductRepository(ctrl)
	return services.NewCatalogService(mockRepo, helpers.TestLogger()), mockRepo
}

func TestCatalogService_CreateProduct(t *testing.T) {
	tests := []struct {
		name          string
		product       *domain.Product
		setupMocks    func(*mocks.MockProductRepository)
		expectedError bool
		errorContains string
	}{
		{
			name:    "saves_valid_product",
			product: helpers.CreateTestProduct(),
			setupMocks: func(m *mocks.MockProductRepository) {
				m.EXPECT().
					FindByBarcode(gomock.Any(), gomock.Any()).
					Return(nil, nil)
				m.EXPECT().
					Save(gomock.Any(), gomock.Any()).
					Return(nil)
			},
		},
		{
			name: "skips_barcode_check_when_absent",
			product: helpers.CreateTestProduct(func(p *domain.Product) {
				p.Barcode = ""
			}),
			setupMocks: func(m *mocks.MockProductRepository) {
				m.EXPECT().
					Save(gomock.Any(), gomock.Any()).
					Return(nil)
			},
		},
		{
			name: "rejects_duplicate_barcode",
			product: helpers.CreateTestProduct(func(p *domain.Product) {
				p.Barcode = "4800016644931"
			}),
			setupMocks: func(m *mocks.MockProductRepository) {
				m.EXPECT().
					FindByBarcode(gomock.Any(), "4800016644931").
					Return(helpers.CreateTestProduct(), nil)
			},
			expectedError: true,
			errorContains: "barcode already in use",
		},
		{
			name: "rejects_empty_name",
			product: helpers.CreateTestProduct(func(p *domain.Product) {
				p.Name = ""
			}),
			setupMocks:    func(m *mocks.MockProductRepository) {},
			expectedError: true,
			errorContains: "name is required",
		},
		{
			name: "rejects_negative_price",
			product: helpers.CreateTestProduct(func(p *domain.Product) {
				p.UnitPrice = decimal.NewFromFloat(-1.00)
			}),
			setupMocks:    func(m *mocks.MockProductRepository) {},
			expectedError: true,
			errorContains: "unit_price cannot be negative",
		},
		{
			name:    "repository_save_error",
			product: helpers.CreateTestProduct(),
			setupMocks: func(m *mocks.MockProductRepository) {
				m.EXPECT().
					FindByBarcode(gomock.Any(), gomock.Any()).
					Return(nil, nil)
				m.EXPECT().
					Save(gomock.Any(), gomock.Any()).
					Return(errors.New("database connection failed"))
			},
			expectedError: true,
			errorContains: "database connection failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, mockRepo := newCatalogService(t)
			tt.setupMocks(mockRepo)

			err := service.CreateProduct(context.Background(), tt.product)

			if tt.expectedError {
				require.Error(t, err)
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
			} else {
				require.NoError(t, err)
				assert.NotEqual(t, uuid.Nil, tt.product.ID)
			}
		})
	}
}

func TestCatalogService_GetByID(t *testing.T) {
	t.Run("returns_typed_error_when_absent", func(t *testing.T) {
		service, mockRepo := newCatalogService(t)

		id := uuid.New()
		mockRepo.EXPECT().
			FindByID(gomock.Any(), id).
			Return(nil, nil)

		_, err := service.GetByID(context.Background(), id)

		var notFound *domain.ProductNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, id, notFound.ProductID)
	})

	t.Run("returns_product", func(t *testing.T) {
		service, mockRepo := newCatalogService(t)

		expected := helpers.CreateTestProduct()
		mockRepo.EXPECT().
			FindByID(gomock.Any(), expected.ID).
			Return(expected, nil)

		product, err := service.GetByID(context.Background(), expected.ID)
		require.NoError(t, err)
		assert.Equal(t, expected.Name, product.Name)
	})
}

func TestCatalogService_GetByBarcode(t *testing.T) {
	service, mockRepo := newCatalogService(t)

	mockRepo.EXPECT().
		FindByBarcode(gomock.Any(), "0000000000000").
		Return(nil, nil)

	_, err := service.GetByBarcode(context.Background(), "0000000000000")

	var notFound *domain.ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "0000000000000", notFound.Barcode)
}

func TestCatalogService_DeleteProduct(t *testing.T) {
	t.Run("soft_deletes_existing_product", func(t *testing.T) {
		service, mockRepo := newCatalogService(t)

		id := uuid.New()
		mockRepo.EXPECT().Exists(gomock.Any(), id).Return(true, nil)
		mockRepo.EXPECT().SoftDelete(gomock.Any(), id).Return(nil)

		require.NoError(t, service.DeleteProduct(context.Background(), id))
	})

	t.Run("rejects_unknown_product", func(t *testing.T) {
		service, mockRepo := newCatalogService(t)

		id := uuid.New()
		mockRepo.EXPECT().Exists(gomock.Any(), id).Return(false, nil)

		err := service.DeleteProduct(context.Background(), id)

		var notFound *domain.ProductNotFoundError
		require.ErrorAs(t, err, &notFound)
	})
}

func TestCatalogService_List(t *testing.T) {
	service, mockRepo := newCatalogService(t)

	products := []*domain.Product{helpers.CreateTestProduct()}
	mockRepo.EXPECT().
		FindAll(gomock.Any(), ports.ProductListParams{Page: 1, PageSize: 20, Category: "snacks"}).
		Return(products, int64(25), nil)

	result, err := service.List(context.Background(), ports.ProductListParams{Page: 0, PageSize: 0, Category: "snacks"})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 20, result.PageSize)
	assert.Equal(t, int64(25), result.TotalCount)
	assert.Equal(t, 2, result.TotalPages)
}

func TestCatalogService_LowStock(t *testing.T) {
	service, mockRepo := newCatalogService(t)

	low := helpers.CreateTestProduct(func(p *domain.Product) {
		p.StockQuantity = 3
		p.LowStockThreshold = 10
	})
	mockRepo.EXPECT().
		FindLowStock(gomock.Any(), nil).
		Return([]*domain.Product{low}, nil)

	products, err := service.LowStock(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.True(t, products[0].IsLowStock())
}
