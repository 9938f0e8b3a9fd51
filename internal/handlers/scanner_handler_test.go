// internal/handlers/scanner_handler_test.go
package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/tindahan-be/internal/core/domain"
	"github.com/ammerola/tindahan-be/internal/core/services"
	"github.com/ammerola/tindahan-be/internal/handlers"
	"github.com/ammerola/tindahan-be/test/helpers"
	"github.com/ammerola/tindahan-be/test/mocks"
)

// The scanner handler takes the concrete scanner service, so these tests mock
// one layer lower: catalog, sales, and the scan audit repository.
func newScannerHandler(t *testing.T) (*handlers.ScannerHandler, *mocks.MockCatalogService, *mocks.MockSalesService, *mocks.MockScanRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)

	mockCatalog := mocks.NewMockCatalogService(ctrl)
	mockSales := mocks.NewMockSalesService(ctrl)
	mockScans := mocks.NewMockScanRepository(ctrl)

	scanner := services.NewScannerService(mockCatalog, mockSales, mockScans, helpers.TestLogger())
	handler := handlers.NewScannerHandler(scanner, helpers.TestLogger())
	return handler, mockCatalog, mockSales, mockScans
}

func TestScannerHandler_Resolve(t *testing.T) {
	cashierID := uuid.New()
	testProduct := helpers.CreateTestProduct()

	t.Run("resolves_known_barcode", func(t *testing.T) {
		handler, mockCatalog, _, mockScans := newScannerHandler(t)

		mockCatalog.EXPECT().
			GetByBarcode(gomock.Any(), testProduct.Barcode).
			Return(testProduct, nil)
		mockScans.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

		wrapped, newRequest := authenticated(t, handler.Resolve, cashierID)

		body, _ := json.Marshal(handlers.ResolveRequest{Barcode: testProduct.Barcode, DeviceID: "pos-01"})
		req := newRequest("POST", "/api/v1/scanner/resolve", body)
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Result().StatusCode)

		var response domain.Product
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, testProduct.ID, response.ID)
	})

	t.Run("unknown_barcode_maps_to_not_found", func(t *testing.T) {
		handler, mockCatalog, _, mockScans := newScannerHandler(t)

		mockCatalog.EXPECT().
			GetByBarcode(gomock.Any(), "0000000000000").
			Return(nil, &domain.ProductNotFoundError{Barcode: "0000000000000"})
		mockScans.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

		wrapped, newRequest := authenticated(t, handler.Resolve, cashierID)

		body, _ := json.Marshal(handlers.ResolveRequest{Barcode: "0000000000000"})
		req := newRequest("POST", "/api/v1/scanner/resolve", body)
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Result().StatusCode)
	})

	t.Run("missing_barcode", func(t *testing.T) {
		handler, _, _, _ := newScannerHandler(t)

		wrapped, newRequest := authenticated(t, handler.Resolve, cashierID)

		body, _ := json.Marshal(handlers.ResolveRequest{})
		req := newRequest("POST", "/api/v1/scanner/resolve", body)
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	})

	t.Run("rejects_request_without_token", func(t *testing.T) {
		handler, _, _, _ := newScannerHandler(t)

		wrapped, _ := authenticated(t, handler.Resolve, cashierID)

		req := httptest.NewRequest("POST", "/api/v1/scanner/resolve", nil)
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Result().StatusCode)
		assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	})
}

func TestScannerHandler_QuickSale(t *testing.T) {
	cashierID := uuid.New()
	testProduct := helpers.CreateTestProduct()

	t.Run("completes_quick_sale", func(t *testing.T) {
		handler, mockCatalog, mockSales, mockScans := newScannerHandler(t)

		mockCatalog.EXPECT().
			GetByBarcode(gomock.Any(), testProduct.Barcode).
			Return(testProduct, nil)
		mockScans.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
		mockSales.EXPECT().
			CreateSale(gomock.Any(), gomock.Any()).
			Return(helpers.CreateTestSale(), nil)

		wrapped, newRequest := authenticated(t, handler.QuickSale, cashierID)

		body, _ := json.Marshal(handlers.QuickSaleRequest{
			Items: []handlers.QuickSaleItem{
				{Barcode: testProduct.Barcode, Quantity: 2},
			},
			PaymentMethod: "cash",
		})
		req := newRequest("POST", "/api/v1/scanner/quick-sale", body)
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Result().StatusCode)
	})

	t.Run("empty_cart_maps_to_bad_request", func(t *testing.T) {
		handler, _, _, _ := newScannerHandler(t)

		wrapped, newRequest := authenticated(t, handler.QuickSale, cashierID)

		body, _ := json.Marshal(handlers.QuickSaleRequest{PaymentMethod: "cash"})
		req := newRequest("POST", "/api/v1/scanner/quick-sale", body)
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	})

	t.Run("insufficient_stock_maps_to_conflict", func(t *testing.T) {
		handler, mockCatalog, mockSales, mockScans := newScannerHandler(t)

		mockCatalog.EXPECT().
			GetByBarcode(gomock.Any(), testProduct.Barcode).
			Return(testProduct, nil)
		mockScans.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
		mockSales.EXPECT().
			CreateSale(gomock.Any(), gomock.Any()).
			Return(nil, &domain.InsufficientStockError{
				ProductID: testProduct.ID,
				Requested: 10,
				Available: 2,
			})

		wrapped, newRequest := authenticated(t, handler.QuickSale, cashierID)

		body, _ := json.Marshal(handlers.QuickSaleRequest{
			Items: []handlers.QuickSaleItem{
				{Barcode: testProduct.Barcode, Quantity: 10},
			},
			PaymentMethod: "cash",
		})
		req := newRequest("POST", "/api/v1/scanner/quick-sale", body)
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Result().StatusCode)
	})
}

func TestScannerHandler_History(t *testing.T) {
	handler, _, _, mockScans := newScannerHandler(t)

	mockScans.EXPECT().
		List(gomock.Any(), gomock.Any()).
		Return([]domain.ProductScan{{ID: uuid.New()}}, int64(1), nil)

	req := httptest.NewRequest("GET", "/api/v1/scanner/history?page=1&limit=10", nil)
	w := httptest.NewRecorder()

	handler.History(w, req)

	assert.Equal(t, http.StatusOK, w.Result().StatusCode)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(1), response["total_count"])
	assert.Equal(t, float64(10), response["page_size"])
}
