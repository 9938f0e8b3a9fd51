// internal/handlers/sales_handler_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/tindahan-be/internal/core/domain"
	"github.com/ammerola/tindahan-be/internal/core/ports"
	"github.com/ammerola/tindahan-be/internal/handlers"
	"github.com/ammerola/tindahan-be/internal/handlers/middleware"
	"github.com/ammerola/tindahan-be/test/helpers"
	"github.com/ammerola/tindahan-be/test/mocks"
)

const testJWTSecret = "test-secret"

// authenticated wraps a handler func with the auth middleware and returns a
// request factory that carries a signed cashier token, so handlers that read
// the caller identity from the context see a real one.
func authenticated(t *testing.T, handlerFunc http.HandlerFunc, cashierID uuid.UUID) (http.Handler, func(method, target string, body []byte) *http.Request) {
	t.Helper()

	token, err := middleware.IssueToken(testJWTSecret, cashierID, middleware.RoleCashier, nil, time.Hour)
	require.NoError(t, err)

	wrapped := middleware.Authenticate(testJWTSecret)(handlerFunc)
	newRequest := func(method, target string, body []byte) *http.Request {
		req := httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		return req
	}
	return wrapped, newRequest
}

func TestSalesHandler_CreateSale(t *testing.T) {
	cashierID := uuid.New()
	productID := uuid.New()

	validRequest := handlers.CreateSaleRequest{
		Items: []domain.CartLine{
			{ProductID: productID, Quantity: 3},
		},
		PaymentMethod: "cash",
		AmountPaid:    decimalPtr("400.00"),
	}

	tests := []struct {
		name           string
		requestBody    interface{}
		setupMocks     func(*mocks.MockSalesService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:        "successfully_creates_sale",
			requestBody: validRequest,
			setupMocks: func(m *mocks.MockSalesService) {
				m.EXPECT().
					CreateSale(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, input ports.CreateSaleInput) (*domain.Sale, error) {
						assert.Equal(t, cashierID, input.CashierID)
						assert.Equal(t, domain.PaymentCash, input.PaymentMethod)
						require.Len(t, input.Cart, 1)
						assert.Equal(t, 3, input.Cart[0].Quantity)
						return helpers.CreateTestSale(), nil
					})
			},
			expectedStatus: http.StatusCreated,
			validateBody: func(t *testing.T, body []byte) {
				var response domain.Sale
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.NotEmpty(t, response.TransactionNumber)
				assert.Equal(t, domain.SaleCompleted, response.Status)
			},
		},
		{
			name:           "invalid_json_body",
			requestBody:    "not json",
			setupMocks:     func(m *mocks.MockSalesService) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "Invalid request body", response["error"])
			},
		},
		{
			name:        "empty_cart_maps_to_bad_request",
			requestBody: handlers.CreateSaleRequest{PaymentMethod: "cash"},
			setupMocks: func(m *mocks.MockSalesService) {
				m.EXPECT().
					CreateSale(gomock.Any(), gomock.Any()).
					Return(nil, &domain.InvalidCartError{Reason: "cart is empty"})
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "insufficient_stock_maps_to_conflict",
			requestBody: validRequest,
			setupMocks: func(m *mocks.MockSalesService) {
				m.EXPECT().
					CreateSale(gomock.Any(), gomock.Any()).
					Return(nil, &domain.InsufficientStockError{
						ProductID:   productID,
						ProductName: "Lucky Me Pancit Canton",
						Requested:   3,
						Available:   1,
					})
			},
			expectedStatus: http.StatusConflict,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]interface{}
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, productID.String(), response["product_id"])
				assert.Equal(t, float64(3), response["requested"])
				assert.Equal(t, float64(1), response["available"])
			},
		},
		{
			name:        "insufficient_payment_maps_to_unprocessable",
			requestBody: validRequest,
			setupMocks: func(m *mocks.MockSalesService) {
				m.EXPECT().
					CreateSale(gomock.Any(), gomock.Any()).
					Return(nil, &domain.InsufficientPaymentError{
						Total: decimal.RequireFromString("336.00"),
						Paid:  decimal.RequireFromString("100.00"),
					})
			},
			expectedStatus: http.StatusUnprocessableEntity,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]interface{}
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "236", response["shortfall"])
			},
		},
		{
			name:        "unknown_product_maps_to_not_found",
			requestBody: validRequest,
			setupMocks: func(m *mocks.MockSalesService) {
				m.EXPECT().
					CreateSale(gomock.Any(), gomock.Any()).
					Return(nil, &domain.ProductNotFoundError{ProductID: productID})
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:        "storage_failure_maps_to_service_unavailable",
			requestBody: validRequest,
			setupMocks: func(m *mocks.MockSalesService) {
				m.EXPECT().
					CreateSale(gomock.Any(), gomock.Any()).
					Return(nil, &domain.StorageUnavailableError{Op: "create sale", Err: errors.New("connection reset")})
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name:        "unexpected_error_maps_to_internal",
			requestBody: validRequest,
			setupMocks: func(m *mocks.MockSalesService) {
				m.EXPECT().
					CreateSale(gomock.Any(), gomock.Any()).
					Return(nil, errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockSalesService(ctrl)
			handler := handlers.NewSalesHandler(mockService, helpers.TestLogger())
			tt.setupMocks(mockService)

			wrapped, newRequest := authenticated(t, handler.CreateSale, cashierID)

			body, _ := json.Marshal(tt.requestBody)
			req := newRequest("POST", "/api/v1/sales", body)
			w := httptest.NewRecorder()

			wrapped.ServeHTTP(w, req)

			resp := w.Result()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestSalesHandler_CreateSale_MissingIdentity(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mocks.NewMockSalesService(ctrl)
	handler := handlers.NewSalesHandler(mockService, helpers.TestLogger())

	body, _ := json.Marshal(handlers.CreateSaleRequest{PaymentMethod: "cash"})
	req := httptest.NewRequest("POST", "/api/v1/sales", bytes.NewReader(body))
	w := httptest.NewRecorder()

	// Handler invoked without the auth middleware: no caller identity in context.
	handler.CreateSale(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Result().StatusCode)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Missing cashier identity", response["error"])
}

func TestSalesHandler_CancelSale(t *testing.T) {
	testSaleID := uuid.New()

	tests := []struct {
		name           string
		saleID         string
		requestBody    interface{}
		setupMocks     func(*mocks.MockSalesService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:        "successfully_cancels_sale",
			saleID:      testSaleID.String(),
			requestBody: handlers.CancelSaleRequest{Reason: "customer returned items"},
			setupMocks: func(m *mocks.MockSalesService) {
				m.EXPECT().
					CancelSale(gomock.Any(), testSaleID, "customer returned items", gomock.Nil()).
					DoAndReturn(func(ctx context.Context, id uuid.UUID, reason string, storeID *uuid.UUID) (*domain.Sale, error) {
						sale := helpers.CreateTestSale()
						sale.ID = id
						sale.Status = domain.SaleCancelled
						return sale, nil
					})
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var response domain.Sale
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, domain.SaleCancelled, response.Status)
			},
		},
		{
			name:        "empty_body_is_allowed",
			saleID:      testSaleID.String(),
			requestBody: nil,
			setupMocks: func(m *mocks.MockSalesService) {
				m.EXPECT().
					CancelSale(gomock.Any(), testSaleID, "", gomock.Nil()).
					Return(helpers.CreateTestSale(), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid_uuid_format",
			saleID:         "not-a-uuid",
			requestBody:    handlers.CancelSaleRequest{},
			setupMocks:     func(m *mocks.MockSalesService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "sale_not_found",
			saleID:      testSaleID.String(),
			requestBody: handlers.CancelSaleRequest{},
			setupMocks: func(m *mocks.MockSalesService) {
				m.EXPECT().
					CancelSale(gomock.Any(), testSaleID, "", gomock.Nil()).
					Return(nil, &domain.SaleNotFoundError{SaleID: testSaleID})
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:        "double_cancel_maps_to_conflict",
			saleID:      testSaleID.String(),
			requestBody: handlers.CancelSaleRequest{Reason: "again"},
			setupMocks: func(m *mocks.MockSalesService) {
				m.EXPECT().
					CancelSale(gomock.Any(), testSaleID, "again", gomock.Nil()).
					Return(nil, &domain.AlreadyCancelledError{SaleID: testSaleID})
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockSalesService(ctrl)
			handler := handlers.NewSalesHandler(mockService, helpers.TestLogger())
			tt.setupMocks(mockService)

			var body []byte
			if tt.requestBody != nil {
				body, _ = json.Marshal(tt.requestBody)
			}
			req := httptest.NewRequest("POST", "/api/v1/sales/"+tt.saleID+"/cancel", bytes.NewReader(body))
			req.SetPathValue("id", tt.saleID)
			w := httptest.NewRecorder()

			handler.CancelSale(w, req)

			resp := w.Result()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestSalesHandler_GetSale(t *testing.T) {
	testSale := helpers.CreateTestSale()

	tests := []struct {
		name           string
		saleID         string
		setupMocks     func(*mocks.MockSalesService)
		expectedStatus int
	}{
		{
			name:   "successfully_retrieves_sale",
			saleID: testSale.ID.String(),
			setupMocks: func(m *mocks.MockSalesService) {
				m.EXPECT().
					GetSaleByID(gomock.Any(), testSale.ID, gomock.Nil()).
					Return(testSale, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid_uuid_format",
			saleID:         "not-a-uuid",
			setupMocks:     func(m *mocks.MockSalesService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "absent_sale_maps_to_not_found",
			saleID: testSale.ID.String(),
			setupMocks: func(m *mocks.MockSalesService) {
				m.EXPECT().
					GetSaleByID(gomock.Any(), testSale.ID, gomock.Nil()).
					Return(nil, nil)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:   "service_error",
			saleID: testSale.ID.String(),
			setupMocks: func(m *mocks.MockSalesService) {
				m.EXPECT().
					GetSaleByID(gomock.Any(), testSale.ID, gomock.Nil()).
					Return(nil, errors.New("database connection failed"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockSalesService(ctrl)
			handler := handlers.NewSalesHandler(mockService, helpers.TestLogger())
			tt.setupMocks(mockService)

			req := httptest.NewRequest("GET", "/api/v1/sales/"+tt.saleID, nil)
			req.SetPathValue("id", tt.saleID)
			w := httptest.NewRecorder()

			handler.GetSale(w, req)

			assert.Equal(t, tt.expectedStatus, w.Result().StatusCode)
		})
	}
}

func TestSalesHandler_ListSales(t *testing.T) {
	tests := []struct {
		name        string
		queryParams map[string]string
		setupMocks  func(*testing.T, *mocks.MockSalesService)
	}{
		{
			name:        "defaults_page_and_limit",
			queryParams: map[string]string{},
			setupMocks: func(t *testing.T, m *mocks.MockSalesService) {
				m.EXPECT().
					List(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, params ports.SaleListParams) (*ports.SaleListResult, error) {
						assert.Equal(t, 1, params.Page)
						assert.Equal(t, 20, params.PageSize)
						return &ports.SaleListResult{Page: 1, PageSize: 20}, nil
					})
			},
		},
		{
			name:        "caps_limit_at_one_hundred",
			queryParams: map[string]string{"page": "2", "limit": "500"},
			setupMocks: func(t *testing.T, m *mocks.MockSalesService) {
				m.EXPECT().
					List(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, params ports.SaleListParams) (*ports.SaleListResult, error) {
						assert.Equal(t, 2, params.Page)
						assert.Equal(t, 100, params.PageSize)
						return &ports.SaleListResult{Page: 2, PageSize: 100}, nil
					})
			},
		},
		{
			name:        "parses_date_range_and_status",
			queryParams: map[string]string{"start_date": "2026-08-01", "end_date": "2026-08-29", "status": "completed"},
			setupMocks: func(t *testing.T, m *mocks.MockSalesService) {
				m.EXPECT().
					List(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, params ports.SaleListParams) (*ports.SaleListResult, error) {
						require.NotNil(t, params.StartDate)
						require.NotNil(t, params.EndDate)
						assert.Equal(t, "2026-08-01", params.StartDate.Format("2006-01-02"))
						assert.Equal(t, "completed", params.Status)
						return &ports.SaleListResult{Page: 1, PageSize: 20}, nil
					})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockSalesService(ctrl)
			handler := handlers.NewSalesHandler(mockService, helpers.TestLogger())
			tt.setupMocks(t, mockService)

			req := httptest.NewRequest("GET", "/api/v1/sales", nil)
			q := req.URL.Query()
			for k, v := range tt.queryParams {
				q.Add(k, v)
			}
			req.URL.RawQuery = q.Encode()
			w := httptest.NewRecorder()

			handler.ListSales(w, req)

			assert.Equal(t, http.StatusOK, w.Result().StatusCode)
		})
	}
}

func TestSalesHandler_DailySummary(t *testing.T) {
	t.Run("accepts_explicit_date", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockService := mocks.NewMockSalesService(ctrl)
		handler := handlers.NewSalesHandler(mockService, helpers.TestLogger())

		mockService.EXPECT().
			DailySummary(gomock.Any(), gomock.Nil(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, storeID *uuid.UUID, day time.Time) (*ports.DailySummary, error) {
				assert.Equal(t, "2026-08-28", day.Format("2006-01-02"))
				return &ports.DailySummary{}, nil
			})

		req := httptest.NewRequest("GET", "/api/v1/sales/summary?date=2026-08-28", nil)
		w := httptest.NewRecorder()

		handler.DailySummary(w, req)

		assert.Equal(t, http.StatusOK, w.Result().StatusCode)
	})

	t.Run("rejects_malformed_date", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockService := mocks.NewMockSalesService(ctrl)
		handler := handlers.NewSalesHandler(mockService, helpers.TestLogger())

		req := httptest.NewRequest("GET", "/api/v1/sales/summary?date=28-08-2026", nil)
		w := httptest.NewRecorder()

		handler.DailySummary(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	})
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
