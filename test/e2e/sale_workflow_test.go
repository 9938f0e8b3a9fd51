//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/ammerola/tindahan-be/internal/adapters/db"
	redis_a "github.com/ammerola/tindahan-be/internal/adapters/redis_adapter"
	"github.com/ammerola/tindahan-be/internal/core/services"
	"github.com/ammerola/tindahan-be/internal/handlers"
	"github.com/ammerola/tindahan-be/internal/handlers/middleware"
	"github.com/ammerola/tindahan-be/internal/pkg/config"
	"github.com/ammerola/tindahan-be/test/helpers"
)

const e2eJWTSecret = "e2e-secret"

type SaleWorkflowE2ESuite struct {
	suite.Suite
	server     *httptest.Server
	client     *http.Client
	baseURL    string
	testDB     *helpers.TestDB
	testRedis  *helpers.TestRedis
	ownerToken string
	cashierID  uuid.UUID
}

func (s *SaleWorkflowE2ESuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.testRedis = helpers.SetupTestRedis(s.T())

	s.cashierID = uuid.New()
	token, err := middleware.IssueToken(e2eJWTSecret, s.cashierID, middleware.RoleOwner, nil, time.Hour)
	s.Require().NoError(err)
	s.ownerToken = token

	s.server = s.startTestServer()
	s.client = &http.Client{Timeout: 10 * time.Second}
	s.baseURL = s.server.URL + "/api/v1"
}

func (s *SaleWorkflowE2ESuite) TearDownSuite() {
	s.server.Close()
}

func (s *SaleWorkflowE2ESuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
	s.testRedis.Server.FlushAll()
}

func (s *SaleWorkflowE2ESuite) TestCompleteSaleWorkflow() {
	// 1. Register a product
	createReq := map[string]interface{}{
		"barcode":             "4800016644931",
		"name":                "Lucky Me Pancit Canton Chilimansi 60g",
		"category":            "instant_noodles",
		"unit_price":          "15.00",
		"low_stock_threshold": 10,
	}

	resp := s.makeRequest("POST", "/products", createReq)
	s.Equal(http.StatusCreated, resp.StatusCode)

	var product map[string]interface{}
	s.decodeResponse(resp, &product)
	productID := product["id"].(string)
	s.NotEmpty(productID)

	// 2. Receive a delivery
	addStockReq := map[string]interface{}{
		"product_id":   productID,
		"quantity":     24,
		"batch_number": "DEL-20260829",
	}

	resp = s.makeRequest("POST", "/inventory/stock", addStockReq)
	s.Equal(http.StatusCreated, resp.StatusCode)

	// 3. Ring up a sale
	saleReq := map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": productID, "quantity": 3},
		},
		"payment_method": "cash",
		"amount_paid":    "100.00",
	}

	resp = s.makeRequest("POST", "/sales", saleReq)
	s.Equal(http.StatusCreated, resp.StatusCode)

	var sale map[string]interface{}
	s.decodeResponse(resp, &sale)
	saleID := sale["id"].(string)
	s.Equal("45", sale["subtotal"])
	s.Equal("5.4", sale["tax"])
	s.Equal("50.4", sale["total_amount"])
	s.Equal("49.6", sale["change_given"])
	s.Equal("completed", sale["status"])

	// 4. Stock reflects the sale
	resp = s.makeRequest("GET", fmt.Sprintf("/products/%s", productID), nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.decodeResponse(resp, &product)
	s.Equal(float64(21), product["stock_quantity"])

	// 5. Look up the receipt
	resp = s.makeRequest("GET", fmt.Sprintf("/sales/%s", saleID), nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.decodeResponse(resp, &sale)
	items := sale["items"].([]interface{})
	s.Len(items, 1)

	// 6. Cancel the sale and get the stock back
	resp = s.makeRequest("POST", fmt.Sprintf("/sales/%s/cancel", saleID),
		map[string]interface{}{"reason": "customer returned items"})
	s.Equal(http.StatusOK, resp.StatusCode)

	resp = s.makeRequest("GET", fmt.Sprintf("/products/%s", productID), nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.decodeResponse(resp, &product)
	s.Equal(float64(24), product["stock_quantity"])

	// 7. Cancelling twice is rejected
	resp = s.makeRequest("POST", fmt.Sprintf("/sales/%s/cancel", saleID),
		map[string]interface{}{"reason": "again"})
	s.Equal(http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func (s *SaleWorkflowE2ESuite) TestOversellIsRejectedAtomically() {
	productID := s.createProduct("Bear Brand Powdered Milk 33g", "4800361413480", "12.00")
	s.addStock(productID, 5)

	saleReq := map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": productID, "quantity": 8},
		},
		"payment_method": "cash",
		"amount_paid":    "500.00",
	}

	resp := s.makeRequest("POST", "/sales", saleReq)
	s.Equal(http.StatusConflict, resp.StatusCode)

	var body map[string]interface{}
	s.decodeResponse(resp, &body)
	s.Equal(float64(8), body["requested"])
	s.Equal(float64(5), body["available"])

	// Nothing was sold and nothing was decremented.
	var product map[string]interface{}
	resp = s.makeRequest("GET", fmt.Sprintf("/products/%s", productID), nil)
	s.decodeResponse(resp, &product)
	s.Equal(float64(5), product["stock_quantity"])

	resp = s.makeRequest("GET", "/sales", nil)
	var list map[string]interface{}
	s.decodeResponse(resp, &list)
	s.Equal(float64(0), list["total_count"])
}

func (s *SaleWorkflowE2ESuite) TestScannerQuickSaleWorkflow() {
	productID := s.createProduct("Kopiko Brown Coffee Twin Pack", "8996001600146", "11.50")
	s.addStock(productID, 50)

	// Resolve the barcode the way the scanner app does.
	resp := s.makeRequest("POST", "/scanner/resolve",
		map[string]interface{}{"barcode": "8996001600146", "device_id": "pos-01"})
	s.Equal(http.StatusOK, resp.StatusCode)

	var product map[string]interface{}
	s.decodeResponse(resp, &product)
	s.Equal(productID, product["id"])

	// One-step checkout from scanned barcodes.
	resp = s.makeRequest("POST", "/scanner/quick-sale", map[string]interface{}{
		"items": []map[string]interface{}{
			{"barcode": "8996001600146", "quantity": 2},
		},
		"payment_method": "cash",
		"amount_paid":    "50.00",
	})
	s.Equal(http.StatusCreated, resp.StatusCode)

	var sale map[string]interface{}
	s.decodeResponse(resp, &sale)
	s.Equal("23", sale["subtotal"])

	// The resolve call landed in the audit trail.
	resp = s.makeRequest("GET", "/scanner/history", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var history map[string]interface{}
	s.decodeResponse(resp, &history)
	s.Equal(float64(1), history["total_count"])
}

func (s *SaleWorkflowE2ESuite) TestProductSearch() {
	s.createProduct("Lucky Me Pancit Canton Original 60g", "4800016001001", "15.00")
	s.createProduct("Lucky Me Pancit Canton Sweet Style 60g", "4800016001002", "15.00")
	s.createProduct("Datu Puti Vinegar 385ml", "4800016001003", "22.00")

	resp := s.makeRequest("GET", "/products?search=pancit+canton", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var result map[string]interface{}
	s.decodeResponse(resp, &result)
	s.Equal(float64(2), result["total_count"])

	resp = s.makeRequest("GET", "/products?search=vinegar", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.decodeResponse(resp, &result)
	s.Equal(float64(1), result["total_count"])
}

func (s *SaleWorkflowE2ESuite) TestConcurrentCheckoutsNeverOversell() {
	productID := s.createProduct("C2 Apple 230ml", "4800024570019", "20.00")
	s.addStock(productID, 10)

	type outcome struct{ status int }
	results := make(chan outcome, 20)

	for i := 0; i < 20; i++ {
		go func() {
			resp := s.makeRequest("POST", "/sales", map[string]interface{}{
				"items": []map[string]interface{}{
					{"product_id": productID, "quantity": 1},
				},
				"payment_method": "cash",
				"amount_paid":    "100.00",
			})
			resp.Body.Close()
			results <- outcome{status: resp.StatusCode}
		}()
	}

	created, conflicts := 0, 0
	for i := 0; i < 20; i++ {
		r := <-results
		switch r.status {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		default:
			s.Failf("unexpected status", "got %d", r.status)
		}
	}

	s.Equal(10, created)
	s.Equal(10, conflicts)

	var product map[string]interface{}
	resp := s.makeRequest("GET", fmt.Sprintf("/products/%s", productID), nil)
	s.decodeResponse(resp, &product)
	s.Equal(float64(0), product["stock_quantity"])
}

func (s *SaleWorkflowE2ESuite) TestRequestsWithoutTokenAreRejected() {
	req, err := http.NewRequest("GET", s.baseURL+"/products", nil)
	s.Require().NoError(err)

	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.Equal("Bearer", resp.Header.Get("WWW-Authenticate"))
}

func (s *SaleWorkflowE2ESuite) TestHealthCheck() {
	resp, err := s.client.Get(s.server.URL + "/health")
	s.Require().NoError(err)

	s.Equal(http.StatusOK, resp.StatusCode)

	var health map[string]interface{}
	s.decodeResponse(resp, &health)
	s.Equal("healthy", health["status"])

	servicesInfo := health["services"].(map[string]interface{})
	s.Contains(servicesInfo, "database")
	s.Contains(servicesInfo, "redis")
}

// Helper methods

func (s *SaleWorkflowE2ESuite) startTestServer() *httptest.Server {
	logger := helpers.TestLogger()
	cfg := &config.Config{
		App: config.AppConfig{
			Name:        "tindahan-e2e",
			Environment: "test",
			Version:     "test",
		},
	}

	productRepo := db.NewProductRepository(s.testDB.Database, logger)
	saleRepo := db.NewSaleRepository(s.testDB.Database, logger)
	batchRepo := db.NewBatchRepository(s.testDB.Database, logger)
	scanRepo := db.NewScanRepository(s.testDB.Database, logger)
	cache := redis_a.NewCache(s.testRedis.Client, 5*time.Minute, logger)

	taxRate := decimal.RequireFromString("0.12")
	catalog := services.NewCatalogService(productRepo, logger)
	sales := services.NewSalesService(s.testDB.Database, productRepo, saleRepo, cache, nil, taxRate, logger)
	inventory := services.NewInventoryService(s.testDB.Database, productRepo, batchRepo, logger)
	scanner := services.NewScannerService(catalog, sales, scanRepo, logger)

	productHandler := handlers.NewProductHandler(catalog, cache, logger)
	salesHandler := handlers.NewSalesHandler(sales, logger)
	inventoryHandler := handlers.NewInventoryHandler(inventory, logger)
	scannerHandler := handlers.NewScannerHandler(scanner, logger)
	healthHandler := handlers.NewHealthHandler(s.testDB.Database, s.testRedis.Client, nil, cfg, logger)

	auth := middleware.Authenticate(e2eJWTSecret)
	protect := func(h http.HandlerFunc) http.Handler {
		return auth(h)
	}

	const apiV1 = "/api/v1"
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /ready", healthHandler.Readiness)

	mux.Handle("GET "+apiV1+"/products", protect(productHandler.ListProducts))
	mux.Handle("POST "+apiV1+"/products", protect(productHandler.CreateProduct))
	mux.Handle("GET "+apiV1+"/products/{id}", protect(productHandler.GetProduct))

	mux.Handle("POST "+apiV1+"/sales", protect(salesHandler.CreateSale))
	mux.Handle("GET "+apiV1+"/sales", protect(salesHandler.ListSales))
	mux.Handle("GET "+apiV1+"/sales/{id}", protect(salesHandler.GetSale))
	mux.Handle("POST "+apiV1+"/sales/{id}/cancel", protect(salesHandler.CancelSale))

	mux.Handle("POST "+apiV1+"/inventory/stock", protect(inventoryHandler.AddStock))

	mux.Handle("POST "+apiV1+"/scanner/resolve", protect(scannerHandler.Resolve))
	mux.Handle("POST "+apiV1+"/scanner/quick-sale", protect(scannerHandler.QuickSale))
	mux.Handle("GET "+apiV1+"/scanner/history", protect(scannerHandler.History))

	return httptest.NewServer(mux)
}

func (s *SaleWorkflowE2ESuite) createProduct(name, barcode, price string) string {
	resp := s.makeRequest("POST", "/products", map[string]interface{}{
		"barcode":    barcode,
		"name":       name,
		"unit_price": price,
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var product map[string]interface{}
	s.decodeResponse(resp, &product)
	return product["id"].(string)
}

func (s *SaleWorkflowE2ESuite) addStock(productID string, quantity int) {
	resp := s.makeRequest("POST", "/inventory/stock", map[string]interface{}{
		"product_id": productID,
		"quantity":   quantity,
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

func (s *SaleWorkflowE2ESuite) makeRequest(method, path string, body interface{}) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		s.Require().NoError(err)
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, s.baseURL+path, reqBody)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+s.ownerToken)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	s.Require().NoError(err)

	return resp
}

func (s *SaleWorkflowE2ESuite) decodeResponse(resp *http.Response, v interface{}) {
	defer resp.Body.Close()
	err := json.NewDecoder(resp.Body).Decode(v)
	s.NoError(err)
}

func TestSaleWorkflowE2ESuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}
	suite.Run(t, new(SaleWorkflowE2ESuite))
}
