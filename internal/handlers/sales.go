// internal/handlers/sales.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/tindahan-be/internal/core/domain"
	"github.com/ammerola/tindahan-be/internal/core/ports"
	"github.com/ammerola/tindahan-be/internal/handlers/middleware"
)

// SalesHandler handles sale transaction HTTP requests
type SalesHandler struct {
	sales  ports.SalesService
	logger *slog.Logger
}

// NewSalesHandler creates a new sales handler
func NewSalesHandler(sales ports.SalesService, logger *slog.Logger) *SalesHandler {
	return &SalesHandler{
		sales:  sales,
		logger: logger.With(slog.String("handler", "sales")),
	}
}

// CreateSaleRequest represents the request body for creating a sale
type CreateSaleRequest struct {
	Items           []domain.CartLine `json:"items"`
	PaymentMethod   string            `json:"payment_method"`
	AmountPaid      *decimal.Decimal  `json:"amount_paid,omitempty"`
	DiscountPercent decimal.Decimal   `json:"discount_percent"`
	CustomerID      *uuid.UUID        `json:"customer_id,omitempty"`
	Notes           string            `json:"notes,omitempty"`
}

// CancelSaleRequest represents the request body for cancelling a sale
type CancelSaleRequest struct {
	Reason string `json:"reason"`
}

// CreateSale handles POST /api/v1/sales
func (h *SalesHandler) CreateSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cashierID, ok := middleware.UserID(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing cashier identity")
		return
	}

	sale, err := h.sales.CreateSale(ctx, ports.CreateSaleInput{
		Cart:            req.Items,
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
		AmountPaid:      req.AmountPaid,
		DiscountPercent: req.DiscountPercent,
		CustomerID:      req.CustomerID,
		Notes:           req.Notes,
		CashierID:       cashierID,
		StoreID:         middleware.StoreID(ctx),
	})
	if err != nil {
		if respondDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(ctx, "failed to create sale", logAttrError(err))
		respondError(w, http.StatusInternalServerError, "Failed to create sale")
		return
	}

	h.logger.InfoContext(ctx, "sale created",
		slog.String("sale_id", sale.ID.String()),
		slog.String("transaction_number", sale.TransactionNumber),
		slog.String("total", sale.TotalAmount.StringFixed(2)))

	respondJSON(w, http.StatusCreated, sale)
}

// CancelSale handles POST /api/v1/sales/{id}/cancel
func (h *SalesHandler) CancelSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	saleID, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid sale ID format")
		return
	}

	var req CancelSaleRequest
	if r.Body != nil {
		// An empty body is allowed; the core fills a default reason.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	sale, err := h.sales.CancelSale(ctx, saleID, req.Reason, middleware.StoreID(ctx))
	if err != nil {
		if respondDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(ctx, "failed to cancel sale",
			slog.String("sale_id", idStr), logAttrError(err))
		respondError(w, http.StatusInternalServerError, "Failed to cancel sale")
		return
	}

	h.logger.InfoContext(ctx, "sale cancelled",
		slog.String("sale_id", idStr),
		slog.String("reason", req.Reason))

	respondJSON(w, http.StatusOK, sale)
}

// GetSale handles GET /api/v1/sales/{id}
func (h *SalesHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	saleID, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid sale ID format")
		return
	}

	sale, err := h.sales.GetSaleByID(ctx, saleID, middleware.StoreID(ctx))
	if err != nil {
		if respondDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(ctx, "failed to get sale",
			slog.String("sale_id", idStr), logAttrError(err))
		respondError(w, http.StatusInternalServerError, "Failed to retrieve sale")
		return
	}
	if sale == nil {
		respondError(w, http.StatusNotFound, "Sale not found")
		return
	}

	respondJSON(w, http.StatusOK, sale)
}

// ListSales handles GET /api/v1/sales
func (h *SalesHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := h.parseListParams(r)
	params.StoreID = middleware.StoreID(ctx)

	result, err := h.sales.List(ctx, params)
	if err != nil {
		if respondDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(ctx, "failed to list sales", logAttrError(err))
		respondError(w, http.StatusInternalServerError, "Failed to list sales")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// DailySummary handles GET /api/v1/sales/summary
func (h *SalesHandler) DailySummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	day := time.Now()
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
			return
		}
		day = parsed
	}

	summary, err := h.sales.DailySummary(ctx, middleware.StoreID(ctx), day)
	if err != nil {
		if respondDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(ctx, "failed to load daily summary", logAttrError(err))
		respondError(w, http.StatusInternalServerError, "Failed to load daily summary")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// parseListParams parses query parameters for listing sales
func (h *SalesHandler) parseListParams(r *http.Request) ports.SaleListParams {
	params := ports.SaleListParams{
		Page:     1,
		PageSize: 20,
	}

	if page := r.URL.Query().Get("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			params.Page = p
		}
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil && l > 0 {
			if l > 100 {
				params.PageSize = 100
			} else {
				params.PageSize = l
			}
		}
	}

	if from := r.URL.Query().Get("start_date"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			params.StartDate = &t
		}
	}
	if to := r.URL.Query().Get("end_date"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			params.EndDate = &t
		}
	}

	params.Status = r.URL.Query().Get("status")

	if c := r.URL.Query().Get("cashier_id"); c != "" {
		if id, err := uuid.Parse(c); err == nil {
			params.CashierID = &id
		}
	}

	return params
}
