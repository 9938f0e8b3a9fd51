// internal/handlers/scanner.go
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
	"github.com/ammerola/tindahan-be/internal/core/services"
	"github.com/ammerola/tindahan-be/internal/handlers/middleware"
)

// ScannerHandler handles barcode scanner HTTP requests
type ScannerHandler struct {
	scanner *services.ScannerService
	logger  *slog.Logger
}

// NewScannerHandler creates a new scanner handler
func NewScannerHandler(scanner *services.ScannerService, logger *slog.Logger) *ScannerHandler {
	return &ScannerHandler{
		scanner: scanner,
		logger:  logger.With(slog.String("handler", "scanner")),
	}
}

// ResolveRequest represents the request body for resolving a scan
type ResolveRequest struct {
	Barcode  string `json:"barcode"`
	DeviceID string `json:"device_id,omitempty"`
}

// QuickSaleRequest represents the request body for a quick sale
type QuickSaleRequest struct {
	Items           []QuickSaleItem  `json:"items"`
	PaymentMethod   string           `json:"payment_method"`
	AmountPaid      *decimal.Decimal `json:"amount_paid,omitempty"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
	DeviceID        string           `json:"device_id,omitempty"`
}

// QuickSaleItem is one scanned line of a quick sale request
type QuickSaleItem struct {
	Barcode       string           `json:"barcode"`
	Quantity      int              `json:"quantity"`
	PriceOverride *decimal.Decimal `json:"unit_price,omitempty"`
}

// Resolve handles POST /api/v1/scanner/resolve
func (h *ScannerHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Barcode == "" {
		respondError(w, http.StatusBadRequest, "barcode is required")
		return
	}

	scannedBy, ok := middleware.UserID(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing scanner identity")
		return
	}

	product, err := h.scanner.Resolve(ctx, services.ScanInput{
		Barcode:   req.Barcode,
		ScannedBy: scannedBy,
		StoreID:   middleware.StoreID(ctx),
		DeviceID:  req.DeviceID,
	})
	if err != nil {
		if respondDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(ctx, "failed to resolve scan",
			slog.String("barcode", req.Barcode), logAttrError(err))
		respondError(w, http.StatusInternalServerError, "Failed to resolve scan")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// QuickSale handles POST /api/v1/scanner/quick-sale
func (h *ScannerHandler) QuickSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req QuickSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cashierID, ok := middleware.UserID(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing cashier identity")
		return
	}

	lines := make([]services.QuickSaleLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, services.QuickSaleLine{
			Barcode:       item.Barcode,
			Quantity:      item.Quantity,
			PriceOverride: item.PriceOverride,
		})
	}

	sale, err := h.scanner.QuickSale(ctx, services.QuickSaleInput{
		Lines:           lines,
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
		AmountPaid:      req.AmountPaid,
		DiscountPercent: req.DiscountPercent,
		CashierID:       cashierID,
		StoreID:         middleware.StoreID(ctx),
		DeviceID:        req.DeviceID,
	})
	if err != nil {
		if respondDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(ctx, "failed to complete quick sale", logAttrError(err))
		respondError(w, http.StatusInternalServerError, "Failed to complete quick sale")
		return
	}

	h.logger.InfoContext(ctx, "quick sale completed",
		slog.String("sale_id", sale.ID.String()),
		slog.String("transaction_number", sale.TransactionNumber))

	respondJSON(w, http.StatusCreated, sale)
}

// History handles GET /api/v1/scanner/history
func (h *ScannerHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := ports.ScanListParams{
		Page:     1,
		PageSize: 20,
		StoreID:  middleware.StoreID(ctx),
	}

	if page := r.URL.Query().Get("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			params.Page = p
		}
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil && l > 0 && l <= 100 {
			params.PageSize = l
		}
	}
	if p := r.URL.Query().Get("product_id"); p != "" {
		if id, err := uuid.Parse(p); err == nil {
			params.ProductID = &id
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

	scans, total, err := h.scanner.ScanHistory(ctx, params)
	if err != nil {
		if respondDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(ctx, "failed to list scan history", logAttrError(err))
		respondError(w, http.StatusInternalServerError, "Failed to list scan history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"scans":       scans,
		"page":        params.Page,
		"page_size":   params.PageSize,
		"total_count": total,
	})
}
