// internal/handlers/inventory.go
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/tindahan-be/internal/core/ports"
	"github.com/ammerola/tindahan-be/internal/handlers/middleware"
)

// InventoryHandler handles batch-level stock movement HTTP requests
type InventoryHandler struct {
	service ports.InventoryService
	logger  *slog.Logger
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(service ports.InventoryService, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "inventory")),
	}
}

// AddStockRequest represents the request body for restocking a product
type AddStockRequest struct {
	ProductID   uuid.UUID  `json:"product_id"`
	Quantity    int        `json:"quantity"`
	BatchNumber string     `json:"batch_number,omitempty"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	Location    string     `json:"location,omitempty"`
}

// Validate validates the add stock request
func (r *AddStockRequest) Validate() error {
	if r.ProductID == uuid.Nil {
		return fmt.Errorf("product_id is required")
	}
	if r.Quantity < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}
	if r.ExpiryDate != nil && r.ExpiryDate.Before(time.Now()) {
		return fmt.Errorf("expiry_date cannot be in the past")
	}
	return nil
}

// RemoveStockRequest represents the request body for removing stock
type RemoveStockRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Reason    string    `json:"reason,omitempty"`
}

// Validate validates the remove stock request
func (r *RemoveStockRequest) Validate() error {
	if r.ProductID == uuid.Nil {
		return fmt.Errorf("product_id is required")
	}
	if r.Quantity < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}
	return nil
}

// AddStock handles POST /api/v1/inventory/stock
func (h *InventoryHandler) AddStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AddStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	batch, err := h.service.AddStock(ctx, ports.AddStockInput{
		ProductID:   req.ProductID,
		Quantity:    req.Quantity,
		BatchNumber: req.BatchNumber,
		ExpiryDate:  req.ExpiryDate,
		Location:    req.Location,
		StoreID:     middleware.StoreID(ctx),
	})
	if err != nil {
		if respondDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(ctx, "failed to add stock",
			slog.String("product_id", req.ProductID.String()), logAttrError(err))
		respondError(w, http.StatusInternalServerError, "Failed to add stock")
		return
	}

	h.logger.InfoContext(ctx, "stock added",
		slog.String("product_id", req.ProductID.String()),
		slog.String("batch_id", batch.ID.String()),
		slog.Int("quantity", req.Quantity))

	respondJSON(w, http.StatusCreated, batch)
}

// RemoveStock handles POST /api/v1/inventory/stock/remove
func (h *InventoryHandler) RemoveStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RemoveStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	removal, err := h.service.RemoveStock(ctx, req.ProductID, req.Quantity, req.Reason)
	if err != nil {
		if respondDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(ctx, "failed to remove stock",
			slog.String("product_id", req.ProductID.String()), logAttrError(err))
		respondError(w, http.StatusInternalServerError, "Failed to remove stock")
		return
	}

	h.logger.InfoContext(ctx, "stock removed",
		slog.String("product_id", req.ProductID.String()),
		slog.Int("quantity", req.Quantity),
		slog.String("reason", req.Reason))

	respondJSON(w, http.StatusOK, removal)
}

// ListBatches handles GET /api/v1/inventory/batches/{productID}
func (h *InventoryHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("productID")

	productID, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	batches, err := h.service.ListBatches(ctx, productID)
	if err != nil {
		if respondDomainError(w, err) {
			return
		}
		h.logger.ErrorContext(ctx, "failed to list batches",
			slog.String("product_id", idStr), logAttrError(err))
		respondError(w, http.StatusInternalServerError, "Failed to list batches")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"product_id": productID,
		"batches":    batches,
		"count":      len(batches),
	})
}
