// internal/handlers/respond.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ammerola/tindahan-be/internal/core/domain"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps the typed sale errors onto HTTP status codes and
// reports whether err was one of them. Unrecognized errors are left for the
// caller to handle as internal failures.
func respondDomainError(w http.ResponseWriter, err error) bool {
	var invalidCart *domain.InvalidCartError
	if errors.As(err, &invalidCart) {
		respondError(w, http.StatusBadRequest, invalidCart.Error())
		return true
	}

	var notFound *domain.ProductNotFoundError
	if errors.As(err, &notFound) {
		respondError(w, http.StatusNotFound, notFound.Error())
		return true
	}

	var insufficientStock *domain.InsufficientStockError
	if errors.As(err, &insufficientStock) {
		respondJSON(w, http.StatusConflict, map[string]interface{}{
			"error":        insufficientStock.Error(),
			"product_id":   insufficientStock.ProductID,
			"product_name": insufficientStock.ProductName,
			"requested":    insufficientStock.Requested,
			"available":    insufficientStock.Available,
		})
		return true
	}

	var insufficientPayment *domain.InsufficientPaymentError
	if errors.As(err, &insufficientPayment) {
		respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":     insufficientPayment.Error(),
			"total":     insufficientPayment.Total,
			"paid":      insufficientPayment.Paid,
			"shortfall": insufficientPayment.Shortfall(),
		})
		return true
	}

	var saleNotFound *domain.SaleNotFoundError
	if errors.As(err, &saleNotFound) {
		respondError(w, http.StatusNotFound, saleNotFound.Error())
		return true
	}

	var alreadyCancelled *domain.AlreadyCancelledError
	if errors.As(err, &alreadyCancelled) {
		respondError(w, http.StatusConflict, alreadyCancelled.Error())
		return true
	}

	var storage *domain.StorageUnavailableError
	if errors.As(err, &storage) {
		w.Header().Set("Retry-After", "5")
		respondError(w, http.StatusServiceUnavailable, "Storage temporarily unavailable, retry the request")
		return true
	}

	return false
}

func logAttrError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
