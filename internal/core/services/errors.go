// internal/core/services/errors.go
package services

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ammerola/tindahan-be/internal/core/domain"
)

// normalizeError passes domain taxonomy errors through untouched and wraps
// everything else as a transient storage failure, so callers can distinguish
// caller-correctable failures from retryable ones.
func normalizeError(op string, err error) error {
	if err == nil {
		return nil
	}

	var invalidCart *domain.InvalidCartError
	var notFound *domain.ProductNotFoundError
	var insufficientStock *domain.InsufficientStockError
	var insufficientPayment *domain.InsufficientPaymentError
	var saleNotFound *domain.SaleNotFoundError
	var alreadyCancelled *domain.AlreadyCancelledError
	if errors.As(err, &invalidCart) ||
		errors.As(err, &notFound) ||
		errors.As(err, &insufficientStock) ||
		errors.As(err, &insufficientPayment) ||
		errors.As(err, &saleNotFound) ||
		errors.As(err, &alreadyCancelled) {
		return err
	}

	return &domain.StorageUnavailableError{Op: op, Err: err}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
