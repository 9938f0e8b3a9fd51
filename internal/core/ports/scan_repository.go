// internal/core/ports/scan_repository.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/tindahan-be/internal/core/domain"
)

// ScanRepository defines the persistence port for product scan audit records.
type ScanRepository interface {
	Save(ctx context.Context, scan *domain.ProductScan) error
	List(ctx context.Context, params ScanListParams) ([]domain.ProductScan, int64, error)

	// DeleteOlderThan purges audit rows past the retention window and
	// returns the number of rows removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ScanListParams holds filters for scan history
type ScanListParams struct {
	ProductID *uuid.UUID
	StoreID   *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}
