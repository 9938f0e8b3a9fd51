// internal/core/services/tasks.go
package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names shared between the services that enqueue jobs and the
// worker processors that consume them.
const (
	TypeLowStockCheck = "inventory:low_stock_check"
	TypeSalesExport   = "sales:export"
	TypeScanCleanup   = "scans:cleanup"
)

// LowStockCheckPayload carries the products touched by a sale so the worker
// only has to inspect candidates instead of scanning the whole catalog.
type LowStockCheckPayload struct {
	ProductIDs []uuid.UUID `json:"product_ids"`
}

// SalesExportPayload describes an export job. StoreID and the date range are
// optional filters; a nil bound means unbounded on that side.
type SalesExportPayload struct {
	JobID     string     `json:"job_id"`
	StoreID   *uuid.UUID `json:"store_id,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	UserID    string     `json:"user_id,omitempty"`
}

// ScanCleanupPayload configures scan audit retention.
type ScanCleanupPayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewLowStockCheckTask creates a task that re-checks stock levels for the
// given products.
func NewLowStockCheckTask(productIDs []uuid.UUID) (*asynq.Task, error) {
	b, err := json.Marshal(LowStockCheckPayload{ProductIDs: productIDs})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal low stock payload: %w", err)
	}
	return asynq.NewTask(TypeLowStockCheck, b), nil
}

// NewSalesExportTask creates a task that exports sales to a spreadsheet.
func NewSalesExportTask(payload SalesExportPayload) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export payload: %w", err)
	}
	return asynq.NewTask(TypeSalesExport, b), nil
}

// NewScanCleanupTask creates a task that prunes old scan audit records.
func NewScanCleanupTask(retentionDays int) (*asynq.Task, error) {
	b, err := json.Marshal(ScanCleanupPayload{RetentionDays: retentionDays})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cleanup payload: %w", err)
	}
	return asynq.NewTask(TypeScanCleanup, b), nil
}
