// internal/core/domain/scan.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ScanType identifies how a product scan was captured
type ScanType string

const (
	ScanBarcode ScanType = "barcode"
	ScanManual  ScanType = "manual"
)

// ProductScan is an audit record correlating a scanner input to the product
// it resolved to. ProductID is nil for unresolved scans.
type ProductScan struct {
	ID        uuid.UUID  `json:"id"`
	ScanType  ScanType   `json:"scan_type"`
	InputData string     `json:"input_data"`
	ProductID *uuid.UUID `json:"product_id,omitempty"`
	ScannedBy uuid.UUID  `json:"scanned_by"`
	StoreID   *uuid.UUID `json:"store_id,omitempty"`
	DeviceID  string     `json:"device_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
