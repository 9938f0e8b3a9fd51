// internal/core/services/scanner.go
package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/tindahan-be/internal/core/domain"
	"github.com/ammerola/tindahan-be/internal/core/ports"
)

// ScannerService is the quick-sale entry path: it resolves barcode scans to
// catalog products, records the scan audit trail, and hands assembled carts
// to the sale transaction manager.
type ScannerService struct {
	catalog ports.CatalogService
	sales   ports.SalesService
	scans   ports.ScanRepository
	logger  *slog.Logger
}

// NewScannerService creates a new scanner service
func NewScannerService(catalog ports.CatalogService, sales ports.SalesService, scans ports.ScanRepository, logger *slog.Logger) *ScannerService {
	return &ScannerService{
		catalog: catalog,
		sales:   sales,
		scans:   scans,
		logger:  logger.With(slog.String("service", "scanner")),
	}
}

// ScanInput carries one barcode scan
type ScanInput struct {
	Barcode   string     `json:"barcode"`
	ScannedBy uuid.UUID  `json:"scanned_by"`
	StoreID   *uuid.UUID `json:"store_id,omitempty"`
	DeviceID  string     `json:"device_id,omitempty"`
}

// QuickSaleLine is one scanned line of a quick sale
type QuickSaleLine struct {
	Barcode       string           `json:"barcode"`
	Quantity      int              `json:"quantity"`
	PriceOverride *decimal.Decimal `json:"price_override,omitempty"`
}

// QuickSaleInput carries a quick sale assembled at the scanner
type QuickSaleInput struct {
	Lines           []QuickSaleLine      `json:"items"`
	PaymentMethod   domain.PaymentMethod `json:"payment_method"`
	AmountPaid      *decimal.Decimal     `json:"amount_paid,omitempty"`
	DiscountPercent decimal.Decimal      `json:"discount_percent"`
	CashierID       uuid.UUID            `json:"cashier_id"`
	StoreID         *uuid.UUID           `json:"store_id,omitempty"`
	DeviceID        string               `json:"device_id,omitempty"`
}

// Resolve looks up the product for a scanned barcode and records the scan,
// resolved or not. The audit write is best-effort: a failed audit insert
// never fails the lookup.
func (s *ScannerService) Resolve(ctx context.Context, input ScanInput) (*domain.Product, error) {
	product, err := s.catalog.GetByBarcode(ctx, input.Barcode)

	scan := &domain.ProductScan{
		ID:        uuid.New(),
		ScanType:  domain.ScanBarcode,
		InputData: input.Barcode,
		ScannedBy: input.ScannedBy,
		StoreID:   input.StoreID,
		DeviceID:  input.DeviceID,
	}
	if product != nil {
		scan.ProductID = &product.ID
	}
	if saveErr := s.scans.Save(ctx, scan); saveErr != nil {
		s.logger.WarnContext(ctx, "failed to record product scan",
			slog.String("barcode", input.Barcode),
			slog.String("error", saveErr.Error()))
	}

	if err != nil {
		return nil, err
	}
	return product, nil
}

// QuickSale resolves each scanned barcode and runs the assembled cart through
// the sale transaction manager. All atomicity and stock guarantees are the
// sale manager's; the scanner layer only translates barcodes to product IDs.
func (s *ScannerService) QuickSale(ctx context.Context, input QuickSaleInput) (*domain.Sale, error) {
	if len(input.Lines) == 0 {
		return nil, &domain.InvalidCartError{Reason: "cart is empty"}
	}

	cart := make([]domain.CartLine, 0, len(input.Lines))
	for _, line := range input.Lines {
		product, err := s.Resolve(ctx, ScanInput{
			Barcode:   line.Barcode,
			ScannedBy: input.CashierID,
			StoreID:   input.StoreID,
			DeviceID:  input.DeviceID,
		})
		if err != nil {
			return nil, err
		}
		cart = append(cart, domain.CartLine{
			ProductID:         product.ID,
			Quantity:          line.Quantity,
			UnitPriceOverride: line.PriceOverride,
		})
	}

	return s.sales.CreateSale(ctx, ports.CreateSaleInput{
		Cart:            cart,
		PaymentMethod:   input.PaymentMethod,
		AmountPaid:      input.AmountPaid,
		DiscountPercent: input.DiscountPercent,
		Notes:           "Quick sale via scanner",
		CashierID:       input.CashierID,
		StoreID:         input.StoreID,
	})
}

// ScanHistory returns the paginated scan audit trail.
func (s *ScannerService) ScanHistory(ctx context.Context, params ports.ScanListParams) ([]domain.ProductScan, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = 20
	}
	return s.scans.List(ctx, params)
}
