// internal/core/services/sales.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ammerola/tindahan-be/internal/core/domain"
	"github.com/ammerola/tindahan-be/internal/core/ports"
)

// TxRunner runs a function inside a database transaction. Implemented by the
// database adapter; faked in unit tests.
type TxRunner interface {
	Transaction(ctx context.Context, fn func(pgx.Tx) error) error
}

// TaskEnqueuer enqueues background tasks. Implemented by *asynq.Client.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

const (
	txnPrefix = "TXN"

	// uniqueViolation is the Postgres error code for duplicate keys; a
	// transaction number collision is retried rather than overwritten.
	uniqueViolation = "23505"

	maxTxnRetries = 3

	dailySummaryTTL = 5 * time.Minute
)

// SalesService implements the sale transaction and cancellation managers.
type SalesService struct {
	db       TxRunner
	products ports.ProductRepository
	sales    ports.SaleRepository
	cache    ports.CacheRepository
	tasks    TaskEnqueuer
	taxRate  decimal.Decimal
	logger   *slog.Logger
}

// Statically assert that *SalesService implements the SalesService interface.
var _ ports.SalesService = (*SalesService)(nil)

// NewSalesService creates a new sales service. cache and tasks may be nil;
// both are best-effort side channels, never correctness dependencies.
func NewSalesService(db TxRunner, products ports.ProductRepository, sales ports.SaleRepository,
	cache ports.CacheRepository, tasks TaskEnqueuer, taxRate decimal.Decimal, logger *slog.Logger) *SalesService {
	return &SalesService{
		db:       db,
		products: products,
		sales:    sales,
		cache:    cache,
		tasks:    tasks,
		taxRate:  taxRate,
		logger:   logger.With(slog.String("service", "sales")),
	}
}

// CreateSale runs one sale attempt as a single unit of work: validate the
// cart, lock and check stock, compute pricing, persist the sale with its line
// items, and decrement stock. Everything commits together or not at all; on
// any failure no partial state is visible to other callers.
func (s *SalesService) CreateSale(ctx context.Context, input ports.CreateSaleInput) (*domain.Sale, error) {
	if err := domain.ValidateCart(input.Cart); err != nil {
		return nil, err
	}
	if !input.PaymentMethod.IsValid() {
		return nil, &domain.InvalidCartError{Reason: fmt.Sprintf("unsupported payment method: %s", input.PaymentMethod)}
	}

	// Quantities aggregated per product: a cart may list the same product
	// on multiple lines, but stock is checked and decremented once.
	required := make(map[uuid.UUID]int)
	ids := make([]uuid.UUID, 0, len(input.Cart))
	for _, line := range input.Cart {
		if _, seen := required[line.ProductID]; !seen {
			ids = append(ids, line.ProductID)
		}
		required[line.ProductID] += line.Quantity
	}

	var sale *domain.Sale
	var err error
	for attempt := 0; attempt < maxTxnRetries; attempt++ {
		sale, err = s.attemptSale(ctx, input, ids, required)
		if err == nil || !isUniqueViolation(err) {
			break
		}
		s.logger.WarnContext(ctx, "transaction number collision, retrying",
			slog.Int("attempt", attempt+1))
	}
	if err != nil {
		return nil, normalizeError("create sale", err)
	}

	s.logger.InfoContext(ctx, "sale completed",
		slog.String("sale_id", sale.ID.String()),
		slog.String("transaction_number", sale.TransactionNumber),
		slog.String("total", sale.TotalAmount.StringFixed(2)),
		slog.Int("items", len(sale.Items)))

	s.invalidateDailySummary(ctx, input.StoreID, sale.CreatedAt)
	s.enqueueLowStockCheck(ctx, ids)

	return sale, nil
}

func (s *SalesService) attemptSale(ctx context.Context, input ports.CreateSaleInput,
	ids []uuid.UUID, required map[uuid.UUID]int) (*domain.Sale, error) {

	var sale *domain.Sale

	err := s.db.Transaction(ctx, func(tx pgx.Tx) error {
		// Resolve under row locks so the availability check and the final
		// decrement cannot be interleaved by a concurrent sale.
		products, err := s.products.LockForSale(ctx, tx, ids)
		if err != nil {
			return err
		}

		for _, id := range ids {
			product, ok := products[id]
			if !ok {
				return &domain.ProductNotFoundError{ProductID: id}
			}
			if product.StockQuantity < required[id] {
				return &domain.InsufficientStockError{
					ProductID:   id,
					ProductName: product.Name,
					Requested:   required[id],
					Available:   product.StockQuantity,
				}
			}
		}

		lines := make([]PriceLine, 0, len(input.Cart))
		for _, cartLine := range input.Cart {
			unitPrice := products[cartLine.ProductID].UnitPrice
			if cartLine.UnitPriceOverride != nil {
				unitPrice = *cartLine.UnitPriceOverride
			}
			lines = append(lines, PriceLine{
				ProductID: cartLine.ProductID,
				Quantity:  cartLine.Quantity,
				UnitPrice: unitPrice,
			})
		}

		pricing, err := ComputePricing(lines, input.DiscountPercent, s.taxRate)
		if err != nil {
			return err
		}

		paid := pricing.Total
		if input.AmountPaid != nil {
			paid = *input.AmountPaid
		}
		change := paid.Sub(pricing.Total)
		if change.IsNegative() {
			return &domain.InsufficientPaymentError{Total: pricing.Total, Paid: paid}
		}

		now := time.Now()
		seq, err := s.sales.NextTransactionNumber(ctx, tx, now)
		if err != nil {
			return err
		}

		sale = &domain.Sale{
			ID:                uuid.New(),
			TransactionNumber: fmt.Sprintf("%s-%s-%05d", txnPrefix, now.Format("20060102"), seq),
			CustomerID:        input.CustomerID,
			CashierID:         input.CashierID,
			Subtotal:          pricing.Subtotal,
			Discount:          pricing.DiscountAmount,
			Tax:               pricing.TaxAmount,
			TotalAmount:       pricing.Total,
			PaymentMethod:     input.PaymentMethod,
			PaymentReceived:   paid,
			ChangeGiven:       change,
			Status:            domain.SaleCompleted,
			Notes:             input.Notes,
			StoreID:           input.StoreID,
			CreatedAt:         now,
		}

		for _, line := range lines {
			sale.Items = append(sale.Items, domain.SaleItem{
				ID:          uuid.New(),
				SaleID:      sale.ID,
				ProductID:   line.ProductID,
				ProductName: products[line.ProductID].Name,
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
				TotalPrice:  line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2),
				Discount:    decimal.Zero,
				CreatedAt:   now,
			})
		}

		if err := s.sales.Insert(ctx, tx, sale); err != nil {
			return err
		}

		for _, id := range ids {
			if err := s.products.DecrementStock(ctx, tx, id, required[id]); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// CancelSale is the compensating transaction for a completed sale: it
// restores stock for every line item and flips the sale to cancelled,
// atomically. The original sale and item rows remain for audit.
func (s *SalesService) CancelSale(ctx context.Context, saleID uuid.UUID, reason string, storeID *uuid.UUID) (*domain.Sale, error) {
	var sale *domain.Sale

	err := s.db.Transaction(ctx, func(tx pgx.Tx) error {
		var err error
		sale, err = s.sales.FindByIDForUpdate(ctx, tx, saleID, storeID)
		if err != nil {
			return err
		}
		if sale == nil {
			return &domain.SaleNotFoundError{SaleID: saleID}
		}
		if sale.Status == domain.SaleCancelled {
			return &domain.AlreadyCancelledError{SaleID: saleID}
		}

		for _, item := range sale.Items {
			if err := s.products.IncrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if reason == "" {
			reason = "No reason provided"
		}
		if err := s.sales.MarkCancelled(ctx, tx, saleID, reason); err != nil {
			return err
		}

		sale.Status = domain.SaleCancelled
		sale.Notes = sale.Notes + "\nCancelled: " + reason
		return nil
	})
	if err != nil {
		return nil, normalizeError("cancel sale", err)
	}

	s.logger.InfoContext(ctx, "sale cancelled",
		slog.String("sale_id", saleID.String()),
		slog.String("transaction_number", sale.TransactionNumber))

	s.invalidateDailySummary(ctx, storeID, sale.CreatedAt)

	return sale, nil
}

// GetSaleByID retrieves a sale with its items; returns nil when absent.
func (s *SalesService) GetSaleByID(ctx context.Context, saleID uuid.UUID, storeID *uuid.UUID) (*domain.Sale, error) {
	sale, err := s.sales.FindByID(ctx, saleID, storeID)
	if err != nil {
		return nil, normalizeError("get sale", err)
	}
	return sale, nil
}

// List retrieves sales history with filtering and pagination.
func (s *SalesService) List(ctx context.Context, params ports.SaleListParams) (*ports.SaleListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = 20
	}

	sales, totalCount, err := s.sales.List(ctx, params)
	if err != nil {
		return nil, normalizeError("list sales", err)
	}

	totalPages := int(totalCount) / params.PageSize
	if int(totalCount)%params.PageSize > 0 {
		totalPages++
	}

	return &ports.SaleListResult{
		Sales:      sales,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}, nil
}

// DailySummary returns revenue and count of completed sales for one day,
// cache-aside when a cache is configured.
func (s *SalesService) DailySummary(ctx context.Context, storeID *uuid.UUID, day time.Time) (*ports.DailySummary, error) {
	if s.cache == nil {
		summary, err := s.sales.DailySummary(ctx, storeID, day)
		if err != nil {
			return nil, normalizeError("daily summary", err)
		}
		return summary, nil
	}

	var summary ports.DailySummary
	err := s.cache.GetOrSet(ctx, dailySummaryKey(storeID, day), &summary, func() (interface{}, error) {
		return s.sales.DailySummary(ctx, storeID, day)
	}, dailySummaryTTL)
	if err != nil {
		return nil, normalizeError("daily summary", err)
	}
	return &summary, nil
}

func (s *SalesService) invalidateDailySummary(ctx context.Context, storeID *uuid.UUID, day time.Time) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, dailySummaryKey(storeID, day)); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate daily summary cache",
			slog.String("error", err.Error()))
	}
}

func (s *SalesService) enqueueLowStockCheck(ctx context.Context, productIDs []uuid.UUID) {
	if s.tasks == nil {
		return
	}
	task, err := NewLowStockCheckTask(productIDs)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to build low stock task",
			slog.String("error", err.Error()))
		return
	}
	if _, err := s.tasks.Enqueue(task); err != nil {
		s.logger.WarnContext(ctx, "failed to enqueue low stock task",
			slog.String("error", err.Error()))
	}
}

func dailySummaryKey(storeID *uuid.UUID, day time.Time) string {
	store := "all"
	if storeID != nil {
		store = storeID.String()
	}
	return fmt.Sprintf("dash:daily:%s:%s", store, day.Format("2006-01-02"))
}
