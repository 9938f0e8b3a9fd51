// internal/adapters/db/sale_repository.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/tindahan-be/internal/core/domain"
	"github.com/ammerola/tindahan-be/internal/core/ports"
)

const saleColumns = `
	id, transaction_number, customer_id, cashier_id,
	subtotal, discount, tax, total_amount,
	payment_method, payment_received, change_given,
	status, notes, store_id, created_at`

// saleRepository implements ports.SaleRepository
type saleRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *Database, logger *slog.Logger) ports.SaleRepository {
	return &saleRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "sales")),
	}
}

// NextTransactionNumber atomically advances the per-day sale counter. The
// upsert runs inside the caller's transaction, so an aborted sale rolls the
// counter back with it; two committed sales on the same day can never share
// a sequence value.
func (r *saleRepository) NextTransactionNumber(ctx context.Context, tx pgx.Tx, day time.Time) (int, error) {
	query := `
		INSERT INTO sale_counters (day, counter)
		VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET counter = sale_counters.counter + 1
		RETURNING counter`

	var counter int
	err := tx.QueryRow(ctx, query, day.Format("2006-01-02")).Scan(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to advance sale counter: %w", err)
	}

	return counter, nil
}

// Insert persists the sale header and all its line items inside tx
func (r *saleRepository) Insert(ctx context.Context, tx pgx.Tx, sale *domain.Sale) error {
	headerQuery := `
		INSERT INTO sales (
			id, transaction_number, customer_id, cashier_id,
			subtotal, discount, tax, total_amount,
			payment_method, payment_received, change_given,
			status, notes, store_id, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)`

	_, err := tx.Exec(ctx, headerQuery,
		sale.ID, sale.TransactionNumber, sale.CustomerID, sale.CashierID,
		sale.Subtotal, sale.Discount, sale.Tax, sale.TotalAmount,
		sale.PaymentMethod, sale.PaymentReceived, sale.ChangeGiven,
		sale.Status, nullString(sale.Notes), sale.StoreID, sale.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sale: %w", err)
	}

	itemQuery := `
		INSERT INTO sale_items (
			id, sale_id, product_id, quantity, unit_price, total_price, discount, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	batch := &pgx.Batch{}
	for i := range sale.Items {
		item := &sale.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.SaleID = sale.ID
		if item.CreatedAt.IsZero() {
			item.CreatedAt = sale.CreatedAt
		}

		batch.Queue(itemQuery,
			item.ID, item.SaleID, item.ProductID, item.Quantity,
			item.UnitPrice, item.TotalPrice, item.Discount, item.CreatedAt,
		)
	}

	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	for i := range sale.Items {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert sale item %d: %w", i, err)
		}
	}

	r.logger.DebugContext(ctx, "sale inserted",
		slog.String("transaction_number", sale.TransactionNumber),
		slog.Int("items", len(sale.Items)))

	return nil
}

// FindByID retrieves a sale and its line items
func (r *saleRepository) FindByID(ctx context.Context, id uuid.UUID, storeID *uuid.UUID) (*domain.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1`
	args := []interface{}{id}
	if storeID != nil {
		query += ` AND store_id = $2`
		args = append(args, *storeID)
	}

	sale, err := scanSale(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find sale: %w", err)
	}

	items, err := r.loadItems(ctx, []uuid.UUID{sale.ID})
	if err != nil {
		return nil, err
	}
	sale.Items = items[sale.ID]

	return sale, nil
}

// FindByIDForUpdate resolves and row-locks a sale inside tx. The lock covers
// the header only; line items are immutable once written.
func (r *saleRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID, storeID *uuid.UUID) (*domain.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1`
	args := []interface{}{id}
	if storeID != nil {
		query += ` AND store_id = $2`
		args = append(args, *storeID)
	}
	query += ` FOR UPDATE`

	sale, err := scanSale(tx.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock sale: %w", err)
	}

	itemsQuery := `
		SELECT si.id, si.sale_id, si.product_id, p.name, si.quantity,
		       si.unit_price, si.total_price, si.discount, si.created_at
		FROM sale_items si
		JOIN products p ON p.id = si.product_id
		WHERE si.sale_id = $1
		ORDER BY si.created_at`

	rows, err := tx.Query(ctx, itemsQuery, sale.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sale items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.SaleItem
		err := rows.Scan(
			&item.ID, &item.SaleID, &item.ProductID, &item.ProductName, &item.Quantity,
			&item.UnitPrice, &item.TotalPrice, &item.Discount, &item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale item: %w", err)
		}
		sale.Items = append(sale.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return sale, nil
}

// MarkCancelled flips the sale to cancelled and appends the reason to its
// notes, preserving whatever the cashier wrote at checkout.
func (r *saleRepository) MarkCancelled(ctx context.Context, tx pgx.Tx, id uuid.UUID, reason string) error {
	query := `
		UPDATE sales
		SET status = $2,
		    notes = COALESCE(notes, '') || E'\nCancelled: ' || $3
		WHERE id = $1 AND status = $4`

	tag, err := tx.Exec(ctx, query, id, domain.SaleCancelled, reason, domain.SaleCompleted)
	if err != nil {
		return fmt.Errorf("failed to cancel sale: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return &domain.SaleNotFoundError{SaleID: id}
	}

	r.logger.InfoContext(ctx, "sale cancelled",
		slog.String("id", id.String()),
		slog.String("reason", reason))

	return nil
}

// List retrieves sales with filtering and pagination
func (r *saleRepository) List(ctx context.Context, params ports.SaleListParams) ([]*domain.Sale, int64, error) {
	qb := squirrel.Select(
		"id", "transaction_number", "customer_id", "cashier_id",
		"subtotal", "discount", "tax", "total_amount",
		"payment_method", "payment_received", "change_given",
		"status", "notes", "store_id", "created_at",
	).From("sales").
		PlaceholderFormat(squirrel.Dollar)

	if params.StartDate != nil {
		qb = qb.Where("created_at >= ?", *params.StartDate)
	}
	if params.EndDate != nil {
		qb = qb.Where("created_at <= ?", *params.EndDate)
	}
	if params.Status != "" {
		qb = qb.Where(squirrel.Eq{"status": params.Status})
	}
	if params.CashierID != nil {
		qb = qb.Where(squirrel.Eq{"cashier_id": *params.CashierID})
	}
	if params.StoreID != nil {
		qb = qb.Where(squirrel.Eq{"store_id": *params.StoreID})
	}

	countQb := qb.Column("COUNT(*) OVER()").Limit(1)
	countSQL, countArgs, err := countQb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	if err := scanSaleCount(r.db.QueryRow(ctx, countSQL, countArgs...), &totalCount); err != nil && err != pgx.ErrNoRows {
		return nil, 0, fmt.Errorf("failed to count sales: %w", err)
	}

	qb = qb.OrderBy("created_at DESC")
	if params.PageSize > 0 {
		qb = qb.Limit(uint64(params.PageSize))
		if params.Page > 1 {
			qb = qb.Offset(uint64((params.Page - 1) * params.PageSize))
		}
	}

	sqlQuery, args, err := qb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []*domain.Sale
	var saleIDs []uuid.UUID
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, sale)
		saleIDs = append(saleIDs, sale.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	if len(saleIDs) > 0 {
		itemsBySale, err := r.loadItems(ctx, saleIDs)
		if err != nil {
			return nil, 0, err
		}
		for _, sale := range sales {
			sale.Items = itemsBySale[sale.ID]
		}
	}

	return sales, totalCount, nil
}

// DailySummary aggregates completed sales for one calendar day
func (r *saleRepository) DailySummary(ctx context.Context, storeID *uuid.UUID, day time.Time) (*ports.DailySummary, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	qb := squirrel.Select("COUNT(*)", "COALESCE(SUM(total_amount), 0)").
		From("sales").
		Where(squirrel.Eq{"status": domain.SaleCompleted}).
		Where("created_at >= ?", start).
		Where("created_at < ?", end).
		PlaceholderFormat(squirrel.Dollar)

	if storeID != nil {
		qb = qb.Where(squirrel.Eq{"store_id": *storeID})
	}

	sqlQuery, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build summary query: %w", err)
	}

	summary := &ports.DailySummary{Date: start.Format("2006-01-02")}
	err = r.db.QueryRow(ctx, sqlQuery, args...).Scan(&summary.SaleCount, &summary.TotalRevenue)
	if err != nil {
		return nil, fmt.Errorf("failed to compute daily summary: %w", err)
	}

	return summary, nil
}

// loadItems fetches line items for a set of sales in one round trip
func (r *saleRepository) loadItems(ctx context.Context, saleIDs []uuid.UUID) (map[uuid.UUID][]domain.SaleItem, error) {
	query := `
		SELECT si.id, si.sale_id, si.product_id, p.name, si.quantity,
		       si.unit_price, si.total_price, si.discount, si.created_at
		FROM sale_items si
		JOIN products p ON p.id = si.product_id
		WHERE si.sale_id = ANY($1)
		ORDER BY si.created_at`

	rows, err := r.db.Query(ctx, query, saleIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load sale items: %w", err)
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]domain.SaleItem, len(saleIDs))
	for rows.Next() {
		var item domain.SaleItem
		err := rows.Scan(
			&item.ID, &item.SaleID, &item.ProductID, &item.ProductName, &item.Quantity,
			&item.UnitPrice, &item.TotalPrice, &item.Discount, &item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale item: %w", err)
		}
		items[item.SaleID] = append(items[item.SaleID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return items, nil
}

func scanSale(row rowScanner) (*domain.Sale, error) {
	return scanSaleInto(row, nil)
}

func scanSaleCount(row rowScanner, count *int64) error {
	_, err := scanSaleInto(row, count)
	return err
}

func scanSaleInto(row rowScanner, count *int64) (*domain.Sale, error) {
	sale := &domain.Sale{}
	var customerID, storeID uuid.NullUUID
	var notes sql.NullString

	dest := []interface{}{
		&sale.ID, &sale.TransactionNumber, &customerID, &sale.CashierID,
		&sale.Subtotal, &sale.Discount, &sale.Tax, &sale.TotalAmount,
		&sale.PaymentMethod, &sale.PaymentReceived, &sale.ChangeGiven,
		&sale.Status, &notes, &storeID, &sale.CreatedAt,
	}
	if count != nil {
		dest = append(dest, count)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if customerID.Valid {
		sale.CustomerID = &customerID.UUID
	}
	if storeID.Valid {
		sale.StoreID = &storeID.UUID
	}
	sale.Notes = notes.String

	return sale, nil
}
