// internal/adapters/db/product_repository.go
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
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/ammerola/tindahan-be/internal/core/domain"
	"github.com/ammerola/tindahan-be/internal/core/ports"
)

const productColumns = `
	id, barcode, name, description, category,
	unit_price, wholesale_price, stock_quantity, low_stock_threshold,
	supplier_id, store_id, created_at, updated_at`

// productRepository implements ports.ProductRepository
type productRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *Database, logger *slog.Logger) ports.ProductRepository {
	return &productRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "products")),
	}
}

// Save creates a new product
func (r *productRepository) Save(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (
			id, barcode, name, description, category,
			unit_price, wholesale_price, stock_quantity, low_stock_threshold,
			supplier_id, store_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		) RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		product.ID, nullString(product.Barcode), product.Name, nullString(product.Description), product.Category,
		product.UnitPrice, product.WholesalePrice, product.StockQuantity, product.LowStockThreshold,
		product.SupplierID, product.StoreID, product.CreatedAt, product.UpdatedAt,
	).Scan(&product.CreatedAt, &product.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}

	r.logger.DebugContext(ctx, "product saved",
		slog.String("id", product.ID.String()),
		slog.String("name", product.Name))

	return nil
}

// Update updates an existing product. The stock counter is deliberately not
// touched here; stock only moves through the increment/decrement statements.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products SET
			barcode = $2, name = $3, description = $4, category = $5,
			unit_price = $6, wholesale_price = $7, low_stock_threshold = $8,
			supplier_id = $9, store_id = $10, updated_at = $11
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING stock_quantity, updated_at`

	product.UpdatedAt = time.Now()

	err := r.db.QueryRow(ctx, query,
		product.ID, nullString(product.Barcode), product.Name, nullString(product.Description), product.Category,
		product.UnitPrice, product.WholesalePrice, product.LowStockThreshold,
		product.SupplierID, product.StoreID, product.UpdatedAt,
	).Scan(&product.StockQuantity, &product.UpdatedAt)

	if err != nil {
		if err == pgx.ErrNoRows {
			return &domain.ProductNotFoundError{ProductID: product.ID}
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	r.logger.DebugContext(ctx, "product updated",
		slog.String("id", product.ID.String()))

	return nil
}

// FindByID retrieves a product by ID
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND deleted_at IS NULL`

	product, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	return product, nil
}

// FindByBarcode retrieves a product by its barcode
func (r *productRepository) FindByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE barcode = $1 AND deleted_at IS NULL`

	product, err := scanProduct(r.db.QueryRow(ctx, query, barcode))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find product by barcode: %w", err)
	}

	return product, nil
}

// FindAll retrieves products with filtering and pagination
func (r *productRepository) FindAll(ctx context.Context, params ports.ProductListParams) ([]*domain.Product, int64, error) {
	qb := squirrel.Select(
		"id", "barcode", "name", "description", "category",
		"unit_price", "wholesale_price", "stock_quantity", "low_stock_threshold",
		"supplier_id", "store_id", "created_at", "updated_at",
	).From("products").
		Where("deleted_at IS NULL").
		PlaceholderFormat(squirrel.Dollar)

	if params.Search != "" {
		qb = qb.Where("(name ILIKE '%' || ? || '%' OR barcode = ?)", params.Search, params.Search)
	}
	if params.Category != "" {
		qb = qb.Where(squirrel.Eq{"category": params.Category})
	}
	if params.Barcode != "" {
		qb = qb.Where(squirrel.Eq{"barcode": params.Barcode})
	}
	if params.LowStock {
		qb = qb.Where("stock_quantity <= low_stock_threshold")
	}
	if params.StoreID != nil {
		qb = qb.Where(squirrel.Eq{"store_id": *params.StoreID})
	}

	// Count total items (before pagination)
	countQb := qb.Column("COUNT(*) OVER()").Limit(1)
	countSQL, countArgs, err := countQb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	row := r.db.QueryRow(ctx, countSQL, countArgs...)
	if _, err := scanProductWithCount(row, &totalCount); err != nil && err != pgx.ErrNoRows {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	// Apply sorting
	orderBy := "name ASC"
	if params.SortBy != "" {
		direction := "ASC"
		if params.SortOrder == "desc" {
			direction = "DESC"
		}

		switch params.SortBy {
		case "price":
			orderBy = fmt.Sprintf("unit_price %s", direction)
		case "stock":
			orderBy = fmt.Sprintf("stock_quantity %s", direction)
		case "created":
			orderBy = fmt.Sprintf("created_at %s", direction)
		default:
			orderBy = fmt.Sprintf("name %s", direction)
		}
	}
	qb = qb.OrderBy(orderBy)

	// Apply pagination
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
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	return products, totalCount, nil
}

// FindLowStock retrieves products at or below their reorder threshold
func (r *productRepository) FindLowStock(ctx context.Context, storeID *uuid.UUID) ([]*domain.Product, error) {
	qb := squirrel.Select(
		"id", "barcode", "name", "description", "category",
		"unit_price", "wholesale_price", "stock_quantity", "low_stock_threshold",
		"supplier_id", "store_id", "created_at", "updated_at",
	).From("products").
		Where("deleted_at IS NULL").
		Where("stock_quantity <= low_stock_threshold").
		OrderBy("stock_quantity ASC").
		PlaceholderFormat(squirrel.Dollar)

	if storeID != nil {
		qb = qb.Where(squirrel.Eq{"store_id": *storeID})
	}

	sqlQuery, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return products, nil
}

// SoftDelete marks a product as deleted
func (r *productRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE products SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	now := time.Now()
	tag, err := r.db.Exec(ctx, query, id, now)
	if err != nil {
		return fmt.Errorf("failed to soft delete product: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return &domain.ProductNotFoundError{ProductID: id}
	}

	r.logger.InfoContext(ctx, "product soft deleted",
		slog.String("id", id.String()))

	return nil
}

// Exists checks if a product exists
func (r *productRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1 AND deleted_at IS NULL)`

	var exists bool
	err := r.db.QueryRow(ctx, query, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}

	return exists, nil
}

// CheckAvailability returns the current stock counter without mutating it
func (r *productRepository) CheckAvailability(ctx context.Context, id uuid.UUID) (int, error) {
	query := `SELECT stock_quantity FROM products WHERE id = $1 AND deleted_at IS NULL`

	var quantity int
	err := r.db.QueryRow(ctx, query, id).Scan(&quantity)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, &domain.ProductNotFoundError{ProductID: id}
		}
		return 0, fmt.Errorf("failed to check availability: %w", err)
	}

	return quantity, nil
}

// LockForSale resolves and row-locks the given products inside tx. Rows are
// locked in primary key order so concurrent sales over overlapping carts
// cannot deadlock each other.
func (r *productRepository) LockForSale(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1) AND deleted_at IS NULL
		ORDER BY id
		FOR UPDATE`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	defer rows.Close()

	products := make(map[uuid.UUID]*domain.Product, len(ids))
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locked product: %w", err)
		}
		products[product.ID] = product
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return products, nil
}

// DecrementStock subtracts quantity from the stock counter. The guard in the
// WHERE clause makes the decrement conditional, so the counter can never go
// negative even if two transactions race past the application-level check.
func (r *productRepository) DecrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) error {
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity - $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND stock_quantity >= $2`

	tag, err := tx.Exec(ctx, query, id, quantity)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	if tag.RowsAffected() == 0 {
		var name string
		var available int
		err := tx.QueryRow(ctx, `SELECT name, stock_quantity FROM products WHERE id = $1 AND deleted_at IS NULL`, id).
			Scan(&name, &available)
		if err != nil {
			if err == pgx.ErrNoRows {
				return &domain.ProductNotFoundError{ProductID: id}
			}
			return fmt.Errorf("failed to inspect stock after rejected decrement: %w", err)
		}
		return &domain.InsufficientStockError{
			ProductID:   id,
			ProductName: name,
			Requested:   quantity,
			Available:   available,
		}
	}

	return nil
}

// IncrementStock adds quantity to the stock counter
func (r *productRepository) IncrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) error {
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity + $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := tx.Exec(ctx, query, id, quantity)
	if err != nil {
		return fmt.Errorf("failed to increment stock: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return &domain.ProductNotFoundError{ProductID: id}
	}

	return nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	return scanProductInto(row, nil)
}

func scanProductWithCount(row rowScanner, count *int64) (*domain.Product, error) {
	return scanProductInto(row, count)
}

func scanProductInto(row rowScanner, count *int64) (*domain.Product, error) {
	product := &domain.Product{}
	var barcode, description sql.NullString
	var wholesalePrice pgtype.Numeric
	var supplierID, storeID uuid.NullUUID

	dest := []interface{}{
		&product.ID, &barcode, &product.Name, &description, &product.Category,
		&product.UnitPrice, &wholesalePrice, &product.StockQuantity, &product.LowStockThreshold,
		&supplierID, &storeID, &product.CreatedAt, &product.UpdatedAt,
	}
	if count != nil {
		dest = append(dest, count)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	product.Barcode = barcode.String
	product.Description = description.String
	product.WholesalePrice = numericToDecimal(wholesalePrice)
	if supplierID.Valid {
		product.SupplierID = &supplierID.UUID
	}
	if storeID.Valid {
		product.StoreID = &storeID.UUID
	}

	return product, nil
}

// numericToDecimal converts a nullable pgtype.Numeric into a decimal pointer
func numericToDecimal(n pgtype.Numeric) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	v, err := n.Value()
	if err != nil || v == nil {
		return nil
	}
	switch t := v.(type) {
	case string:
		if d, err := decimal.NewFromString(t); err == nil {
			return &d
		}
	case []byte:
		if d, err := decimal.NewFromString(string(t)); err == nil {
			return &d
		}
	case float64:
		d := decimal.NewFromFloat(t)
		return &d
	case int64:
		d := decimal.NewFromInt(t)
		return &d
	default:
		if d, err := decimal.NewFromString(fmt.Sprint(v)); err == nil {
			return &d
		}
	}
	return nil
}

// nullString maps empty strings to SQL NULL
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
